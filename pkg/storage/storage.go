package storage

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
	kio "github.com/matzehuels/kintree/pkg/io"
)

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Record is one stored tree.
type Record struct {
	ID        string       `json:"id" bson:"_id"`
	Name      string       `json:"name" bson:"name"`
	Document  kio.Document `json:"document" bson:"document"`
	UpdatedAt time.Time    `json:"updated_at" bson:"updated_at"`
}

// Summary describes a stored tree without its content.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	People    int       `json:"people" bson:"people"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Summarize returns the summary of r.
func (r Record) Summarize() Summary {
	return Summary{ID: r.ID, Name: r.Name, People: len(r.Document.Nodes), UpdatedAt: r.UpdatedAt}
}

// Store persists tree records. Implementations are safe for concurrent use.
type Store interface {
	// Save creates or replaces the record with r.ID.
	Save(ctx context.Context, r Record) error
	// Load returns the record with the given ID or a TREE_NOT_FOUND error.
	Load(ctx context.Context, id string) (Record, error)
	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
	// List returns summaries, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// NotFound returns the error reported for a missing tree.
func NotFound(id string) error {
	return errors.New(errors.ErrCodeTreeNotFound, "tree %s not found", id)
}

// validateID rejects IDs that cannot double as file names or keys.
func validateID(id string) error {
	return errors.ValidatePath(id)
}

func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// cloneDocument deep-copies d so stored records never alias caller data.
func cloneDocument(d kio.Document) kio.Document {
	out := kio.Document{
		Nodes:         slices.Clone(d.Nodes),
		Relationships: slices.Clone(d.Relationships),
		Entity:        d.Entity,
	}
	for i, r := range out.Relationships {
		if r.Closeness != nil {
			c := *r.Closeness
			out.Relationships[i].Closeness = &c
		}
	}
	return out
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of memory, file, sqlite, redis or mongo.
	Backend string `toml:"backend"`
	// Path is the directory of the file backend or the database file of
	// the sqlite backend.
	Path string `toml:"path"`
	// URL is the redis URL or the mongo connection URI.
	URL string `toml:"url"`
	// Database is the mongo database name.
	Database string `toml:"database"`
}

// Open connects to the configured backend. Every returned store reports
// its calls to the observability storage hooks.
func Open(ctx context.Context, cfg Config) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendMemory
	}

	var (
		s   Store
		err error
	)
	switch backend {
	case BackendMemory:
		s = NewMemory()
	case BackendFile:
		s, err = NewFile(cfg.Path)
	case BackendSQLite:
		s, err = NewSQLite(ctx, cfg.Path)
	case BackendRedis:
		s, err = NewRedis(ctx, cfg.URL)
	case BackendMongo:
		s, err = NewMongo(ctx, cfg.URL, cfg.Database)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, backend), nil
}
