package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/storage"
	"github.com/matzehuels/kintree/pkg/tree"
)

// DefaultTreeName names trees created without one.
const DefaultTreeName = "Family tree"

// =============================================================================
// Server
// =============================================================================

// Server exposes stored trees over HTTP. Each tree is edited through its own
// [editor.Editor]; requests against the same tree are serialized, requests
// against different trees run in parallel.
type Server struct {
	store   storage.Store
	logger  *log.Logger
	layout  layout.Options
	persona string
	metrics *Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	dropped  map[string]bool
}

// session is one loaded tree.
type session struct {
	mu      sync.Mutex
	id      string
	name    string
	ed      *editor.Editor
	deleted bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and editor logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLayout sets the layout spacing for every tree.
func WithLayout(opts layout.Options) Option {
	return func(s *Server) { s.layout = opts }
}

// WithPersona seeds newly created empty trees with one person.
func WithPersona(name string) Option {
	return func(s *Server) { s.persona = name }
}

// WithMetrics serves m on /metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server backed by store.
func New(store storage.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		logger:   log.Default(),
		layout:   layout.DefaultOptions(),
		now:      time.Now,
		sessions: make(map[string]*session),
		dropped:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/trees", func(r chi.Router) {
		r.Post("/", s.createTree)
		r.Get("/", s.listTrees)

		r.Route("/{treeID}", func(r chi.Router) {
			r.Get("/", s.getTree)
			r.Delete("/", s.deleteTree)
			r.Get("/layout", s.getLayout)
			r.Get("/export", s.exportTree)
			r.Get("/svg", s.renderSVG)
			r.Post("/import", s.importTree)

			r.Post("/nodes", s.addNode)
			r.Put("/nodes/{nodeID}", s.renameNode)
			r.Delete("/nodes/{nodeID}", s.removeNode)
			r.Post("/nodes/{nodeID}/gender", s.toggleGender)

			r.Put("/relations/{a}/{b}", s.connect)
			r.Delete("/relations/{a}/{b}", s.disconnect)
		})
	})
	return r
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) newEditor(t *tree.Tree) *editor.Editor {
	return editor.New(
		editor.WithTree(t),
		editor.WithLayout(s.layout),
		editor.WithLogger(s.logger),
		editor.WithPersona(s.persona),
	)
}

// create registers a new tree and persists it.
func (s *Server) create(ctx context.Context, name string) (*session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTreeName
	}
	sess := &session{id: uuid.NewString(), name: name, ed: s.newEditor(nil)}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess, nil
}

// open returns the session for id, loading it from storage on first use.
// The returned session is locked; callers must unlock it.
func (s *Server) open(ctx context.Context, id string) (*session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, storage.NotFound(id)
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		loaded, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		switch cur, ok := s.sessions[id]; {
		case ok:
			sess = cur
		case s.dropped[id]:
			s.mu.Unlock()
			return nil, storage.NotFound(id)
		default:
			sess = loaded
			s.sessions[id] = sess
		}
		s.mu.Unlock()
	}

	sess.mu.Lock()
	if sess.deleted {
		sess.mu.Unlock()
		return nil, storage.NotFound(id)
	}
	return sess, nil
}

// load reads a stored tree without touching the session table.
func (s *Server) load(ctx context.Context, id string) (*session, error) {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	t := tree.New()
	rec.Document.Restore(t)
	s.logger.Debug("tree loaded", "id", id, "people", t.NodeCount())
	return &session{id: id, name: rec.Name, ed: s.newEditor(t)}, nil
}

// drop forgets a session and deletes its record. It waits for any edit in
// flight on the session, and later edits through stale handles fail with
// TREE_NOT_FOUND instead of saving the tree again.
func (s *Server) drop(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storage.NotFound(id)
	}
	s.mu.Lock()
	sess := s.sessions[id]
	delete(s.sessions, id)
	s.dropped[id] = true
	s.mu.Unlock()

	if sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		sess.deleted = true
	}
	return s.store.Delete(ctx, id)
}

// persist saves the session's current tree. The session must be locked.
func (s *Server) persist(ctx context.Context, sess *session) error {
	if sess.deleted {
		return storage.NotFound(sess.id)
	}
	rec := storage.Record{
		ID:        sess.id,
		Name:      sess.name,
		Document:  sess.ed.Export(),
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		if errors.GetCode(err) != "" {
			return err
		}
		return errors.Wrap(errors.ErrCodeStorage, err, "save tree %s", sess.id)
	}
	return nil
}
