package editor

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/errors"
	kio "github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/tree"
)

// PersonaPlaceholder is the unexpanded host macro for the user's persona.
// A persona equal to it means the host had nothing to offer.
const PersonaPlaceholder = "{{user}}"

var (
	// ErrReentrant is returned when a mutation is issued while a layout
	// pass of the same editor is still running.
	ErrReentrant = errors.New(errors.ErrCodeInternal, "edit issued during layout pass")

	// ErrNoRelationKind is returned when connecting without a relation type.
	ErrNoRelationKind = errors.New(errors.ErrCodeInvalidRelation, "please select a relationship type")
)

// Editor owns one tree and keeps its layout current: every mutation
// recomputes the full snapshot before returning it.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	tree    *tree.Tree
	opts    layout.Options
	logger  *log.Logger
	ctx     context.Context
	persona string

	snap layout.Snapshot
	busy bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithTree edits an existing tree instead of a new empty one.
func WithTree(t *tree.Tree) Option {
	return func(e *Editor) {
		if t != nil {
			e.tree = t
		}
	}
}

// WithLayout sets the layout spacing.
func WithLayout(opts layout.Options) Option {
	return func(e *Editor) { e.opts = opts }
}

// WithLogger sets the logger for debug output. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithContext sets the context passed to observability hooks.
func WithContext(ctx context.Context) Option {
	return func(e *Editor) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}

// WithPersona seeds an empty tree with one person named after the host
// persona. Blank names and [PersonaPlaceholder] are ignored.
func WithPersona(name string) Option {
	return func(e *Editor) { e.persona = strings.TrimSpace(name) }
}

// New creates an editor and computes the initial layout.
func New(opts ...Option) *Editor {
	e := &Editor{
		opts:   layout.DefaultOptions(),
		logger: log.Default(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tree == nil {
		e.tree = tree.New()
	}
	if e.persona != "" && e.persona != PersonaPlaceholder && e.tree.NodeCount() == 0 {
		id := e.tree.AddNode(e.persona, tree.GenderMale)
		e.logger.Debug("seeded persona", "id", id, "name", e.persona)
	}
	e.Relayout()
	return e
}

// Tree returns the edited tree. Callers must not mutate it directly or the
// snapshot goes stale until the next [Editor.Relayout].
func (e *Editor) Tree() *tree.Tree { return e.tree }

// Snapshot returns the most recent layout.
func (e *Editor) Snapshot() layout.Snapshot { return e.snap }

// Relayout recomputes the layout from scratch. While a pass is running it
// returns the previous snapshot.
func (e *Editor) Relayout() layout.Snapshot {
	if e.busy {
		return e.snap
	}
	e.busy = true
	defer func() { e.busy = false }()
	e.relayout()
	return e.snap
}

func (e *Editor) relayout() {
	start := time.Now()
	e.snap = layout.Compute(e.tree, e.opts)
	elapsed := time.Since(start)

	st := e.snap.Stats
	e.logger.Debug("layout",
		"nodes", len(e.snap.Nodes),
		"edges", len(e.snap.Edges),
		"components", st.Components,
		"parent_passes", st.ParentPasses,
		"duration", elapsed.Round(time.Microsecond),
	)
	observability.Layout().OnLayoutComplete(e.ctx, len(e.snap.Nodes), len(e.snap.Edges), elapsed)
}

// mutate runs fn followed by a relayout, guarding against reentry.
func (e *Editor) mutate(op string, fn func() error) (layout.Snapshot, error) {
	if e.busy {
		observability.Layout().OnMutation(e.ctx, op, ErrReentrant)
		return e.snap, ErrReentrant
	}
	e.busy = true
	defer func() { e.busy = false }()

	if err := fn(); err != nil {
		e.logger.Debug("edit rejected", "op", op, "err", err)
		observability.Layout().OnMutation(e.ctx, op, err)
		return e.snap, err
	}
	observability.Layout().OnMutation(e.ctx, op, nil)
	e.relayout()
	return e.snap, nil
}

// =============================================================================
// Mutations
// =============================================================================

// AddNode adds a person. The name is trimmed and must be a valid name.
func (e *Editor) AddNode(name string, gender tree.Gender) (int, layout.Snapshot, error) {
	id := 0
	snap, err := e.mutate("add_node", func() error {
		name = strings.TrimSpace(name)
		if err := errors.ValidateName(name); err != nil {
			return err
		}
		id = e.tree.AddNode(name, gender)
		return nil
	})
	return id, snap, err
}

// RemoveNode removes a person and every relation touching it.
func (e *Editor) RemoveNode(id int) (layout.Snapshot, error) {
	return e.mutate("remove_node", func() error {
		e.tree.RemoveNode(id)
		return nil
	})
}

// Connect creates or overwrites the relation between id1 and id2.
func (e *Editor) Connect(id1, id2 int, kind tree.Kind, closeness int) (layout.Snapshot, error) {
	return e.mutate("connect", func() error {
		if kind == "" {
			return ErrNoRelationKind
		}
		return e.tree.Connect(id1, id2, kind, closeness)
	})
}

// Disconnect removes the relation between id1 and id2.
func (e *Editor) Disconnect(id1, id2 int) (layout.Snapshot, error) {
	return e.mutate("disconnect", func() error {
		e.tree.Disconnect(id1, id2)
		return nil
	})
}

// ToggleGender flips the gender of a person.
func (e *Editor) ToggleGender(id int) (layout.Snapshot, error) {
	return e.mutate("toggle_gender", func() error {
		e.tree.ToggleGender(id)
		return nil
	})
}

// Rename changes the name of a person.
func (e *Editor) Rename(id int, name string) (layout.Snapshot, error) {
	return e.mutate("rename", func() error {
		name = strings.TrimSpace(name)
		if err := errors.ValidateName(name); err != nil {
			return err
		}
		e.tree.Rename(id, name)
		return nil
	})
}

// SetRelationKind changes the kind of the relation between id1 and id2 in
// place. It is a no-op when the pair is unrelated.
func (e *Editor) SetRelationKind(id1, id2 int, kind tree.Kind) (layout.Snapshot, error) {
	return e.mutate("set_kind", func() error {
		if kind == "" {
			return ErrNoRelationKind
		}
		_, err := e.tree.SetRelationKind(id1, id2, kind)
		return err
	})
}

// SetCloseness changes the closeness of the relation between id1 and id2.
func (e *Editor) SetCloseness(id1, id2, closeness int) (layout.Snapshot, error) {
	return e.mutate("set_closeness", func() error {
		e.tree.SetCloseness(id1, id2, closeness)
		return nil
	})
}

// Import applies an import document and returns the IDs it allocated.
func (e *Editor) Import(doc kio.Document) ([]int, layout.Snapshot, error) {
	var ids []int
	snap, err := e.mutate("import", func() error {
		ids = doc.Apply(e.tree)
		e.logger.Debug("imported", "people", len(ids), "entity", doc.IsEntity())
		return nil
	})
	return ids, snap, err
}

// Clear removes everything from the tree.
func (e *Editor) Clear() (layout.Snapshot, error) {
	return e.mutate("clear", func() error {
		e.tree.Clear()
		return nil
	})
}

// Export returns the tree as an import/export document.
func (e *Editor) Export() kio.Document { return kio.Export(e.tree) }
