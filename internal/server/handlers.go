package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kintree/pkg/errors"
	kio "github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/render/svg"
	"github.com/matzehuels/kintree/pkg/tree"
)

// maxBodyBytes bounds request bodies, including imports.
const maxBodyBytes = 4 << 20

// =============================================================================
// Request and Response Types
// =============================================================================

type createTreeRequest struct {
	Name     string        `json:"name" validate:"max=200"`
	Document *kio.Document `json:"document,omitempty"`
}

type addNodeRequest struct {
	Name   string `json:"name" validate:"required,max=200"`
	Gender string `json:"gender,omitempty" validate:"omitempty,oneof=M F m f"`
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type connectRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=parent child spouse sibling"`
	Closeness *int   `json:"closeness,omitempty" validate:"omitempty,min=0,max=100"`
}

// TreeResponse describes one tree and its current layout.
type TreeResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Document kio.Document    `json:"document"`
	Layout   layout.Snapshot `json:"layout"`
}

// NodeResponse is returned when a person is added.
type NodeResponse struct {
	ID     int             `json:"id"`
	Layout layout.Snapshot `json:"layout"`
}

// ImportResponse lists the IDs allocated by an import.
type ImportResponse struct {
	IDs    []int           `json:"ids"`
	Layout layout.Snapshot `json:"layout"`
}

func (sess *session) response() TreeResponse {
	return TreeResponse{
		ID:       sess.id,
		Name:     sess.name,
		Document: sess.ed.Export(),
		Layout:   sess.ed.Snapshot(),
	}
}

// =============================================================================
// Tree Handlers
// =============================================================================

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createTree(w http.ResponseWriter, r *http.Request) {
	var req createTreeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Document != nil {
		if err := errors.ValidateStruct(req.Document); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid tree document"))
			return
		}
	}

	sess, err := s.create(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if req.Document != nil {
		if _, _, err := sess.ed.Import(*req.Document); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.persist(r.Context(), sess); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.logger.Info("tree created", "id", sess.id, "name", sess.name)
	writeJSON(w, http.StatusCreated, sess.response())
}

func (s *Server) listTrees(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		writeJSON(w, http.StatusOK, sess.response())
	})
}

func (s *Server) deleteTree(w http.ResponseWriter, r *http.Request) {
	if err := s.drop(r.Context(), chi.URLParam(r, "treeID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		writeJSON(w, http.StatusOK, sess.ed.Snapshot())
	})
}

func (s *Server) exportTree(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kio.DefaultExportName))
		writeJSON(w, http.StatusOK, sess.ed.Export())
	})
}

func (s *Server) renderSVG(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) {
		opts := []svg.Option{}
		if r.URL.Query().Get("interactive") == "true" {
			opts = append(opts, svg.WithInteraction())
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(svg.Render(sess.ed.Snapshot(), opts...))
	})
}

func (s *Server) importTree(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	doc, err := kio.ParseImport(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, func(sess *session) (any, error) {
		ids, snap, err := sess.ed.Import(doc)
		return ImportResponse{IDs: ids, Layout: snap}, err
	})
}

// =============================================================================
// Node and Relation Handlers
// =============================================================================

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	gender := tree.GenderMale
	if req.Gender != "" {
		g, err := tree.ParseGender(req.Gender)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		gender = g
	}
	s.mutateStatus(w, r, http.StatusCreated, func(sess *session) (any, error) {
		id, snap, err := sess.ed.AddNode(req.Name, gender)
		return NodeResponse{ID: id, Layout: snap}, err
	})
}

func (s *Server) renameNode(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "nodeID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req renameRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, func(sess *session) (any, error) {
		return sess.ed.Rename(id, req.Name)
	})
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "nodeID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, func(sess *session) (any, error) {
		return sess.ed.RemoveNode(id)
	})
}

func (s *Server) toggleGender(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "nodeID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, func(sess *session) (any, error) {
		return sess.ed.ToggleGender(id)
	})
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	a, b, err := pairParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req connectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := tree.ParseKind(req.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	closeness := tree.DefaultCloseness
	if req.Closeness != nil {
		closeness = *req.Closeness
	}
	s.mutate(w, r, func(sess *session) (any, error) {
		return sess.ed.Connect(a, b, kind, closeness)
	})
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	a, b, err := pairParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, func(sess *session) (any, error) {
		return sess.ed.Disconnect(a, b)
	})
}

// =============================================================================
// Helpers
// =============================================================================

// withSession runs fn with the locked session named by the treeID param.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session)) {
	sess, err := s.open(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer sess.mu.Unlock()
	fn(sess)
}

// mutate applies an edit, persists the tree and writes the edit's result.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*session) (any, error)) {
	s.mutateStatus(w, r, http.StatusOK, fn)
}

func (s *Server) mutateStatus(w http.ResponseWriter, r *http.Request, status int, fn func(*session) (any, error)) {
	s.withSession(w, r, func(sess *session) {
		out, err := fn(sess)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.persist(r.Context(), sess); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, status, out)
	})
}

// decodeBody decodes and validates a JSON body. An empty body decodes as
// the zero value.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return errors.ValidateStruct(v)
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, raw)
	}
	return id, nil
}

func pairParams(r *http.Request) (int, int, error) {
	a, err := intParam(r, "a")
	if err != nil {
		return 0, 0, err
	}
	b, err := intParam(r, "b")
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
