package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/kintree/pkg/errors"
	kio "github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/storage"
)

func newTestServer(t *testing.T, store storage.Store, opts ...Option) http.Handler {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	return New(store, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v\nbody: %s", v, err, rec.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d\nbody: %s", rec.Code, want, rec.Body.String())
	}
}

func createTree(t *testing.T, h http.Handler, body string) TreeResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/trees", body)
	expectStatus(t, rec, http.StatusCreated)
	return decode[TreeResponse](t, rec)
}

func addPerson(t *testing.T, h http.Handler, treeID, name, gender string) int {
	t.Helper()
	body := `{"name":"` + name + `","gender":"` + gender + `"}`
	rec := do(t, h, http.MethodPost, "/trees/"+treeID+"/nodes", body)
	expectStatus(t, rec, http.StatusCreated)
	return decode[NodeResponse](t, rec).ID
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, storage.NewMemory())
	rec := do(t, h, http.MethodGet, "/health", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["status"]; got != "ok" {
		t.Errorf("status = %q", got)
	}
}

func TestTreeLifecycle(t *testing.T) {
	h := newTestServer(t, storage.NewMemory())

	created := createTree(t, h, `{"name":"Lovelace"}`)
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Fatalf("tree ID %q is not a UUID", created.ID)
	}
	if created.Name != "Lovelace" || len(created.Document.Nodes) != 0 {
		t.Errorf("created = %+v", created)
	}
	base := "/trees/" + created.ID

	ada := addPerson(t, h, created.ID, "Ada", "F")
	byron := addPerson(t, h, created.ID, "Byron", "M")
	if ada != 1 || byron != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", ada, byron)
	}

	rec := do(t, h, http.MethodPut, base+"/relations/2/1", `{"kind":"parent","closeness":90}`)
	expectStatus(t, rec, http.StatusOK)
	snap := decode[layout.Snapshot](t, rec)
	if snap.Nodes[byron].Level != 0 || snap.Nodes[ada].Level != 1 {
		t.Errorf("levels = byron %d, ada %d", snap.Nodes[byron].Level, snap.Nodes[ada].Level)
	}
	if len(snap.Edges) != 1 || snap.Edges[0].Closeness != 90 {
		t.Errorf("edges = %+v", snap.Edges)
	}

	rec = do(t, h, http.MethodPost, base+"/nodes/1/gender", "")
	expectStatus(t, rec, http.StatusOK)
	if g := decode[layout.Snapshot](t, rec).Nodes[ada].Gender; g != "M" {
		t.Errorf("gender after toggle = %q, want M", g)
	}

	rec = do(t, h, http.MethodPut, base+"/nodes/1", `{"name":"Augusta Ada"}`)
	expectStatus(t, rec, http.StatusOK)
	if n := decode[layout.Snapshot](t, rec).Nodes[ada].Name; n != "Augusta Ada" {
		t.Errorf("name after rename = %q", n)
	}

	rec = do(t, h, http.MethodGet, base+"/export", "")
	expectStatus(t, rec, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, kio.DefaultExportName) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	doc := decode[kio.Document](t, rec)
	if len(doc.Relationships) != 1 || doc.Relationships[0].From != byron || doc.Relationships[0].To != ada {
		t.Errorf("exported relationships = %+v", doc.Relationships)
	}

	rec = do(t, h, http.MethodGet, base+"/svg", "")
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Augusta Ada")) {
		t.Error("svg does not contain the renamed person")
	}

	rec = do(t, h, http.MethodDelete, base+"/relations/1/2", "")
	expectStatus(t, rec, http.StatusOK)
	if n := len(decode[layout.Snapshot](t, rec).Edges); n != 0 {
		t.Errorf("edges after disconnect = %d", n)
	}

	rec = do(t, h, http.MethodDelete, base+"/nodes/2", "")
	expectStatus(t, rec, http.StatusOK)
	if n := len(decode[layout.Snapshot](t, rec).Nodes); n != 1 {
		t.Errorf("people after remove = %d", n)
	}

	rec = do(t, h, http.MethodGet, "/trees", "")
	expectStatus(t, rec, http.StatusOK)
	list := decode[[]storage.Summary](t, rec)
	if len(list) != 1 || list[0].ID != created.ID || list[0].People != 1 {
		t.Errorf("list = %+v", list)
	}

	rec = do(t, h, http.MethodDelete, base, "")
	expectStatus(t, rec, http.StatusNoContent)
	rec = do(t, h, http.MethodGet, base, "")
	expectStatus(t, rec, http.StatusNotFound)
	if code := decode[ErrorResponse](t, rec).Code; code != errors.ErrCodeTreeNotFound {
		t.Errorf("code = %q", code)
	}
}

func TestCreateWithDocument(t *testing.T) {
	h := newTestServer(t, storage.NewMemory())
	created := createTree(t, h, `{"document":{
		"nodes":[{"id":7,"name":"Mum","gender":"F"},{"id":9,"name":"Kid","gender":"M"}],
		"relationships":[{"type":"parent","from":7,"to":9}]}}`)

	if created.Name != DefaultTreeName {
		t.Errorf("Name = %q, want %q", created.Name, DefaultTreeName)
	}
	if len(created.Layout.Nodes) != 2 || created.Layout.Nodes[2].Level != 1 {
		t.Errorf("layout = %+v", created.Layout.Nodes)
	}
	if c := created.Document.Relationships[0].Closeness; c == nil || *c != 50 {
		t.Errorf("closeness = %v, want 50", c)
	}
}

func TestPersonaSeed(t *testing.T) {
	h := newTestServer(t, storage.NewMemory(), WithPersona("Me"))
	created := createTree(t, h, "")
	if len(created.Document.Nodes) != 1 || created.Document.Nodes[0].Name != "Me" {
		t.Errorf("nodes = %+v", created.Document.Nodes)
	}
}

func TestImport(t *testing.T) {
	h := newTestServer(t, storage.NewMemory())
	created := createTree(t, h, "")
	base := "/trees/" + created.ID

	rec := do(t, h, http.MethodPost, base+"/import", `{"char_name":"Seraphina"}`)
	expectStatus(t, rec, http.StatusOK)
	resp := decode[ImportResponse](t, rec)
	if len(resp.IDs) != 1 || resp.Layout.Nodes[resp.IDs[0]].Name != "Seraphina" {
		t.Errorf("entity import = %+v", resp)
	}

	rec = do(t, h, http.MethodPost, base+"/import", `{"nodes":[{"id":1,"name":"A"},{"id":2,"name":"B"}],"relationships":[{"type":"spouse","from":1,"to":2}]}`)
	expectStatus(t, rec, http.StatusOK)
	resp = decode[ImportResponse](t, rec)
	if len(resp.Layout.Nodes) != 2 || len(resp.Layout.Edges) != 1 {
		t.Errorf("full import replaced tree with %d people, %d edges", len(resp.Layout.Nodes), len(resp.Layout.Edges))
	}

	rec = do(t, h, http.MethodPost, base+"/import", `{"nodes":[]}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if code := decode[ErrorResponse](t, rec).Code; code != errors.ErrCodeInvalidFormat {
		t.Errorf("code = %q, want INVALID_FORMAT", code)
	}
}

func TestRejectsBadRequests(t *testing.T) {
	h := newTestServer(t, storage.NewMemory())
	base := "/trees/" + createTree(t, h, "").ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"missing name", http.MethodPost, base + "/nodes", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad gender", http.MethodPost, base + "/nodes", `{"name":"X","gender":"Q"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"malformed json", http.MethodPost, base + "/nodes", `{`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"missing kind", http.MethodPut, base + "/relations/1/2", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown kind", http.MethodPut, base + "/relations/1/2", `{"kind":"cousin"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"closeness too high", http.MethodPut, base + "/relations/1/2", `{"kind":"spouse","closeness":101}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad node id", http.MethodDelete, base + "/nodes/abc", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown tree", http.MethodGet, "/trees/" + uuid.NewString(), "", http.StatusNotFound, errors.ErrCodeTreeNotFound},
		{"non uuid tree", http.MethodGet, "/trees/not-a-uuid", "", http.StatusNotFound, errors.ErrCodeTreeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			expectStatus(t, rec, tt.status)
			if code := decode[ErrorResponse](t, rec).Code; code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
		})
	}
}

func TestStaleIDsAreNoOps(t *testing.T) {
	h := newTestServer(t, storage.NewMemory())
	base := "/trees/" + createTree(t, h, "").ID
	addPerson(t, h, strings.TrimPrefix(base, "/trees/"), "Solo", "F")

	for _, req := range []struct{ method, path, body string }{
		{http.MethodDelete, base + "/nodes/99", ""},
		{http.MethodPost, base + "/nodes/99/gender", ""},
		{http.MethodPut, base + "/relations/1/99", `{"kind":"spouse"}`},
	} {
		rec := do(t, h, req.method, req.path, req.body)
		expectStatus(t, rec, http.StatusOK)
		snap := decode[layout.Snapshot](t, rec)
		if len(snap.Nodes) != 1 || len(snap.Edges) != 0 {
			t.Errorf("%s %s changed the tree: %+v", req.method, req.path, snap)
		}
	}
}

func TestReloadFromStorage(t *testing.T) {
	store := storage.NewMemory()
	h := newTestServer(t, store)
	created := createTree(t, h, "")
	for _, name := range []string{"A", "B", "C"} {
		addPerson(t, h, created.ID, name, "M")
	}
	do(t, h, http.MethodDelete, "/trees/"+created.ID+"/nodes/2", "")
	expectStatus(t, do(t, h, http.MethodPut, "/trees/"+created.ID+"/relations/1/3", `{"kind":"sibling"}`), http.StatusOK)

	// A fresh server has nothing cached and must restore from the store.
	h2 := newTestServer(t, store)
	rec := do(t, h2, http.MethodGet, "/trees/"+created.ID, "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[TreeResponse](t, rec)

	if _, ok := got.Layout.Nodes[3]; !ok {
		t.Fatalf("person 3 lost its ID on reload: %+v", got.Layout.Nodes)
	}
	if len(got.Layout.Edges) != 1 || got.Layout.Edges[0].Dash != layout.SiblingDash {
		t.Errorf("edges = %+v", got.Layout.Edges)
	}
	if id := addPerson(t, h2, created.ID, "D", "F"); id != 4 {
		t.Errorf("next ID after reload = %d, want 4", id)
	}
}

type failingStore struct{ storage.Store }

func (failingStore) Save(context.Context, storage.Record) error {
	return errors.New(errors.ErrCodeStorage, "disk full")
}

func TestStorageFailure(t *testing.T) {
	h := newTestServer(t, failingStore{storage.NewMemory()})
	rec := do(t, h, http.MethodPost, "/trees", "")
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if code := decode[ErrorResponse](t, rec).Code; code != errors.ErrCodeStorage {
		t.Errorf("code = %q", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics("kintree")
	m.Install()
	defer observability.Reset()

	store := storage.Instrument(storage.NewMemory(), storage.BackendMemory)
	h := newTestServer(t, store, WithMetrics(m))
	created := createTree(t, h, "")
	addPerson(t, h, created.ID, "Ada", "F")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	for _, want := range []string{
		`kintree_http_requests_total{method="POST",route="/trees/{treeID}/nodes",status="201"} 1`,
		`kintree_mutations_total{code="ok",op="add_node"} 1`,
		`kintree_storage_operations_total{backend="memory",code="ok",op="save"} 2`,
		`kintree_layout_duration_seconds_count`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
