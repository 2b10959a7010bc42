package storage

import (
	"context"
	"time"

	"github.com/matzehuels/kintree/pkg/observability"
)

type instrumented struct {
	next    Store
	backend string
}

// Instrument wraps s so that every call is reported to
// [observability.Storage] under the given backend name.
func Instrument(s Store, backend string) Store {
	return &instrumented{next: s, backend: backend}
}

func (s *instrumented) observe(ctx context.Context, op string, start time.Time, err error) {
	observability.Storage().OnStorageOp(ctx, s.backend, op, time.Since(start), err)
}

func (s *instrumented) Save(ctx context.Context, r Record) error {
	start := time.Now()
	err := s.next.Save(ctx, r)
	s.observe(ctx, "save", start, err)
	return err
}

func (s *instrumented) Load(ctx context.Context, id string) (Record, error) {
	start := time.Now()
	r, err := s.next.Load(ctx, id)
	s.observe(ctx, "load", start, err)
	return r, err
}

func (s *instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.observe(ctx, "delete", start, err)
	return err
}

func (s *instrumented) List(ctx context.Context) ([]Summary, error) {
	start := time.Now()
	out, err := s.next.List(ctx)
	s.observe(ctx, "list", start, err)
	return out, err
}

func (s *instrumented) Close() error { return s.next.Close() }
