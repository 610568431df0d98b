package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"findash/internal/core"
	"findash/internal/sources"
)

var (
	_ sources.Store  = (*Store)(nil)
	_ sources.Writer = (*Store)(nil)
)

// Store keeps documents in memory, keyed by name.
type Store struct {
	mu   sync.Mutex
	docs map[string]string
}

func New(docs ...core.Document) *Store {
	s := &Store{docs: make(map[string]string, len(docs))}
	for _, d := range docs {
		s.docs[d.Name] = d.Text
	}
	return s
}

// NewFromFiles seeds the store with every regular file directly inside base.
// A missing directory yields an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	entries, err := os.ReadDir(base)
	if err != nil {
		return s
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(base, e.Name()))
		if err != nil {
			continue
		}
		s.docs[e.Name()] = string(b)
	}
	return s
}

// PutDocument stores or replaces the document.
func (s *Store) PutDocument(_ context.Context, doc core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Name] = doc.Text
	return nil
}

// DeleteDocument removes a document by name.
func (s *Store) DeleteDocument(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; !ok {
		return fmt.Errorf("delete %s: %w", name, sources.ErrNotFound)
	}
	delete(s.docs, name)
	return nil
}

// Documents returns a snapshot sorted by name.
func (s *Store) Documents(_ context.Context) ([]core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Document, 0, len(s.docs))
	for name, text := range s.docs {
		out = append(out, core.Document{Name: name, Text: text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
