// Package sources defines where scanned documents come from.
package sources

import (
	"context"
	"errors"
	"fmt"

	"findash/internal/core"
)

// ErrNotFound is returned when deleting a document that does not exist.
var ErrNotFound = errors.New("document not found")

// Ports for outbound adapters.
type (
	// Source lists the current documents of a document store.
	Source interface {
		Documents(ctx context.Context) ([]core.Document, error)
	}

	// Writer stores or replaces a document by name.
	Writer interface {
		PutDocument(ctx context.Context, doc core.Document) error
	}

	// Store is a Source that can also delete documents.
	Store interface {
		Source
		DeleteDocument(ctx context.Context, name string) error
	}

	// WritableStore is a Store that accepts new documents.
	WritableStore interface {
		Store
		Writer
	}
)

// Copy writes every document of from into to and returns how many were written.
func Copy(ctx context.Context, from Source, to Writer) (int, error) {
	docs, err := from.Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("read documents: %w", err)
	}
	return put(ctx, docs, to)
}

// Sync copies every document of from into to. With prune set, documents
// of to that from no longer has are deleted afterwards.
func Sync(ctx context.Context, from Source, to WritableStore, prune bool) (written, removed int, err error) {
	docs, err := from.Documents(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("read documents: %w", err)
	}
	if written, err = put(ctx, docs, to); err != nil {
		return written, 0, err
	}
	if !prune {
		return written, 0, nil
	}
	removed, err = Prune(ctx, to, docs)
	return written, removed, err
}

func put(ctx context.Context, docs []core.Document, to Writer) (int, error) {
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := to.PutDocument(ctx, doc); err != nil {
			return i, fmt.Errorf("write document %s: %w", doc.Name, err)
		}
	}
	return len(docs), nil
}

// Prune deletes every document of store whose name is not in keep and
// returns the number removed.
func Prune(ctx context.Context, store Store, keep []core.Document) (int, error) {
	names := make(map[string]struct{}, len(keep))
	for _, d := range keep {
		names[d.Name] = struct{}{}
	}
	existing, err := store.Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored documents: %w", err)
	}
	removed := 0
	for _, d := range existing {
		if _, ok := names[d.Name]; ok {
			continue
		}
		if err := store.DeleteDocument(ctx, d.Name); err != nil {
			return removed, fmt.Errorf("delete document %s: %w", d.Name, err)
		}
		removed++
	}
	return removed, nil
}
