// Package vault reads documents from a directory of notes.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"findash/internal/core"
	"findash/internal/log"
	"findash/internal/sources"
)

var _ sources.Source = (*Vault)(nil)

// Vault walks Root for files with one of Extensions. Hidden directories such
// as .obsidian or .git are skipped.
type Vault struct {
	Root       string
	Extensions []string
}

func New(root string, extensions ...string) *Vault {
	if len(extensions) == 0 {
		extensions = []string{".md"}
	}
	return &Vault{Root: root, Extensions: extensions}
}

// Documents reads every matching file. Names are slash-separated paths
// relative to Root, in lexical order.
func (v *Vault) Documents(ctx context.Context) ([]core.Document, error) {
	if _, err := os.Stat(v.Root); err != nil {
		return nil, fmt.Errorf("open vault %s: %w", v.Root, err)
	}

	var docs []core.Document
	err := filepath.WalkDir(v.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != v.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !v.matches(d.Name()) {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rel, err := filepath.Rel(v.Root, path)
		if err != nil {
			rel = path
		}
		docs = append(docs, core.Document{Name: filepath.ToSlash(rel), Text: string(b)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault %s: %w", v.Root, err)
	}
	log.Default().WithComponent(log.ComponentSource).DebugContext(ctx, "Vault read",
		log.FieldOperation, log.OpLoad,
		log.FieldSource, "vault",
		log.FieldDocuments, len(docs),
		"root", v.Root)
	return docs, nil
}

func (v *Vault) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range v.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
