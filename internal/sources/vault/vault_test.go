package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestVaultDocuments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", "B")
	writeFile(t, root, "a/daily.MD", "A")
	writeFile(t, root, "a/image.png", "x")
	writeFile(t, root, ".obsidian/workspace.md", "hidden")
	writeFile(t, root, "c.txt", "C")

	docs, err := New(root).Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a/daily.MD", docs[0].Name)
	assert.Equal(t, "b.md", docs[1].Name)
	assert.Equal(t, "B", docs[1].Text)

	docs, err = New(root, ".md", ".txt").Documents(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestVaultMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope")).Documents(context.Background())
	assert.Error(t, err)
}

func TestVaultCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(root).Documents(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
