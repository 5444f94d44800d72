package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/humanizapp/humanizapp/backend/go-services/internal/config"
	"github.com/stretchr/testify/require"
)

func TestFileSink_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	s := NewFileSink(dir)

	loc, err := s.Put(context.Background(), "plano-parto-maria.pdf", []byte("%PDF-1.3"), "application/pdf")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "plano-parto-maria.pdf"), loc)

	b, err := os.ReadFile(loc)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.3", string(b))

	// overwrite keeps a single file and no temp leftovers
	_, err = s.Put(context.Background(), "plano-parto-maria.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFileSink_RejectsPaths(t *testing.T) {
	s := NewFileSink(t.TempDir())
	for _, name := range []string{"", "../x.pdf", "a/b.pdf", ".hidden.pdf"} {
		_, err := s.Put(context.Background(), name, []byte("x"), "")
		require.Error(t, err, name)
	}
}

func TestFileSink_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileSink(t.TempDir()).Put(ctx, "a.pdf", []byte("x"), "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewMinIOStorage_RequiresEndpoint(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{}, "u1")
	require.Error(t, err)
}
