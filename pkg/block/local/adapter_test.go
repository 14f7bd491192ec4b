package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pydist/pydist/pkg/block"
	"github.com/pydist/pydist/pkg/block/local"
	"github.com/stretchr/testify/require"
)

func TestAdapterRoundtrip(t *testing.T) {
	ctx := context.Background()
	a, err := local.NewAdapter(t.TempDir())
	require.NoError(t, err)

	key := "dists/alice/foo/0.1/foo-0.1.tar.gz"
	n, err := a.Put(ctx, key, strings.NewReader("archive-bytes"))
	require.NoError(t, err)
	require.Equal(t, int64(len("archive-bytes")), n)

	exists, err := a.Exists(ctx, key)
	require.NoError(t, err)
	require.True(t, exists)

	reader, err := a.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	require.Equal(t, "archive-bytes", string(data))

	require.NoError(t, a.Remove(ctx, key))
	exists, err = a.Exists(ctx, key)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestAdapterRemoveCleansEmptyDirs(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	a, err := local.NewAdapter(root)
	require.NoError(t, err)

	_, err = a.Put(ctx, "dists/alice/foo/0.1/foo-0.1.tar.gz", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, a.Remove(ctx, "dists/alice/foo/0.1/foo-0.1.tar.gz"))

	_, err = os.Stat(filepath.Join(root, "dists", "alice", "foo", "0.1"))
	require.True(t, os.IsNotExist(err))
}

func TestAdapterBlocksPathTraversal(t *testing.T) {
	ctx := context.Background()
	a, err := local.NewAdapter(t.TempDir())
	require.NoError(t, err)

	_, err = a.Put(ctx, "../escape", strings.NewReader("x"))
	require.ErrorIs(t, err, local.ErrBadPath)
	_, err = a.Get(ctx, "../../etc/passwd")
	require.ErrorIs(t, err, local.ErrBadPath)
}

func TestAdapterMissingKey(t *testing.T) {
	ctx := context.Background()
	a, err := local.NewAdapter(t.TempDir())
	require.NoError(t, err)

	_, err = a.Get(ctx, "no/such/key")
	require.ErrorIs(t, err, block.ErrDataNotFound)
	require.ErrorIs(t, a.Remove(ctx, "no/such/key"), block.ErrDataNotFound)
}
