package snapshot

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/compression"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/scan"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
	"github.com/catalystcommunity/db-storage-poc/pkg/table"
)

func writeRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	ids := make([]uuid.UUID, 50)
	qty := make([]uint64, 50)
	for i := range ids {
		ids[i] = uuid.New()
		qty[i] = uint64(i)
	}
	tbl, err := table.New("order_products", "id", map[string]column.Column{
		"id":       column.ID(ids...),
		"quantity": column.Uint64(qty...),
	})
	require.NoError(t, err)

	w := table.NewWriter(root, &shard.Writer{MaxShardSize: 128, Logger: zap.NewNop()}, zap.NewNop())
	_, err = w.Write(context.Background(), tbl)
	require.NoError(t, err)
	return root
}

func readTree(t *testing.T, root string) map[string][]byte {
	t.Helper()
	files := map[string][]byte{}
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		files[rel] = data
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestExportImportRoundTrip(t *testing.T) {
	src := writeRoot(t)
	want := readTree(t, src)

	for _, algorithm := range []compression.Algorithm{compression.None, compression.Zstd, compression.LZ4, compression.S2, compression.Gzip} {
		t.Run(string(algorithm), func(t *testing.T) {
			comp, err := compression.NewCompressor(&compression.Config{Algorithm: algorithm})
			require.NoError(t, err)
			a := New(comp, zap.NewNop())

			var buf bytes.Buffer
			exported, err := a.Export(context.Background(), src, &buf)
			require.NoError(t, err)
			assert.Equal(t, len(want), exported.Files)

			dst := filepath.Join(t.TempDir(), "restored")
			imported, err := a.Import(context.Background(), &buf, dst)
			require.NoError(t, err)
			assert.Equal(t, exported.Files, imported.Files)
			assert.Equal(t, exported.Bytes, imported.Bytes)
			assert.Equal(t, want, readTree(t, dst))

			sc, err := scan.Open(dst, scan.RowGroup{
				{Table: "order_products", Column: "id", Kind: column.KindID},
				{Table: "order_products", Column: "quantity", Kind: column.KindUint64},
			}, scan.Options{Logger: zap.NewNop()})
			require.NoError(t, err)
			assert.Equal(t, uint64(50), sc.ExpectedRows())
			require.NoError(t, sc.Close())
		})
	}
}

func TestImportRefusesOverwrite(t *testing.T) {
	src := writeRoot(t)
	comp, err := compression.NewCompressor(nil)
	require.NoError(t, err)
	a := New(comp, zap.NewNop())

	var buf bytes.Buffer
	_, err = a.Export(context.Background(), src, &buf)
	require.NoError(t, err)

	want := readTree(t, src)
	_, err = a.Import(context.Background(), bytes.NewReader(buf.Bytes()), src)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
	assert.ErrorIs(t, err, os.ErrExist)
	assert.Equal(t, want, readTree(t, src))
}

func TestFailedImportCanBeRetried(t *testing.T) {
	src := writeRoot(t)
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: compression.None})
	require.NoError(t, err)
	a := New(comp, zap.NewNop())

	var buf bytes.Buffer
	_, err = a.Export(context.Background(), src, &buf)
	require.NoError(t, err)
	archive := buf.Bytes()

	dst := t.TempDir()
	_, err = a.Import(context.Background(), bytes.NewReader(archive[:len(archive)/2+100]), dst)
	require.Error(t, err)
	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)

	res, err := a.Import(context.Background(), bytes.NewReader(archive), dst)
	require.NoError(t, err)
	assert.Positive(t, res.Files)
	assert.Equal(t, readTree(t, src), readTree(t, dst))
}

func TestImportRejectsEscapingEntries(t *testing.T) {
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: compression.None})
	require.NoError(t, err)

	for _, name := range []string{"../evil", "/etc/evil", "a/../../evil"} {
		var buf bytes.Buffer
		tw := tar.NewWriter(&buf)
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: 1}))
		_, err := tw.Write([]byte("x"))
		require.NoError(t, err)
		require.NoError(t, tw.Close())

		_, err = New(comp, zap.NewNop()).Import(context.Background(), &buf, t.TempDir())
		require.Error(t, err, name)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding), name)
	}
}

func TestExportMissingRoot(t *testing.T) {
	comp, err := compression.NewCompressor(nil)
	require.NoError(t, err)
	_, err = New(comp, zap.NewNop()).Export(context.Background(), filepath.Join(t.TempDir(), "nope"), &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}
