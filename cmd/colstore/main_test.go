package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/report"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "colstore v"+version)
}

func TestGenerateAnalyzeSnapshot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")

	out, err := run(t, "generate", "--data-root", root, "--max-shard-size", "2048",
		"--customers", "25", "--products", "6", "--orders", "40", "--max-products", "3", "--seed", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Orders: 40\n")

	out, err = run(t, "analyze", "--data-root", root, "--format", "json", "--top-n", "2")
	require.NoError(t, err)
	var analysis report.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Equal(t, uint64(25), analysis.Customers)
	assert.Equal(t, uint64(40), analysis.Orders)
	assert.Len(t, analysis.TopByQuantity, 2)
	assert.Len(t, analysis.Scan.Passes, 3)

	out, err = run(t, "average", "--data-root", root, "--mmap", "--format", "json")
	require.NoError(t, err)
	var profile report.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &profile))
	assert.GreaterOrEqual(t, profile.Quantity.Count, uint64(40))
	assert.NotEqual(t, report.NoData, profile.Quantity.Avg)

	archive := filepath.Join(t.TempDir(), "data.tar.lz4")
	_, err = run(t, "snapshot", "export", "--data-root", root, "--algorithm", "lz4", "--out", archive)
	require.NoError(t, err)

	restored := filepath.Join(t.TempDir(), "restored")
	out, err = run(t, "snapshot", "import", "--data-root", restored, "--algorithm", "lz4", "--in", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported ")

	out, err = run(t, "analyze", "--data-root", restored, "--format", "json", "--top-n", "2")
	require.NoError(t, err)
	var again report.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &again))
	assert.Equal(t, analysis.Customers, again.Customers)
	assert.Equal(t, analysis.QuantityPerOrder, again.QuantityPerOrder)
	assert.Equal(t, analysis.TotalPerOrder, again.TotalPerOrder)
	assert.Equal(t, analysis.TopByQuantity, again.TopByQuantity)
}

func TestAnalyzeEmptyRootReportsNoData(t *testing.T) {
	out, err := run(t, "analyze", "--data-root", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Customers: 0\n")
	assert.Contains(t, out, "Min/Max/Avg orders per customer: 0, 0, no data\n")
}

func TestInvalidFlags(t *testing.T) {
	_, err := run(t, "analyze", "--data-root", t.TempDir(), "--format", "xml")
	require.Error(t, err)

	_, err = run(t, "analyze", "--data-root", t.TempDir(), "--grace-days", "40")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = run(t, "generate", "--data-root", t.TempDir(), "--max-shard-size", "0")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestCorruptShardExitsWithDataCode(t *testing.T) {
	root := t.TempDir()
	_, err := run(t, "generate", "--data-root", root,
		"--customers", "3", "--products", "2", "--orders", "4", "--max-products", "2")
	require.NoError(t, err)

	f, err := os.OpenFile(shard.Path(filepath.Join(root, "orders", "id"), "id", 0), os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xff})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = run(t, "analyze", "--data-root", root)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))
	assert.Equal(t, exitData, exitCode(err))
}
