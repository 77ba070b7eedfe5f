package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupStoreCopiesWithTag(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "tracker.duckdb")
	require.NoError(t, os.WriteFile(src, []byte("store bytes"), 0644))

	m, err := New(filepath.Join(srcDir, "backups"))
	require.NoError(t, err)

	dst, err := m.BackupStore(src, "v1")
	require.NoError(t, err)

	assert.Regexp(t, `tracker_v1_\d{8}_\d{6}\.duckdb$`, dst)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "store bytes", string(data))
}

func TestBackupWorkbookCopiesWithTag(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "tracker.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("workbook bytes"), 0644))

	m, err := New(filepath.Join(srcDir, "backups"))
	require.NoError(t, err)

	dst, err := m.BackupWorkbook(src, "snapshot")
	require.NoError(t, err)
	assert.Regexp(t, `tracker_snapshot_\d{8}_\d{6}\.xlsx$`, dst)
	assert.FileExists(t, dst)
}

func TestBackupMissingSourceFails(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = m.BackupStore(filepath.Join(t.TempDir(), "nope.duckdb"), "v1")
	assert.Error(t, err)
}

func TestNewCreatesBackupDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "backups")
	_, err := New(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}
