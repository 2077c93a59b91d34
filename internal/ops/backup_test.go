package ops

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupRestoreDataDirRoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")

	files := map[string]string{
		"Consent/CymEng_Eng_GB.school/PART01_response.json": `{"consent":{"informed_consent":true}}`,
		"LSBQe/CymEng_Eng_GB/PART01_response.json":          `{"lsb":{"sex":"f"}}`,
		"AGT/CymEng_Eng_GB/PART02_response.json":            `{"practice":{"amusing":0}}`,
	}
	for rel, content := range files {
		path := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	// Empty task directories survive the round trip too.
	require.NoError(t, os.MkdirAll(filepath.Join(src, "MemoryTask"), 0o755))

	archive := filepath.Join(t.TempDir(), "backup.zip")
	require.NoError(t, BackupDataDir(src, archive))
	_, err := os.Stat(archive)
	require.NoError(t, err)

	restoreDir := filepath.Join(t.TempDir(), "restore")
	require.NoError(t, RestoreDataDir(archive, restoreDir))

	got := map[string]string{}
	err = filepath.WalkDir(restoreDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(restoreDir, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, files, got)

	info, err := os.Stat(filepath.Join(restoreDir, "MemoryTask"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBackupDataDirSkipsSymlinks(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "real.json"), []byte("{}"), 0o644))
	if err := os.Symlink(filepath.Join(src, "real.json"), filepath.Join(src, "link.json")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	archive := filepath.Join(t.TempDir(), "backup.zip")
	require.NoError(t, BackupDataDir(src, archive))

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, entry := range zr.File {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"real.json"}, names)
}

func TestBackupDataDirRejectsBadArguments(t *testing.T) {
	assert.Error(t, BackupDataDir("", filepath.Join(t.TempDir(), "backup.zip")))
	assert.Error(t, BackupDataDir(t.TempDir(), ""))
	assert.Error(t, BackupDataDir(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "backup.zip")))

	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, BackupDataDir(file, filepath.Join(t.TempDir(), "backup.zip")))
}

func TestRestoreDataDirRejectsPathTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create("../escape.json")
	require.NoError(t, err)
	_, err = w.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	out := filepath.Join(t.TempDir(), "out")
	require.Error(t, RestoreDataDir(archive, out))
	_, err = os.Stat(filepath.Join(filepath.Dir(out), "escape.json"))
	assert.True(t, os.IsNotExist(err))
}
