package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manager produces timestamped, version-tagged copies of pipeline artifacts.
type Manager struct {
	dir string
}

func New(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir %s: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// BackupStore copies the store file as <stem>_<tag>_<ts><ext>.
func (m *Manager) BackupStore(storePath, versionTag string) (string, error) {
	return m.copyTagged(storePath, versionTag)
}

// BackupWorkbook copies the source workbook as <stem>_<tag>_<ts><ext>.
func (m *Manager) BackupWorkbook(workbookPath, versionTag string) (string, error) {
	return m.copyTagged(workbookPath, versionTag)
}

func (m *Manager) copyTagged(src, versionTag string) (string, error) {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	timestamp := time.Now().Format("20060102_150405")
	dst := filepath.Join(m.dir, fmt.Sprintf("%s_%s_%s%s", stem, versionTag, timestamp, ext))

	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Sync()
}
