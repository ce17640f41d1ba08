// Package filex contains filesystem helpers shared by the transfer variants.
package filex

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// EnsureDir creates dir (and parents) on fs when missing and returns it.
func EnsureDir(fs afero.Fs, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("empty directory name")
	}

	if err := fs.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SafeName reduces a server-provided filename to a single path element
// without control characters. Empty or dot-only names are replaced by
// fallback.
func SafeName(name, fallback string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return fallback
	}
	return name
}

// UniqueName returns a name inside dir that does not exist yet, appending
// " (1)", " (2)", ... before the extension the way browsers do.
func UniqueName(fs afero.Fs, dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 1; ; i++ {
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}
