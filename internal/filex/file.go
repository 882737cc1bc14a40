package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned by WriteSecret when the target exists and overwrite
// was not requested.
var ErrExists = errors.New("file already exists")

// EnsureDir creates dir (and parents) with owner/group-only permissions.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// WriteSecret writes data to dir/name with the given mode, creating dir when
// missing. Existing files are kept unless overwrite is set.
func WriteSecret(dir, name string, data []byte, mode os.FileMode, overwrite bool) (string, error) {
	dir, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, mode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%s: %w", path, ErrExists)
		}
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}
