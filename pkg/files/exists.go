package file

import (
	"os"

	"github.com/pkg/errors"
)

// ErrNotExist is returned by Read for paths which do not point to a regular file.
var ErrNotExist = errors.New("file does not exist")

func Exists(file string) bool {
	stats, err := os.Stat(file)
	return !os.IsNotExist(err) && (stats != nil && !stats.IsDir())
}

// Read returns the content of a file. Use errors.Is(err, ErrNotExist) to detect missing files.
func Read(file string) ([]byte, error) {
	if !Exists(file) {
		return nil, errors.Wrapf(ErrNotExist, "file '%s'", file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file '%s'", file)
	}
	return data, nil
}
