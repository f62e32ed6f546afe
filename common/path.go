package common

import (
	"os"
	"path/filepath"

	"github.com/solgraph/solgraph/common/check"
)

// GetAbsolutePath resolves a path relative to the current working directory.
// Absolute paths are only cleaned.
func GetAbsolutePath(file string) string {
	if filepath.IsAbs(file) {
		return filepath.Clean(file)
	}
	path, err := os.Getwd()
	check.PanicIfErr(err)
	abs, err := filepath.Abs(filepath.Join(path, file))
	check.PanicIfErr(err)
	return abs
}
