package test

import (
	"os"
	"path/filepath"
)

// LoadFixture reads a file relative to the directory of the running test
func LoadFixture(relativePath string) ([]byte, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return os.ReadFile(filepath.Join(wd, filepath.FromSlash(relativePath)))
}
