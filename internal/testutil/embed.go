package testutil

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// TestdataFS holds the sample TOML documents shared by the package tests.
//
//go:embed testdata
var TestdataFS embed.FS

// ReadTestData reads and returns the content of an embedded test file.
func ReadTestData(name string) ([]byte, error) {
	data, err := fs.ReadFile(TestdataFS, path.Join("testdata", name))
	if err != nil {
		return nil, fmt.Errorf("failed to read test data file '%s': %w", name, err)
	}
	return data, nil
}

// Documents returns the names of the embedded .toml files in directory
// order.
func Documents() ([]string, error) {
	entries, err := fs.ReadDir(TestdataFS, "testdata")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
