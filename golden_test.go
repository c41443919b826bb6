package rtoml

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update golden files")

func TestGolden(t *testing.T) {
	runGolden(t, "testdata/*.toml")
}

// TestGoldenPretty checks the pretty layout on its own set of documents.
func TestGoldenPretty(t *testing.T) {
	runGolden(t, "testdata/pretty/*.toml", Pretty())
}

func runGolden(t *testing.T, pattern string, opts ...Option) {
	t.Helper()
	files, err := filepath.Glob(pattern)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			src, err := os.ReadFile(file)
			require.NoError(t, err)

			var actual []byte
			tree, err := Parse(src)
			if err != nil {
				// For documents that are expected to fail parsing,
				// the golden file holds the error message.
				actual = []byte(err.Error())
			} else {
				actual, err = Marshal(tree, opts...)
				require.NoError(t, err)
			}

			goldenFile := strings.TrimSuffix(file, ".toml") + ".golden"
			if *update {
				err := os.WriteFile(goldenFile, actual, 0o644)
				require.NoError(t, err)
			}

			expected, err := os.ReadFile(goldenFile)
			require.NoError(t, err, "Golden file not found. Run with -update to create it.")

			require.Equal(t, string(expected), string(actual), "Output does not match golden file.")
		})
	}
}
