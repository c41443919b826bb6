package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KimNorgaard/go-rtoml"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Report whether each file is a valid TOML document",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if failed := checkFiles(cmd.OutOrStdout(), args); failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

// checkFiles parses every file and prints one status line per file. It
// returns the number of files that failed.
func checkFiles(w io.Writer, paths []string) int {
	failed := 0
	for _, path := range paths {
		t, err := rtoml.LoadFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s %s: %s\n", color.Red.Sprint("FAIL"), color.Bold.Sprint(path), describe(err))
			continue
		}
		log.Debug().Str("file", path).Int("keys", t.Len()).Msg("parsed")
		fmt.Fprintf(w, "%s %s\n", color.Green.Sprint("ok"), color.Bold.Sprint(path))
	}
	return failed
}

func describe(err error) string {
	var perr *rtoml.ParsingError
	if errors.As(err, &perr) {
		return color.Cyan.Sprintf("%d:%d", perr.Line, perr.Column) + " " + perr.Message
	}
	return err.Error()
}
