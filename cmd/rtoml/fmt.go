package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KimNorgaard/go-rtoml"
)

var (
	prettyFlag    bool
	noneValueFlag string
	indentFlag    int
	writeFlag     bool
)

var fmtCmd = &cobra.Command{
	Use:   "fmt FILE",
	Short: "Re-format a TOML document",
	Long: `Load a TOML document and dump it again. Key order is kept; plain
entries of each table are moved ahead of its sub-tables.`,
	Args: cobra.ExactArgs(1),
	Run:  fmtCommand,
}

func init() {
	fmtCmd.Flags().BoolVarP(&prettyFlag, "pretty", "p", false, "Write arrays one element per line and prefer literal strings")
	fmtCmd.Flags().StringVar(&noneValueFlag, "none-value", "", "Load this string as null and write nulls back as it")
	fmtCmd.Flags().IntVar(&indentFlag, "indent", 4, "Spaces per level in pretty arrays")
	fmtCmd.Flags().BoolVarP(&writeFlag, "write", "w", false, "Write the result back to the file instead of stdout")
}

func fmtOptions(cmd *cobra.Command) (load, dump []rtoml.Option) {
	if cmd.Flags().Changed("none-value") {
		load = append(load, rtoml.NoneSentinel(noneValueFlag))
		dump = append(dump, rtoml.NoneValue(noneValueFlag))
	}
	if prettyFlag {
		dump = append(dump, rtoml.Pretty())
	}
	dump = append(dump, rtoml.Indent(indentFlag))
	return load, dump
}

func fmtCommand(cmd *cobra.Command, args []string) {
	path := args[0]
	load, dump := fmtOptions(cmd)

	t, err := rtoml.LoadFile(path, load...)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Couldn't load document")
	}

	if writeFlag {
		n, err := rtoml.DumpFile(t, path, dump...)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Couldn't write document")
		}
		log.Debug().Str("file", path).Int("bytes", n).Msg("rewrote")
		return
	}

	n, err := rtoml.Dump(t, cmd.OutOrStdout(), dump...)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't write document")
	}
	log.Debug().Int("bytes", n).Msg("wrote")
}
