package main

import (
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KimNorgaard/go-rtoml"
	"github.com/KimNorgaard/go-rtoml/internal/tomltest"
)

var tomlTestCmd = &cobra.Command{
	Use:   "toml-test",
	Short: "Decoder and encoder for the toml-test conformance suite",
}

var tomlTestDecodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Read TOML on stdin and write tagged JSON on stdout",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := decodeTagged(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			log.Fatal().Err(err).Msg("Couldn't decode TOML")
		}
	},
}

var tomlTestEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Read tagged JSON on stdin and write TOML on stdout",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := encodeTagged(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			log.Fatal().Err(err).Msg("Couldn't encode TOML")
		}
	},
}

func init() {
	tomlTestCmd.AddCommand(tomlTestDecodeCmd)
	tomlTestCmd.AddCommand(tomlTestEncodeCmd)
}

func decodeTagged(r io.Reader, w io.Writer) error {
	t, err := rtoml.Load(r)
	if err != nil {
		return err
	}
	b, err := tomltest.Marshal(t)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func encodeTagged(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	t, err := tomltest.Unmarshal(data)
	if err != nil {
		return err
	}
	n, err := rtoml.Dump(t, w)
	log.Debug().Int("bytes", n).Msg("encoded")
	return err
}
