package main

import (
	"bytes"
	"io"

	"github.com/spf13/cobra"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode JSON from stdin to MessagePack",
	Long: `Read one JSON document from stdin, convert it through a schema and
write the MessagePack encoding to stdout.

Examples:
  echo '[1,2,3]' | msgskema encode --schema '(array short)' > out.bin
  msgskema encode --catalog schemas.yaml --name point < point.json`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

var (
	encodeSchema schemaFlags
	encodeLimits limitFlags
	encodeStrict bool
)

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeSchema.register(encodeCmd)
	encodeLimits.register(encodeCmd)
	encodeCmd.Flags().BoolVar(&encodeStrict, "strict", false, "reject JSON objects with duplicate member names")
}

func runEncode(cmd *cobra.Command, args []string) error {
	s, err := encodeSchema.load()
	if err != nil {
		return err
	}
	return encode(cmd.OutOrStdout(), cmd.InOrStdin(), s, encodeStrict, encodeLimits.option())
}

func encode(out io.Writer, in io.Reader, s msgskema.Schema, strict bool, opts ...wire.Option) error {
	read := wire.ReadJSON
	if strict {
		read = wire.ReadJSONStrict
	}
	v, err := read(in, opts...)
	if err != nil {
		return err
	}
	x, err := s.Convert(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := s.Pack(wire.NewPacker(&buf), x); err != nil {
		return err
	}
	logger.Debug().Str("schema", s.Expression()).Int("bytes", buf.Len()).Msg("encoded")
	_, err = out.Write(buf.Bytes())
	return err
}
