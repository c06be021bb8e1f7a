package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/wire"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Decode MessagePack values to JSON",
	Long: `Decode every MessagePack value in file (or stdin) and print one JSON
document per line.

With a schema, each value is converted through it and re-encoded, so the
output shows the value as the schema sees it.

Examples:
  msgskema inspect data.bin
  msgskema inspect --schema '(array int)' data.bin
  msgskema inspect --catalog schemas.yaml --name point < data.bin`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

var (
	inspectSchema schemaFlags
	inspectLimits limitFlags
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectSchema.register(inspectCmd)
	inspectLimits.register(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	var s msgskema.Schema
	if inspectSchema.set() {
		var err error
		if s, err = inspectSchema.load(); err != nil {
			return err
		}
	}
	return inspect(cmd.OutOrStdout(), bufio.NewReader(in), s, inspectLimits.option())
}

func inspect(out io.Writer, in io.Reader, s msgskema.Schema, opts ...wire.Option) error {
	u := wire.NewUnpacker(in, opts...)
	for i := 0; ; i++ {
		v, err := u.UnpackValue()
		if errors.Is(err, io.EOF) {
			logger.Debug().Int("values", i).Msg("inspect done")
			return nil
		}
		if err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
		if s != nil {
			if v, err = throughSchema(s, v); err != nil {
				return fmt.Errorf("value %d: %w", i, err)
			}
		}
		js, err := v.MarshalJSON()
		if err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
		if _, err := fmt.Fprintf(out, "%s\n", js); err != nil {
			return err
		}
	}
}

// throughSchema converts v with s and encodes the result again.
func throughSchema(s msgskema.Schema, v msgskema.Value) (msgskema.Value, error) {
	x, err := s.Convert(v)
	if err != nil {
		return msgskema.Value{}, err
	}
	var buf bytes.Buffer
	if err := s.Pack(wire.NewPacker(&buf), x); err != nil {
		return msgskema.Value{}, err
	}
	return msgskema.DecodeValue(buf.Bytes())
}
