package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	msgskema "github.com/reoring/msgskema"
	"github.com/reoring/msgskema/dsl"
	"github.com/reoring/msgskema/internal/logging"
	"github.com/reoring/msgskema/wire"
)

var (
	// Global flags
	logLevel string

	logger = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msgskema",
	Short: "Schema-driven MessagePack tooling",
	Long: `msgskema works with schema expressions and MessagePack data.

  msgskema compile   # generate PackMsg/UnpackMsg for Go structs
  msgskema inspect   # decode MessagePack to JSON, optionally through a schema
  msgskema encode    # encode JSON from stdin to MessagePack through a schema
  msgskema schemas   # list the schemas of a YAML catalog`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(cmd.ErrOrStderr(), logging.ProfileRuntime)
		if logLevel != "" {
			if lvl, err := zerolog.ParseLevel(logLevel); err == nil {
				logger = logger.Level(lvl)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides "+logging.EnvLogLevel+")")
}

// schemaFlags selects a schema by expression, catalog entry, or both: an
// expression may reference catalog names.
type schemaFlags struct {
	expr    string
	catalog string
	name    string
}

func (f *schemaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.expr, "schema", "", "schema expression, e.g. '(array int)'")
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "YAML schema catalog")
	cmd.Flags().StringVar(&f.name, "name", "", "catalog schema name")
}

func (f *schemaFlags) set() bool { return f.expr != "" || f.name != "" }

func (f *schemaFlags) load() (msgskema.Schema, error) {
	var cat *dsl.Catalog
	if f.catalog != "" {
		c, err := dsl.LoadCatalogFile(f.catalog)
		if err != nil {
			return nil, err
		}
		cat = c
	}
	switch {
	case f.expr != "" && f.name != "":
		return nil, fmt.Errorf("--schema and --name are mutually exclusive")
	case f.expr != "":
		var resolve dsl.Resolver
		if cat != nil {
			resolve = cat.Lookup
		}
		return dsl.ParseWith(f.expr, resolve)
	case f.name != "":
		if cat == nil {
			return nil, fmt.Errorf("--name requires --catalog")
		}
		s, ok := cat.Lookup(f.name)
		if !ok {
			return nil, fmt.Errorf("schema %q not found in %s", f.name, f.catalog)
		}
		return s, nil
	}
	return nil, fmt.Errorf("no schema selected")
}

// limitFlags bound the input a command decodes, MessagePack and JSON alike.
type limitFlags struct {
	maxLen   int
	maxDepth int
}

func (f *limitFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxLen, "max-len", wire.DefaultLimits.MaxContainerLen, "largest array/map accepted")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", wire.DefaultLimits.MaxDepth, "deepest nesting accepted")
}

func (f *limitFlags) option() wire.Option {
	return wire.WithLimits(wire.Limits{MaxDepth: f.maxDepth, MaxContainerLen: f.maxLen})
}
