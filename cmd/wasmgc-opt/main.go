// Command wasmgc-opt drives the GC lowering and function-effects
// passes over an in-memory module.
//
// There is no textual or binary Wasm parser in this repository, so
// wasmgc-opt operates on a small set of named built-in fixture modules
// rather than an arbitrary input file; -o names the encoded output
// path.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"j5.nz/wasmgc/encode"
	"j5.nz/wasmgc/fixture"
	"j5.nz/wasmgc/funceffects"
	"j5.nz/wasmgc/ir"
	"j5.nz/wasmgc/lowergc"
	"j5.nz/wasmgc/passrunner"
)

// fixtureFlag is a pflag.Value so an unknown -fixture name is rejected
// at flag-parse time rather than once loadModule is reached.
type fixtureFlag struct{ name string }

func (f *fixtureFlag) String() string { return f.name }
func (f *fixtureFlag) Type() string   { return "fixture" }
func (f *fixtureFlag) Set(v string) error {
	if _, err := fixture.Load(v); err != nil {
		return err
	}
	f.name = v
	return nil
}

var _ pflag.Value = (*fixtureFlag)(nil)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	debug      bool
	outputPath string
	fixture    fixtureFlag
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{fixture: fixtureFlag{name: fixture.Default}}

	root := &cobra.Command{
		Use:           "wasmgc-opt",
		Short:         "Lower managed Wasm GC constructs and summarize function effects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug-level logging")
	root.PersistentFlags().StringVarP(&flags.outputPath, "o", "o", "out.wasm", "output path for the encoded module")
	root.PersistentFlags().Var(&flags.fixture, "fixture", "built-in fixture module to operate on")

	root.AddCommand(newLowerGCCmd(flags))
	root.AddCommand(newFuncEffectsCmd(flags))
	root.AddCommand(newRunCmd(flags))

	return root
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func loadModule(name string) (*ir.Module, error) {
	m, err := fixture.Load(name)
	if err != nil {
		return nil, errors.Wrapf(err, "loading fixture %q", name)
	}
	return m, nil
}

func newLowerGCCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lower-gc",
		Short: "Run the GC Lowering pass and write the result as a .wasm module",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(flags.debug)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			m, err := loadModule(flags.fixture.name)
			if err != nil {
				return err
			}
			runner := passrunner.New()
			runner.Opts.Log = log
			if err := runner.Run(m, &lowergc.Pass{}); err != nil {
				return err
			}
			out, err := encode.Encode(m)
			if err != nil {
				return errors.Wrap(err, "encoding lowered module")
			}
			if err := os.WriteFile(flags.outputPath, out, 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", flags.outputPath)
			}
			fmt.Printf("wrote %s (%d bytes)\n", flags.outputPath, len(out))
			return nil
		},
	}
}

func newFuncEffectsCmd(flags *globalFlags) *cobra.Command {
	var discard bool

	cmd := &cobra.Command{
		Use:   "func-effects",
		Short: "Generate (or discard) the per-function effect summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(flags.debug)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			m, err := loadModule(flags.fixture.name)
			if err != nil {
				return err
			}
			runner := passrunner.New()
			runner.Opts.Log = log

			if discard {
				if err := runner.Run(m, funceffects.DiscardPass{}); err != nil {
					return err
				}
				fmt.Println("func effects discarded")
				return nil
			}
			if err := runner.Run(m, funceffects.GeneratePass{}); err != nil {
				return err
			}
			for _, f := range m.Funcs {
				set, ok := runner.Opts.FuncEffects[f.Name]
				if !ok {
					continue
				}
				fmt.Printf("%s: %#08x\n", f.Name, uint32(set))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&discard, "discard", false, "discard the summary instead of generating it")
	return cmd
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: lower-gc, generate-func-effects, encode",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(flags.debug)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			m, err := loadModule(flags.fixture.name)
			if err != nil {
				return err
			}
			runner := passrunner.New()
			runner.Opts.Log = log

			if err := runner.Run(m, &lowergc.Pass{}); err != nil {
				return err
			}
			if err := runner.Run(m, funceffects.GeneratePass{}); err != nil {
				return err
			}
			out, err := encode.Encode(m)
			if err != nil {
				return errors.Wrap(err, "encoding module")
			}
			if err := os.WriteFile(flags.outputPath, out, 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", flags.outputPath)
			}
			fmt.Printf("wrote %s (%d bytes), %d function effect summaries\n",
				flags.outputPath, len(out), len(runner.Opts.FuncEffects))
			return nil
		},
	}
}
