// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"sable/internal/ast"
	"sable/internal/diag"
	"sable/internal/lower"
	"sable/internal/mir"
	"sable/internal/pipeline"
)

var version = "0.1.0"

type options struct {
	configPath string
	sourcePath string
	permissive bool
	noOpt      bool
	optRounds  int
	jobs       int
	emitMIR    bool
	verbose    int
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:           "sable-mir",
		Short:         "Sable middle end: lower, borrow-check and optimize modules",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a sable.toml")
	root.PersistentFlags().StringVar(&opts.sourcePath, "source", "", "original source file, for diagnostic context")
	root.PersistentFlags().BoolVar(&opts.permissive, "permissive", false, "tolerate shared-alongside-exclusive borrows")
	root.PersistentFlags().IntVarP(&opts.jobs, "jobs", "j", 0, "max concurrent function workers (0 = all CPUs)")
	root.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "log more (repeatable)")

	check := &cobra.Command{
		Use:   "check <module.json>",
		Short: "Borrow-check a module without optimizing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args[0], false)
		},
	}

	build := &cobra.Command{
		Use:   "build <module.json>",
		Short: "Borrow-check and optimize a module, emitting its MIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args[0], true)
		},
	}
	build.Flags().BoolVar(&opts.noOpt, "no-opt", false, "skip the optimizer")
	build.Flags().IntVar(&opts.optRounds, "opt-rounds", 0, "override the optimizer round cap")
	build.Flags().BoolVar(&opts.emitMIR, "emit-mir", true, "print the final MIR")

	root.AddCommand(check, build)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sable-mir: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, inputPath string, build bool) error {
	commonlog.Configure(opts.verbose, nil)
	start := time.Now()

	cfg, err := loadConfig(opts, build)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	module, err := ast.DecodeModule(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", inputPath, err)
	}

	out, err := pipeline.New(cfg).RunModule(ctx, module)
	if err != nil {
		return err
	}

	reporter := newReporter(opts, inputPath)
	failed := false
	for _, res := range out.Results {
		if res.Err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "internal error [%s]: %v\n", internalCode(res.Err), res.Err)
			continue
		}
		for _, d := range res.Diags {
			failed = true
			fmt.Fprint(os.Stderr, reporter.Format(diag.FromBorrow(d)))
		}
	}

	if failed {
		color.Red("%s: check failed after %s", module.Name, time.Since(start).Round(time.Microsecond))
		os.Exit(1)
	}

	if build && opts.emitMIR {
		for _, res := range out.Results {
			fmt.Println(mir.Print(res.MIR))
		}
	}
	color.Green("%s: %d functions checked in %s", module.Name, len(out.Results),
		time.Since(start).Round(time.Microsecond))
	return nil
}

func loadConfig(opts *options, build bool) (*pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := pipeline.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Flags override the file.
	if opts.permissive {
		cfg.Check.Mode = "permissive"
	}
	if opts.jobs > 0 {
		cfg.Jobs = opts.jobs
	}
	if !build || opts.noOpt {
		cfg.Opt.Enabled = false
	}
	if opts.optRounds > 0 {
		cfg.Opt.MaxRounds = opts.optRounds
	}
	return cfg, cfg.Validate()
}

// internalCode picks the error code for a pipeline-internal fault:
// lowering failures get their own code, everything else is a broken
// CFG invariant.
func internalCode(err error) string {
	var lerr *lower.Error
	if errors.As(err, &lerr) {
		return diag.ErrorLowering
	}
	return diag.ErrorInvalidCFG
}

func newReporter(opts *options, inputPath string) *diag.Reporter {
	if opts.sourcePath != "" {
		if src, err := os.ReadFile(opts.sourcePath); err == nil {
			return diag.NewReporter(opts.sourcePath, string(src))
		}
	}
	return diag.NewReporter(inputPath, "")
}
