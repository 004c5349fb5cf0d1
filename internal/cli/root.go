// Package cli implements the trendflow operator command line
package cli

import (
	"context"
	"io"
	"os"

	cdom "trendflow/internal/services/collector/domain"
	retdom "trendflow/internal/services/retention/domain"
	trdom "trendflow/internal/services/trends/domain"

	"github.com/spf13/cobra"
)

// Env is what the commands run against, tests swap in fakes
// backends behind the funcs open lazily so offline commands never dial
type Env struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader

	Trends  func(ctx context.Context) (trdom.Service, error)
	Migrate func(ctx context.Context) ([]string, error)
	Watch   func(ctx context.Context, fn func(cdom.BatchCollected)) error
	Prune   func(ctx context.Context) (retdom.Report, error)
}

type rootFlags struct {
	color  string
	output string
}

// New builds the command tree over env
func New(env *Env) *cobra.Command {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Err == nil {
		env.Err = os.Stderr
	}
	if env.In == nil {
		env.In = os.Stdin
	}

	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "trendflow",
		Short: "TrendFlow keyword signal pipeline",
		Long: `trendflow inspects the keyword pipeline from the terminal.

Example usage:
  trendflow extract "Rust 2.0 ships a new borrow checker"
  trendflow velocity --platform hackernews --threshold 1.5
  trendflow train
  trendflow predict --limit 5
  trendflow migrate
  trendflow prune
  trendflow watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.Out)
	root.SetErr(env.Err)
	root.SetIn(env.In)
	root.PersistentFlags().StringVar(&f.color, "color", string(ColorAuto), "color output: auto, always or never")
	root.PersistentFlags().StringVarP(&f.output, "output", "o", "table", "output format: table or json")

	printer := func(cmd *cobra.Command) (*Printer, error) {
		mode, err := ParseColorMode(f.color)
		if err != nil {
			return nil, err
		}
		if f.output != "table" && f.output != "json" {
			return nil, errOutput(f.output)
		}
		return newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode, f.output == "json"), nil
	}

	root.AddCommand(
		extractCmd(printer),
		velocityCmd(env, printer),
		trainCmd(env, printer),
		predictCmd(env, printer),
		migrateCmd(env, printer),
		watchCmd(env, printer),
		pruneCmd(env, printer),
		versionCmd(printer),
	)
	return root
}

type printerFunc func(cmd *cobra.Command) (*Printer, error)
