package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"trendflow/internal/core/keywords"
	"trendflow/internal/core/version"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/net/http/bind"
	cdom "trendflow/internal/services/collector/domain"
	retdom "trendflow/internal/services/retention/domain"
	trdom "trendflow/internal/services/trends/domain"

	"github.com/spf13/cobra"
)

func errOutput(v string) error {
	return perr.InvalidArgf("invalid output %q: must be table or json", v)
}

func checkPlatform(p string) error {
	if p == "" || slices.Contains(bind.Platforms, p) {
		return nil
	}
	return perr.InvalidArgf("unknown platform %q: want one of %s", p, strings.Join(bind.Platforms, ", "))
}

func extractCmd(pf printerFunc) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "extract [text]",
		Short: "Rank the keywords of a text, reads stdin when no text is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pf(cmd)
			if err != nil {
				return err
			}
			if top < 1 || top > 100 {
				return perr.InvalidArgf("--top must be between 1 and 100")
			}
			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1<<20))
				if err != nil {
					return err
				}
				text = string(b)
			}
			counts := keywords.Default().Counts(text, top)
			if p.JSON() {
				return p.Encode(trdom.ExtractReport{Keywords: counts})
			}
			rows := make([][]string, 0, len(counts))
			for i, c := range counts {
				rows = append(rows, []string{strconv.Itoa(i + 1), c.Term, strconv.Itoa(c.Count)})
			}
			return p.Table([]string{"rank", "term", "count"}, rows)
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 10, "number of keywords to keep")
	return cmd
}

func velocityCmd(env *Env, pf printerFunc) *cobra.Command {
	var (
		q         trdom.VelocityQuery
		threshold float64
	)
	cmd := &cobra.Command{
		Use:     "velocity",
		Aliases: []string{"trends"},
		Short:   "Show terms whose last hour outpaces the same hour a week ago",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pf(cmd)
			if err != nil {
				return err
			}
			if err := checkPlatform(q.Platform); err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				if math.IsNaN(threshold) || threshold < -1 || threshold > 1000 {
					return perr.InvalidArgf("--threshold must be between -1 and 1000")
				}
				q = q.WithThreshold(threshold)
			}
			svc, err := env.Trends(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := svc.Velocity(cmd.Context(), q)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.Encode(rep)
			}
			p.Header("velocity >= %s  %s vs %s", ftoa(rep.Threshold),
				rep.Recent.From.Format(time.RFC3339), rep.Baseline.From.Format(time.RFC3339))
			if len(rep.Signals) == 0 {
				p.Warning("no terms crossed the threshold")
				return nil
			}
			rows := make([][]string, 0, len(rep.Signals))
			for _, s := range rep.Signals {
				v := s.Velocity.String()
				if s.Velocity.IsUnbounded() {
					v = p.Hot(v)
				}
				rows = append(rows, []string{
					s.Term, v,
					strconv.FormatInt(s.Recent, 10),
					p.Dim(strconv.FormatInt(s.Baseline, 10)),
				})
			}
			return p.Table([]string{"term", "velocity", "recent", "baseline"}, rows)
		},
	}
	cmd.Flags().StringVarP(&q.Platform, "platform", "p", "", "restrict to one platform")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 2.0, "inclusive minimum velocity, unset keeps the configured default")
	cmd.Flags().IntVarP(&q.Limit, "limit", "l", 0, "maximum signals, 0 keeps the configured default")
	return cmd
}

func trainCmd(env *Env, pf printerFunc) *cobra.Command {
	var req trdom.TrainRequest
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a trend model on recent daily counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pf(cmd)
			if err != nil {
				return err
			}
			if err := checkPlatform(req.Platform); err != nil {
				return err
			}
			svc, err := env.Trends(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := svc.Train(cmd.Context(), req)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.Encode(rep)
			}
			if !rep.Trained {
				p.Warning("model not trained: %s", rep.Diagnostic)
				return nil
			}
			p.Success("model trained on %d rows (%d train, %d test), accuracy %s",
				rep.Rows, rep.TrainRows, rep.TestRows, ftoa(rep.Accuracy))
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Platform, "platform", "p", "", "train on one platform only")
	return cmd
}

func predictCmd(env *Env, pf printerFunc) *cobra.Command {
	var q trdom.PredictionQuery
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "List terms the model expects to trend tomorrow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pf(cmd)
			if err != nil {
				return err
			}
			if err := checkPlatform(q.Platform); err != nil {
				return err
			}
			if q.Limit < 0 || q.Limit > 100 {
				return perr.InvalidArgf("--limit must be between 0 and 100")
			}
			svc, err := env.Trends(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := svc.Predictions(cmd.Context(), q)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.Encode(rep)
			}
			if rep.Diagnostic != "" {
				p.Warning("%s", rep.Diagnostic)
			}
			if len(rep.Predictions) == 0 {
				return nil
			}
			p.Header("model accuracy %s, trained %s", ftoa(rep.Accuracy), rep.TrainedAt.Format(time.RFC3339))
			rows := make([][]string, 0, len(rep.Predictions))
			for _, pr := range rep.Predictions {
				rows = append(rows, []string{
					pr.Term,
					ftoa(pr.Percent()) + "%",
					strconv.FormatInt(pr.Current, 10),
					p.Dim(strconv.FormatInt(pr.Previous, 10)),
					ftoa(pr.Velocity),
				})
			}
			return p.Table([]string{"term", "confidence", "today", "yesterday", "velocity"}, rows)
		},
	}
	cmd.Flags().StringVarP(&q.Platform, "platform", "p", "", "restrict to one platform")
	cmd.Flags().IntVarP(&q.Limit, "limit", "l", 0, "maximum predictions, 0 keeps the configured default")
	return cmd
}

func migrateCmd(env *Env, pf printerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending postgres and clickhouse migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pf(cmd)
			if err != nil {
				return err
			}
			known, err := env.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.Encode(map[string]any{"migrations": known})
			}
			p.Success("schema up to date, %d migrations known", len(known))
			return nil
		},
	}
}

func pruneCmd(env *Env, pf printerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete rows older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pf(cmd)
			if err != nil {
				return err
			}
			rep, err := env.Prune(cmd.Context())
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.Encode(rep)
			}
			p.Success("pruned %d rows older than %s", rep.Total(), rep.Cutoff.Format(time.RFC3339))
			rows := make([][]string, 0, len(retdom.Tables))
			for _, t := range retdom.Tables {
				rows = append(rows, []string{string(t), strconv.FormatInt(rep.Deleted[t], 10)})
			}
			return p.Table([]string{"table", "deleted"}, rows)
		},
	}
}

func watchCmd(env *Env, pf printerFunc) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print collection batches as the collector publishes them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pf(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			seen := 0
			events := make(chan cdom.BatchCollected, 16)
			errc := make(chan error, 1)
			go func() {
				errc <- env.Watch(ctx, func(ev cdom.BatchCollected) {
					select {
					case events <- ev:
					case <-ctx.Done():
					}
				})
			}()
			for {
				select {
				case err := <-errc:
					if ctx.Err() != nil {
						return nil
					}
					return err
				case ev := <-events:
					if err := printBatch(p, ev); err != nil {
						return err
					}
					seen++
					if count > 0 && seen >= count {
						cancel()
						<-errc
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().IntVarP(&count, "count", "c", 0, "exit after this many batches, 0 watches until interrupted")
	return cmd
}

func printBatch(p *Printer, ev cdom.BatchCollected) error {
	if p.JSON() {
		return p.Encode(ev)
	}
	total := 0
	for _, n := range ev.Observations {
		total += n
	}
	p.Header("batch %s at %s: %d stories, %d articles, %d observations",
		ev.ID, ev.FinishedAt.Format(time.RFC3339), ev.Stories, ev.Articles, total)
	for src, msg := range ev.Failures {
		p.Warning("%s failed: %s", src, msg)
	}
	if len(ev.TopTerms) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(ev.TopTerms))
	for _, t := range ev.TopTerms {
		rows = append(rows, []string{t.Term, strconv.Itoa(t.Count)})
	}
	return p.Table([]string{"term", "count"}, rows)
}

func versionCmd(pf printerFunc) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bi := version.Info()
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), bi.Version)
				return err
			}
			p, err := pf(cmd)
			if err != nil {
				return err
			}
			if p.JSON() {
				return p.Encode(bi)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "trendflow version %s\n", bi.Version)
			fmt.Fprintf(w, "  commit:     %s\n", bi.Commit)
			fmt.Fprintf(w, "  built:      %s\n", bi.Date)
			fmt.Fprintf(w, "  go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print version string only")
	return cmd
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
