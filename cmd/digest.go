package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justDance-everybody/web3-info-denoise/internal/digest"
)

var (
	flagSubscriber string
	flagDryRun     bool
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Run the digest pipeline now",
	RunE:  runDigest,
}

var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Poll all subscribed feeds into today's cache",
	RunE:  runPrefetch,
}

func init() {
	digestCmd.Flags().StringVar(&flagSubscriber, "subscriber", "", "run for a single subscriber id")
	digestCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print digests to stdout instead of sending")
}

func runDigest(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagDryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	var results []digest.RunResult
	if flagSubscriber != "" {
		sub, err := a.subs.Get(flagSubscriber)
		if err != nil {
			return err
		}
		results = append(results, a.runner.RunOne(ctx, sub))
	} else {
		results, err = a.runner.RunAll(ctx)
		if err != nil {
			return err
		}
	}

	for _, res := range results {
		line := fmt.Sprintf("%-20s %s", res.SubscriberID, res.Status)
		if res.Status == digest.StatusSuccess {
			line += fmt.Sprintf(" (%d items)", res.ItemsSent)
		}
		if res.Err != "" {
			line += " " + res.Err
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func runPrefetch(cmd *cobra.Command, args []string) error {
	a, err := newLightApp()
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.prefetch.Prefetch(cmd.Context(), a.cfg.Digest.SinceHours)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "prefetch: %d new, %d duplicates, %d total today\n",
		stats.New, stats.Duplicates, stats.Total)
	return nil
}
