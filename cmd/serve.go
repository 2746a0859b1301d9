package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler: periodic prefetch and daily digests",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New(cron.WithLocation(a.cfg.Location()))

	if _, err := c.AddFunc(a.cfg.PrefetchSpec(), func() {
		stats, err := a.prefetch.Prefetch(ctx, a.cfg.Digest.SinceHours)
		if err != nil {
			log.Printf("[serve] prefetch failed: %v", err)
			return
		}
		log.Printf("[serve] prefetch: %d new, %d duplicates, %d total", stats.New, stats.Duplicates, stats.Total)
	}); err != nil {
		return err
	}

	if _, err := c.AddFunc(a.cfg.PushSpec(), func() {
		// One last poll so the digest window sees the freshest items.
		if _, err := a.prefetch.Prefetch(ctx, a.cfg.Digest.SinceHours); err != nil {
			log.Printf("[serve] pre-digest prefetch failed: %v", err)
		}
		if _, err := a.runner.RunAll(ctx); err != nil {
			log.Printf("[serve] digest batch failed: %v", err)
		}
		if deleted, err := a.cache.Cleanup(a.cfg.Digest.RetentionDays); err != nil {
			log.Printf("[serve] cache cleanup failed: %v", err)
		} else if deleted > 0 {
			log.Printf("[serve] cache cleanup: removed %d old snapshots", deleted)
		}
	}); err != nil {
		return err
	}

	log.Printf("[serve] scheduler started: prefetch %q, digest %q (%s)",
		a.cfg.PrefetchSpec(), a.cfg.PushSpec(), a.cfg.Location())
	c.Start()

	<-ctx.Done()
	log.Println("[serve] shutting down")
	<-c.Stop().Done()
	return nil
}
