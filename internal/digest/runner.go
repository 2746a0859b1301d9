// Package digest drives the per-subscriber pipeline: window the cached
// items, select with the model, translate, deliver, and persist the outcome.
package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/justDance-everybody/web3-info-denoise/internal/cache"
	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
	"github.com/justDance-everybody/web3-info-denoise/internal/selector"
	"github.com/justDance-everybody/web3-info-denoise/internal/storage"
	"github.com/justDance-everybody/web3-info-denoise/internal/window"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"

	maxErrLen          = 100
	defaultConcurrency = 4
	directFetchHours   = 24
)

// RunResult is the per-subscriber outcome handed to the delivery layer and
// recorded in the store.
type RunResult struct {
	SubscriberID string    `json:"subscriber_id"`
	Status       string    `json:"status"`
	ItemsSent    int       `json:"items_sent"`
	Err          string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
}

// Sender delivers a finished digest to one subscriber.
type Sender interface {
	Send(ctx context.Context, sub *Subscriber, items []selector.Selected, summary string) error
}

// ContentSelector and ContentTranslator are the slices of selector and
// translator the runner depends on.
type ContentSelector interface {
	Select(ctx context.Context, items []feed.Item, profile string) []selector.Selected
	Summary(ctx context.Context, selected []selector.Selected, profile string) string
}

type ContentTranslator interface {
	DetectLanguage(profile string) string
	Translate(ctx context.Context, items []selector.Selected, summary, targetLanguage string) ([]selector.Selected, string)
}

type Fetcher interface {
	FetchAll(ctx context.Context, sources []feed.Source, sinceHours int) []feed.Item
}

type Runner struct {
	cache       *cache.Cache
	fetcher     Fetcher
	selector    ContentSelector
	translator  ContentTranslator
	sender      Sender
	subs        *Subscribers
	store       *storage.Store
	concurrency int
	now         func() time.Time
}

func NewRunner(c *cache.Cache, f Fetcher, sel ContentSelector, tr ContentTranslator, sender Sender, subs *Subscribers, store *storage.Store, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Runner{
		cache:       c,
		fetcher:     f,
		selector:    sel,
		translator:  tr,
		sender:      sender,
		subs:        subs,
		store:       store,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// RunOne executes the full pipeline for a single subscriber. It never
// panics out; any failure is captured in the returned RunResult.
func (r *Runner) RunOne(ctx context.Context, sub *Subscriber) (result RunResult) {
	start := r.now().UTC()
	result = RunResult{SubscriberID: sub.ID, StartedAt: start}

	defer func() {
		if rec := recover(); rec != nil {
			result.Status = StatusError
			result.Err = truncateErr(fmt.Sprintf("panic: %v", rec))
			log.Printf("[digest] subscriber %s panicked: %v", sub.ID, rec)
		}
		r.recordRun(result)
	}()

	candidates, err := r.cache.ItemsForDigest(cache.DateKey(start))
	if err != nil {
		log.Printf("[digest] subscriber %s: reading cache: %v", sub.ID, err)
	}

	items := window.Select(candidates, sub.SourceNames(), sub.LastPush, start)
	if len(items) == 0 {
		// Cache has nothing new for this subscriber. Query their sources
		// directly so an on-demand run still produces a digest.
		log.Printf("[digest] subscriber %s: cache window empty, fetching directly", sub.ID)
		direct := r.fetcher.FetchAll(ctx, sub.FeedSources(), directFetchHours)
		items = window.Select(direct, sub.SourceNames(), sub.LastPush, start)
	}
	if len(items) == 0 {
		result.Status = StatusSkipped
		return result
	}

	selected := r.selector.Select(ctx, items, sub.Profile)
	if len(selected) == 0 {
		result.Status = StatusSkipped
		return result
	}
	summary := r.selector.Summary(ctx, selected, sub.Profile)

	language := sub.Language
	if language == "" {
		language = r.translator.DetectLanguage(sub.Profile)
	}
	selected, summary = r.translator.Translate(ctx, selected, summary, language)

	if err := r.sender.Send(ctx, sub, selected, summary); err != nil {
		result.Status = StatusError
		result.Err = truncateErr(err.Error())
		return result
	}

	sub.LastPush = &start
	if err := r.subs.Put(sub); err != nil {
		result.Status = StatusError
		result.Err = truncateErr(fmt.Sprintf("persisting state: %v", err))
		return result
	}

	result.Status = StatusSuccess
	result.ItemsSent = len(selected)
	return result
}

// RunAll digests every subscriber with bounded concurrency. One
// subscriber's failure never affects another's.
func (r *Runner) RunAll(ctx context.Context) ([]RunResult, error) {
	subs, err := r.subs.All()
	if err != nil {
		return nil, fmt.Errorf("loading subscribers: %w", err)
	}

	results := make([]RunResult, len(subs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			results[i] = r.RunOne(ctx, sub)
			return nil
		})
	}
	g.Wait()

	var ok, failed, skipped int
	for _, res := range results {
		switch res.Status {
		case StatusSuccess:
			ok++
		case StatusError:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	log.Printf("[digest] batch done: %d success, %d failed, %d skipped", ok, failed, skipped)
	return results, nil
}

func (r *Runner) recordRun(res RunResult) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	key := fmt.Sprintf("%s/%s", res.StartedAt.Format(time.RFC3339), res.SubscriberID)
	if err := r.store.Put(storage.BucketRuns, []byte(key), raw); err != nil {
		log.Printf("[digest] recording run for %s: %v", res.SubscriberID, err)
	}
}

func truncateErr(s string) string {
	if len(s) > maxErrLen {
		return s[:maxErrLen]
	}
	return s
}
