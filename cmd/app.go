package cmd

import (
	"fmt"

	"github.com/justDance-everybody/web3-info-denoise/internal/cache"
	"github.com/justDance-everybody/web3-info-denoise/internal/config"
	"github.com/justDance-everybody/web3-info-denoise/internal/delivery"
	"github.com/justDance-everybody/web3-info-denoise/internal/digest"
	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
	"github.com/justDance-everybody/web3-info-denoise/internal/llm"
	"github.com/justDance-everybody/web3-info-denoise/internal/selector"
	"github.com/justDance-everybody/web3-info-denoise/internal/storage"
	"github.com/justDance-everybody/web3-info-denoise/internal/translator"
)

// app bundles the wired pipeline for the CLI commands.
type app struct {
	cfg      *config.Config
	store    *storage.Store
	cache    *cache.Cache
	subs     *digest.Subscribers
	runner   *digest.Runner
	prefetch *digest.Prefetcher
}

func (a *app) Close() error {
	return a.store.Close()
}

// newLightApp wires only storage and feeds, for commands that never touch
// the model or Telegram.
func newLightApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	c := cache.New(store)
	subs := digest.NewSubscribers(store)
	return &app{
		cfg:      cfg,
		store:    store,
		cache:    c,
		subs:     subs,
		prefetch: digest.NewPrefetcher(c, feed.NewFetcher(), subs),
	}, nil
}

func newProvider(pc *config.ProviderConfig, key string) (llm.Provider, error) {
	switch pc.Provider {
	case "gemini":
		return llm.NewGeminiProvider(key, pc.Model, pc.APIURL)
	case "openai":
		return llm.NewOpenAIProvider(key, pc.Model, pc.APIURL)
	default:
		return nil, fmt.Errorf("unknown provider %q", pc.Provider)
	}
}

// newApp wires the full pipeline. With dryRun set, digests go to stdout
// instead of Telegram.
func newApp(dryRun bool) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	primary, err := newProvider(cfg.LLM.Primary, cfg.PrimaryKey())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("configuring primary provider: %w", err)
	}
	var fallback llm.Provider
	if cfg.LLM.Fallback != nil && cfg.FallbackKey() != "" {
		fallback, err = newProvider(cfg.LLM.Fallback, cfg.FallbackKey())
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("configuring fallback provider: %w", err)
		}
	}

	orch := llm.NewOrchestrator(llm.NewRegistry(primary, fallback))
	sel := selector.New(orch, selector.Options{
		MinItems:  cfg.Digest.MinItems,
		MaxItems:  cfg.Digest.MaxItems,
		BatchSize: cfg.Digest.BatchSize,
	})
	trans := translator.New(orch, cfg.Digest.DefaultLanguage)

	var sender digest.Sender
	if dryRun {
		sender = delivery.NewConsole(rootCmd.OutOrStdout())
	} else {
		sender, err = delivery.NewTelegram(cfg.TelegramToken())
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	c := cache.New(store)
	subs := digest.NewSubscribers(store)
	fetcher := feed.NewFetcher()
	runner := digest.NewRunner(c, fetcher, sel, trans, sender, subs, store, cfg.Digest.Concurrency)

	return &app{
		cfg:      cfg,
		store:    store,
		cache:    c,
		subs:     subs,
		runner:   runner,
		prefetch: digest.NewPrefetcher(c, fetcher, subs),
	}, nil
}
