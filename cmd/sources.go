package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage a subscriber's feed sources",
}

var flagSourcesSubscriber string

func init() {
	sourcesCmd.PersistentFlags().StringVar(&flagSourcesSubscriber, "subscriber", "", "subscriber id (required)")
	sourcesCmd.MarkPersistentFlagRequired("subscriber")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscribed sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newLightApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sub, err := a.subs.Get(flagSourcesSubscriber)
		if err != nil {
			return err
		}

		categories := make([]string, 0, len(sub.Sources))
		for category := range sub.Sources {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", category)
			names := make([]string, 0, len(sub.Sources[category]))
			for name := range sub.Sources[category] {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %s\n", name, sub.Sources[category][name])
			}
		}
		return nil
	},
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <name> <url-or-domain>",
	Short: "Add a source, probing common feed paths for bare domains",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newLightApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sub, err := a.subs.Get(flagSourcesSubscriber)
		if err != nil {
			return err
		}

		name, target := args[0], args[1]
		category := "websites"
		feedURL := target

		switch {
		case !strings.Contains(target, "."):
			// A bare handle: treat as a twitter source, fed via an RSS bridge.
			handle, ok := feed.NormalizeTwitterHandle(target)
			if !ok {
				return fmt.Errorf("%s is neither a domain nor a twitter handle", target)
			}
			category = feed.CategoryTwitter
			feedURL = fmt.Sprintf("https://rsshub.app/twitter/user/%s", handle)
		case !strings.Contains(strings.TrimPrefix(strings.TrimPrefix(target, "https://"), "http://"), "/"):
			// A bare domain: probe the usual feed paths.
			detected, err := feed.NewFetcher().DetectFeedURL(cmd.Context(), target)
			if err != nil {
				return fmt.Errorf("no feed found at %s: %w", target, err)
			}
			feedURL = detected
		}

		if sub.Sources == nil {
			sub.Sources = make(map[string]map[string]string)
		}
		if sub.Sources[category] == nil {
			sub.Sources[category] = make(map[string]string)
		}
		sub.Sources[category][name] = feedURL
		if err := a.subs.Put(sub); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s): %s\n", name, category, feedURL)
		return nil
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newLightApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sub, err := a.subs.Get(flagSourcesSubscriber)
		if err != nil {
			return err
		}

		name := args[0]
		for category, byName := range sub.Sources {
			if _, ok := byName[name]; ok {
				delete(byName, name)
				if len(byName) == 0 {
					delete(sub.Sources, category)
				}
				if err := a.subs.Put(sub); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", name)
				return nil
			}
		}
		return fmt.Errorf("source %s not found", name)
	},
}
