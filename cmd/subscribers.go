package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justDance-everybody/web3-info-denoise/internal/digest"
	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
)

var subscribersCmd = &cobra.Command{
	Use:   "subscribers",
	Short: "Manage subscribers",
}

var (
	flagChatID   int64
	flagProfile  string
	flagLanguage string
)

func init() {
	subscribersAddCmd.Flags().Int64Var(&flagChatID, "chat-id", 0, "telegram chat id")
	subscribersAddCmd.Flags().StringVar(&flagProfile, "profile", "", "free-form reader profile used for filtering")
	subscribersAddCmd.Flags().StringVar(&flagLanguage, "language", "", "digest language (detected from profile when empty)")

	subscribersCmd.AddCommand(subscribersAddCmd)
	subscribersCmd.AddCommand(subscribersListCmd)
	subscribersCmd.AddCommand(subscribersRemoveCmd)
}

var subscribersAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Create a subscriber seeded with the default sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newLightApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sub := &digest.Subscriber{
			ID:       args[0],
			ChatID:   flagChatID,
			Profile:  flagProfile,
			Language: flagLanguage,
			Sources:  make(map[string]map[string]string),
		}
		for _, src := range a.cfg.Sources {
			category := src.Category
			if category == "" {
				category = feed.CategoryWebsites
			}
			if sub.Sources[category] == nil {
				sub.Sources[category] = make(map[string]string)
			}
			sub.Sources[category][src.Name] = src.URL
		}

		if err := a.subs.Put(sub); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added subscriber %s with %d default sources\n",
			sub.ID, len(sub.SourceNames()))
		return nil
	},
}

var subscribersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscribers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newLightApp()
		if err != nil {
			return err
		}
		defer a.Close()

		subs, err := a.subs.All()
		if err != nil {
			return err
		}
		for _, sub := range subs {
			last := "never"
			if sub.LastPush != nil {
				last = sub.LastPush.Format("2006-01-02 15:04 MST")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s chat=%-12d sources=%-3d last push: %s\n",
				sub.ID, sub.ChatID, len(sub.SourceNames()), last)
		}
		return nil
	},
}

var subscribersRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a subscriber",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newLightApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.subs.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed subscriber %s\n", args[0])
		return nil
	},
}
