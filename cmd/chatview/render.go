package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/4xmen/chatview/internal/db"
	"github.com/4xmen/chatview/internal/render"
	"github.com/4xmen/chatview/internal/timeline"
	"github.com/4xmen/chatview/pkg/config"
)

type renderOptions struct {
	JSON  bool
	Now   string
	Width int
}

var renderOpts renderOptions

var renderCmd = &cobra.Command{
	Use:   "render <chat-id>",
	Short: "Print one conversation timeline",
	Long: "Assemble a chat from the fixture into date sections and grouped messages,\n" +
		"then print it as terminal bubbles or as JSON entries.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cfg, cmd.OutOrStdout(), args[0], renderOpts)
	},
}

func init() {
	renderCmd.Flags().BoolVarP(&renderOpts.JSON, "json", "j", false, "print timeline entries as JSON")
	renderCmd.Flags().StringVar(&renderOpts.Now, "now", "", "reference instant (RFC3339) for fixture offsets and day labels")
	renderCmd.Flags().IntVarP(&renderOpts.Width, "width", "w", 80, "terminal width")
	rootCmd.AddCommand(renderCmd)
}

func storeClock(now string) (func() time.Time, error) {
	if now == "" {
		return nil, nil
	}
	at, err := time.Parse(time.RFC3339, now)
	if err != nil {
		return nil, fmt.Errorf("invalid --now value %q: %w", now, err)
	}
	return func() time.Time { return at }, nil
}

func runRender(cfg *config.Config, out io.Writer, chatID string, opts renderOptions) error {
	clock, err := storeClock(opts.Now)
	if err != nil {
		return err
	}
	store, err := db.New(cfg.FixturePath, clock)
	if err != nil {
		return err
	}
	chat, err := store.Chat(chatID)
	if err != nil {
		return err
	}
	msgs, err := store.Messages(chatID)
	if err != nil {
		return err
	}

	loc := cfg.Location()
	entries, err := timeline.Assemble(msgs, store.Now().In(loc))
	if err != nil {
		return fmt.Errorf("unable to display conversation: %w", err)
	}

	if opts.JSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"chat":    chat,
			"entries": entries,
		})
	}

	r := &render.Renderer{Width: opts.Width, ContactName: chat.Name, Location: loc}
	if chat.IsGroup {
		r.ContactName = "member"
	}
	fmt.Fprintln(out, chat.Name)
	fmt.Fprintln(out, r.Timeline(entries))
	return nil
}
