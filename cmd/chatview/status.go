package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/4xmen/chatview/internal/db"
	"github.com/4xmen/chatview/internal/schedule"
	"github.com/4xmen/chatview/internal/timeline"
	"github.com/4xmen/chatview/pkg/config"
)

type appStatus struct {
	GeneratedAt      time.Time
	Environment      string
	Port             string
	FixturePath      string
	Chats            int
	Groups           int
	Messages         int
	UnreadMessages   int
	MediaFiles       int
	MediaBytes       int64
	PendingScheduled int
	NextScheduledAt  string
	Rules            int
	EnabledRules     int
	BotEnabled       bool
	LatestMessageAt  string
	FixtureSize      int64
	StoreReady       bool
	StoreWarning     string
	StorageWarnings  []string
}

type statusOptions struct {
	JSON bool
}

var statusOpts statusOptions

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the loaded conversations and settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cfg, cmd.OutOrStdout(), statusOpts)
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&statusOpts.JSON, "json", "j", false, "print status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cfg *config.Config, out io.Writer, opts statusOptions) error {
	status := collectStatus(cfg, time.Now())
	if opts.JSON {
		return printStatusJSON(out, status)
	}
	printStatus(out, status)
	return nil
}

func collectStatus(cfg *config.Config, now time.Time) appStatus {
	status := appStatus{
		GeneratedAt: now,
		Environment: cfg.Environment,
		Port:        cfg.Port,
		FixturePath: cfg.FixturePath,
	}

	if cfg.FixturePath != "" {
		if size, err := fileSize(cfg.FixturePath); err == nil {
			status.FixtureSize = size
		} else {
			status.StorageWarnings = append(status.StorageWarnings, fmt.Sprintf("fixture file: %v", err))
		}
	}

	store, err := db.New(cfg.FixturePath, func() time.Time { return now })
	if err != nil {
		status.StoreWarning = fmt.Sprintf("store unavailable: %v", err)
		return status
	}

	var latest time.Time
	for _, preview := range store.Chats() {
		status.Chats++
		if preview.IsGroup {
			status.Groups++
		}
		status.UnreadMessages += preview.UnreadCount

		msgs, err := store.Messages(preview.ID)
		if err != nil {
			status.StoreWarning = fmt.Sprintf("could not read chat %s: %v", preview.ID, err)
			return status
		}
		status.Messages += len(msgs)
		for _, m := range msgs {
			if m.Media != nil {
				status.MediaFiles++
				status.MediaBytes += m.Media.Size
			}
			if t, err := timeline.ParseTimestamp(m.Timestamp); err == nil && t.After(latest) {
				latest = t
			}
		}
	}
	if !latest.IsZero() {
		status.LatestMessageAt = latest.Format(time.RFC3339)
	}

	upcoming := schedule.UpcomingAt(store.Scheduled(), now)
	status.PendingScheduled = len(upcoming)
	if len(upcoming) > 0 {
		status.NextScheduledAt = upcoming[0].NextRun.Format(time.RFC3339)
	}

	for _, r := range store.Rules() {
		status.Rules++
		if r.IsEnabled {
			status.EnabledRules++
		}
	}
	status.BotEnabled = store.Bot().IsEnabled

	status.StoreReady = true
	return status
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}

func formatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

func formatTimestamp(value string) string {
	if value == "" {
		return "n/a"
	}
	return value
}

func formatFixture(path string) string {
	if path == "" {
		return "embedded seed"
	}
	return path
}

func printStatus(out io.Writer, status appStatus) {
	fmt.Fprintln(out, "Chatview Status")
	fmt.Fprintf(out, "Generated at: %s\n", status.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Environment : %s\n", status.Environment)
	fmt.Fprintf(out, "Port        : %s\n", status.Port)
	fmt.Fprintf(out, "Fixture     : %s\n", formatFixture(status.FixturePath))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Data")
	if status.StoreReady {
		fmt.Fprintf(out, "  Chats             : %d (%d groups)\n", status.Chats, status.Groups)
		fmt.Fprintf(out, "  Messages          : %d\n", status.Messages)
		fmt.Fprintf(out, "  Unread messages   : %d\n", status.UnreadMessages)
		fmt.Fprintf(out, "  Media attachments : %d\n", status.MediaFiles)
		fmt.Fprintf(out, "  Media size        : %s\n", formatBytes(status.MediaBytes))
		fmt.Fprintf(out, "  Latest message at : %s\n", formatTimestamp(status.LatestMessageAt))
	} else {
		fmt.Fprintln(out, "  Store metrics     : n/a")
	}
	fmt.Fprintln(out)

	if status.StoreReady {
		fmt.Fprintln(out, "Automation")
		fmt.Fprintf(out, "  Scheduled pending : %d\n", status.PendingScheduled)
		fmt.Fprintf(out, "  Next scheduled at : %s\n", formatTimestamp(status.NextScheduledAt))
		fmt.Fprintf(out, "  Auto-reply rules  : %d (%d enabled)\n", status.Rules, status.EnabledRules)
		fmt.Fprintf(out, "  Bot enabled       : %t\n", status.BotEnabled)
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Storage")
	fmt.Fprintf(out, "  Fixture file  : %s\n", formatBytes(status.FixtureSize))

	if status.StoreWarning != "" {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Warning: %s\n", status.StoreWarning)
	}

	if len(status.StorageWarnings) > 0 {
		fmt.Fprintln(out)
		for _, warning := range status.StorageWarnings {
			fmt.Fprintf(out, "Warning: %s\n", warning)
		}
	}
}

func printStatusJSON(out io.Writer, status appStatus) error {
	payload := map[string]any{
		"generated_at": status.GeneratedAt.Format(time.RFC3339),
		"environment":  status.Environment,
		"port":         status.Port,
		"fixture_path": formatFixture(status.FixturePath),
		"store_ready":  status.StoreReady,
		"metrics": map[string]any{
			"chats":             status.Chats,
			"groups":            status.Groups,
			"messages":          status.Messages,
			"unread_messages":   status.UnreadMessages,
			"media_files":       status.MediaFiles,
			"media_bytes":       status.MediaBytes,
			"media_bytes_hum":   formatBytes(status.MediaBytes),
			"latest_message_at": formatTimestamp(status.LatestMessageAt),
		},
		"automation": map[string]any{
			"scheduled_pending": status.PendingScheduled,
			"next_scheduled_at": formatTimestamp(status.NextScheduledAt),
			"rules":             status.Rules,
			"enabled_rules":     status.EnabledRules,
			"bot_enabled":       status.BotEnabled,
		},
		"storage": map[string]any{
			"fixture_bytes": status.FixtureSize,
			"fixture_hum":   formatBytes(status.FixtureSize),
		},
		"warnings": map[string]any{
			"store":   status.StoreWarning,
			"storage": status.StorageWarnings,
		},
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
