package main

import (
	"github.com/spf13/cobra"

	"github.com/4xmen/chatview/internal/db"
	"github.com/4xmen/chatview/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse conversations in an interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.New(cfg.FixturePath, nil)
		if err != nil {
			return err
		}
		return tui.Run(store, cfg.Location())
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
