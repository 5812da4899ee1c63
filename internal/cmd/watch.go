package cmd

import (
	"github.com/chronically/chronically/pkg/service"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream friend requests and shares as they happen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewWatchService().Watch(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
