package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/lucebench/pkg/client"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show current index statistics from the search service",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		stats, err := c.GetChunkStats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("chunks:           %d\n", stats.TotalChunks)
		fmt.Printf("tokens:           %d\n", stats.TotalTokens)
		fmt.Printf("tokens per chunk: %.1f\n", stats.AvgTokensPerChunk)
		fmt.Printf("index size:       %.2f MB\n", float64(stats.IndexSizeBytes)/(1024*1024))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
