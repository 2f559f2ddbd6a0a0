package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/lucebench/internal/export"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <export-file>",
	Short: "Validate the structure of an ingestion job's exported chunk file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := export.VerifyFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("VALID - %d chunks, %d documents, %d tokens\n",
			info.TotalChunks, info.UniqueDocuments, info.TotalTokens)
		for _, src := range info.SourceFiles {
			fmt.Printf("  source: %s\n", src)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
