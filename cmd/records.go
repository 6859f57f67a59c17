package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// recordCommands returns commands for inspecting the ledger from the shell.
func recordCommands(b *appInstance) *cobra.Command {
	var fragment string

	recordCmd := &cobra.Command{
		Use:   "records",
		Short: "list ledger records",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			records, err := b.gate.GetRecords(ctx)
			if err != nil {
				log.Fatal(err)
			}
			if fragment != "" {
				records, err = b.gate.SearchRecords(ctx, fragment)
				if err != nil {
					log.Fatal(err)
				}
			}

			for _, r := range records {
				fmt.Printf("%s\tcount=%d\tlimit=%v\tactive=%v\n", r.ID, r.Count, r.Limit, r.Active)
			}
		},
	}
	recordCmd.Flags().StringVar(&fragment, "search", "", "case-insensitive identifier fragment to filter by")

	return recordCmd
}
