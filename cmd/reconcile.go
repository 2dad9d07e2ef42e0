package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair drift between the database and the graph store",
	RunE: func(cmd *cobra.Command, args []string) error {
		topicFlag, _ := cmd.Flags().GetInt64("topic")
		force, _ := cmd.Flags().GetBool("force")
		var topicID *int64
		if topicFlag > 0 {
			topicID = &topicFlag
		}

		ctx := context.Background()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		res, err := a.sweeper.Run(ctx, topicID, force)
		if err != nil {
			return err
		}
		fmt.Printf("Repaired: %d\n", res.Repaired)
		if len(res.Orphans) > 0 {
			fmt.Printf("Orphaned graph topics: %v", res.Orphans)
			if force {
				fmt.Printf(" (deleted: %v)", res.Deleted)
			} else {
				fmt.Print(" (re-run with --force to delete)")
			}
			fmt.Println()
		}
		for _, e := range res.Errors {
			fmt.Printf("error: %s\n", e)
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().Int64("topic", 0, "Only reconcile this topic id")
	reconcileCmd.Flags().Bool("force", false, "Delete orphaned graph data")
}
