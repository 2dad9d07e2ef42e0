package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect AI provider calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent AI provider calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := context.Background()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		calls, err := a.store.ListLLMCalls(ctx, limit)
		if err != nil {
			return err
		}
		if len(calls) == 0 {
			fmt.Println("No AI calls recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-16s  %-24s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))
		for _, c := range calls {
			ok := "yes"
			if !c.Success {
				ok = "no"
			}
			fmt.Printf("%-5d  %-19s  %-16s  %-24s  %-6d  %-6d  %-7d  %s\n",
				c.ID, c.CreatedAt.Format("2006-01-02 15:04:05"),
				c.Purpose, c.Model, c.InputTokens, c.OutputTokens, c.LatencyMs, ok)
		}
		return nil
	},
}

func init() {
	llmListCmd.Flags().Int("limit", 20, "Maximum calls to show")
	llmCmd.AddCommand(llmListCmd)
}
