package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent graded answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		topicFlag, _ := cmd.Flags().GetInt64("topic")
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

		entries, err := a.quiz.History(ctx, topicID, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No answers recorded yet.")
			return nil
		}
		for _, e := range entries {
			mark := "✗"
			if e.IsCorrect {
				mark = "✓"
			}
			fmt.Printf("%s  %s  [%s] %s\n    your answer: %s\n",
				mark, e.Timestamp.Format("2006-01-02 15:04"), e.TopicName, e.QuestionText, e.UserAnswer)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum entries to show")
	historyCmd.Flags().Int64("topic", 0, "Only show answers for this topic id")
}
