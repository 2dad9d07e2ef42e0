package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <topic-id>",
	Short: "Show performance statistics for a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid topic id %q", args[0])
		}
		ctx := context.Background()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		stats, err := a.quiz.TopicStats(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", stats.TopicName)
		fmt.Printf("  Questions: %d (%d attempted)\n", stats.QuestionCount, stats.AnsweredCount)
		if stats.TotalAnswers > 0 {
			pct := float64(stats.CorrectAnswers) / float64(stats.TotalAnswers) * 100
			fmt.Printf("  Answers:   %d, %.0f%% correct\n", stats.TotalAnswers, pct)
		}
		if len(stats.Subtopics) > 0 {
			fmt.Println("  By subtopic:")
			for _, st := range stats.Subtopics {
				fmt.Printf("    %-30s %d/%d correct\n", st.Name, st.Correct, st.Total)
			}
		}
		return nil
	},
}
