package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Create and inspect learning topics",
}

var topicCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a topic with an AI-generated knowledge graph and questions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		name := strings.Join(args, " ")
		fmt.Printf("Creating topic %q...\n", name)
		res, err := a.topics.CreateTopic(ctx, name)
		if err != nil {
			return err
		}

		fmt.Printf("\nTopic #%d: %s\n", res.Topic.ID, res.Topic.Name)
		if res.Topic.Description != "" {
			fmt.Println(res.Topic.Description)
		}
		fmt.Printf("\nSubtopics (%d):\n", len(res.Subtopics))
		for _, st := range res.Subtopics {
			fmt.Printf("  %d. %s\n", st.ID, st.Name)
		}
		fmt.Printf("\nQuestions generated: %d\n", len(res.Questions))
		for _, w := range res.Warnings {
			fmt.Printf("warning: %v\n", w)
		}
		return nil
	},
}

var topicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		topics, err := a.topics.ListTopics(ctx)
		if err != nil {
			return err
		}
		if len(topics) == 0 {
			fmt.Println("No topics yet. Create one with: inkling topic create <name>")
			return nil
		}
		fmt.Printf("%-5s  %-30s  %-10s  %s\n", "ID", "Name", "Synced", "Created")
		for _, t := range topics {
			fmt.Printf("%-5d  %-30s  %-10t  %s\n",
				t.ID, t.Name, t.GraphSynced, t.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var topicQuestionsCmd = &cobra.Command{
	Use:   "questions <topic-id>",
	Short: "List a topic's questions, or generate more with --generate",
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

		if generate, _ := cmd.Flags().GetBool("generate"); generate {
			count, _ := cmd.Flags().GetInt("count")
			added, warns, err := a.topics.GenerateQuestions(ctx, id, count)
			if err != nil {
				return err
			}
			fmt.Printf("Generated %d questions.\n", len(added))
			for _, w := range warns {
				fmt.Printf("warning: %v\n", w)
			}
			return nil
		}

		questions, err := a.topics.ListQuestions(ctx, id)
		if err != nil {
			return err
		}
		for _, q := range questions {
			fmt.Printf("%d. [%s] %s\n", q.ID, q.Difficulty, q.QuestionText)
		}
		return nil
	},
}

func init() {
	topicQuestionsCmd.Flags().Bool("generate", false, "Generate additional questions instead of listing")
	topicQuestionsCmd.Flags().Int("count", 0, "How many questions to generate (default from config)")

	topicCmd.AddCommand(topicCreateCmd)
	topicCmd.AddCommand(topicListCmd)
	topicCmd.AddCommand(topicQuestionsCmd)
}
