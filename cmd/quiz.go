package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/inkling/internal/apperr"
)

var quizCmd = &cobra.Command{
	Use:   "quiz <topic-id>",
	Short: "Take an adaptive quiz on a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topicID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid topic id %q", args[0])
		}
		count, _ := cmd.Flags().GetInt("count")

		ctx := context.Background()
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		run, err := a.quiz.Start(ctx, topicID, count)
		if err != nil {
			return err
		}
		fmt.Printf("Quiz started: %d questions. Press Enter on an empty line to skip grading and stop.\n",
			run.Session().TotalQuestions)

		reader := bufio.NewReader(os.Stdin)
		num := 0
	questions:
		for {
			q, err := run.NextQuestion()
			if err != nil {
				return err
			}
			if q == nil {
				break
			}
			num++
			for {
				fmt.Printf("\nQ%d [%s]: %s\n> ", num, q.Difficulty, q.QuestionText)
				line, err := reader.ReadString('\n')
				if err != nil {
					break questions
				}
				answer := strings.TrimSpace(line)
				if answer == "" {
					break questions
				}

				graded, err := a.quiz.Grade(ctx, q.ID, answer)
				if err != nil {
					// A failed grading records nothing; the same
					// question is asked again.
					if apperr.KindOf(err) == apperr.KindGrading {
						fmt.Printf("Grading failed (%v). Try again.\n", err)
						continue
					}
					return err
				}
				if err := run.RecordGrade(graded); err != nil {
					return err
				}
				if graded.IsCorrect {
					fmt.Println("Correct!")
				} else {
					fmt.Println("Not quite.")
				}
				fmt.Println(graded.Feedback)
				break
			}
		}

		results, err := a.quiz.Finish(ctx, run)
		if err != nil {
			return err
		}
		fmt.Printf("\nScore: %.0f%% (%d/%d correct)\n",
			results.Score, results.CorrectAnswers, results.TotalQuestions)
		if results.AvgUnderstanding != nil {
			fmt.Printf("Average understanding: %.1f / 5\n", *results.AvgUnderstanding)
		}
		return nil
	},
}

func init() {
	quizCmd.Flags().Int("count", 0, "Number of questions (default from config)")
}
