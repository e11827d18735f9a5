package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyplan/internal/quiz"
)

func newQuizCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quiz <topicId>",
		Short: "Take a topic quiz on the command line",
		Long: `Answer ten questions by typing the option number.
Scoring 8 or more marks the topic complete.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(rt *runtime) error {
				return runQuiz(cmd, rt, args[0])
			})
		},
	}
}

func runQuiz(cmd *cobra.Command, rt *runtime, topicID string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	s, err := rt.tracker.StartQuiz(topicID)
	if err != nil {
		return err
	}
	tv, err := rt.tracker.Topic(topicID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s · %s\n", tv.Subject.Name, tv.Topic.Title)
	if s.UsedDefaultPool {
		fmt.Fprintln(out, "(general review questions)")
	}

	for {
		item, err := s.Current()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nQ%d/%d [%s] %s\n", s.Index()+1, s.Len(), item.Question.Difficulty, item.Question.Text)
		for i, opt := range item.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}

		choice, err := promptChoice(in, out, len(item.Options))
		if err != nil {
			rt.tracker.AbandonQuiz()
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "\nQuiz abandoned.")
				return nil
			}
			return err
		}

		a, err := rt.tracker.Answer(choice)
		if err != nil {
			return err
		}
		if a.Correct {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Incorrect. Answer: %s\n", a.CorrectText)
		}

		outcome, err := rt.tracker.Next(ctx)
		if err != nil {
			return err
		}
		if outcome == nil {
			continue
		}

		res := outcome.Result
		fmt.Fprintf(out, "\nScore: %d/%d\n", res.Score, res.Total)
		switch {
		case outcome.NewlyCompleted:
			fmt.Fprintln(out, "Passed! Topic complete.")
		case res.Passed:
			fmt.Fprintln(out, "Passed!")
		default:
			fmt.Fprintf(out, "Not yet. You need %d of %d to pass.\n", quiz.PassThreshold, quiz.SessionSize)
		}
		for _, m := range res.Attempt.IncorrectAnswers {
			fmt.Fprintf(out, "  ✗ %s\n    you: %s  answer: %s\n", m.QuestionText, m.ChosenText, m.CorrectText)
		}
		return nil
	}
}

// promptChoice reads a 1-based option number and returns it 0-based.
// Invalid input is re-prompted; end of input returns io.EOF.
func promptChoice(in *bufio.Scanner, out io.Writer, n int) (int, error) {
	for {
		fmt.Fprintf(out, "Answer [1-%d]: ", n)
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		v, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err == nil && v >= 1 && v <= n {
			return v - 1, nil
		}
		fmt.Fprintf(out, "Please enter a number from 1 to %d.\n", n)
	}
}
