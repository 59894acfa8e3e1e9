package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/eb1-screener/internal/document"
	"github.com/spigell/eb1-screener/internal/evaluation"
	"github.com/spigell/eb1-screener/internal/prompt"
	"github.com/spigell/eb1-screener/internal/quiz"
)

const (
	PromptSubmit = "Submit"
	PromptBack   = "Back"
	PromptCancel = "Cancel"

	// backInput typed as an answer returns to the previous question.
	backInput = "<"
)

var errQuizCancelled = errors.New("questionnaire cancelled")

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Answer the screening questionnaire in the terminal and get an eligibility report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runQuiz(cmd)
	},
}

func init() {
	rootCmd.AddCommand(quizCmd)

	quizCmd.Flags().StringP("resume", "r", "", "resume file (pdf or plain text)")
	quizCmd.Flags().String("category", "", "category hint: EB-1A, EB-1B or EB-1C")
	quizCmd.Flags().Bool("raw", false, "print the extraction strategy and raw model output along with the result")
}

// asker abstracts the terminal so the questionnaire loop can be driven by tests.
type asker interface {
	Ask(q prompt.Question, current string, step, total int) (string, error)
	Review(answers map[string]string) (string, error)
}

type terminal struct{}

func (terminal) Ask(q prompt.Question, current string, step, total int) (string, error) {
	label := fmt.Sprintf("[%d/%d] %s", step+1, total, q.Label)
	if q.Help != "" {
		label += " (" + q.Help + ")"
	}
	p := promptui.Prompt{
		Label:     label,
		Default:   current,
		AllowEdit: true,
	}
	return p.Run()
}

func (terminal) Review(answers map[string]string) (string, error) {
	s := promptui.Select{
		Label: fmt.Sprintf("%d question(s) answered. Submit?", len(answers)),
		Items: []string{PromptSubmit, PromptBack, PromptCancel},
	}
	_, choice, err := s.Run()
	return choice, err
}

// collectAnswers drives the questionnaire state machine until submission.
func collectAnswers(in asker, questions []prompt.Question) (map[string]string, error) {
	state := quiz.Start(questions)

	for state.Stage() != quiz.StageSubmitted {
		switch state.Stage() {
		case quiz.StageQuestions:
			q, _ := state.Current()
			current, _ := state.AnswerFor(q.ID)
			answer, err := in.Ask(q, current, state.Step(), state.Total())
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(answer) == backInput {
				state = state.Back()
				continue
			}
			state = state.Answer(answer)
		case quiz.StageReview:
			choice, err := in.Review(state.Answers())
			if err != nil {
				return nil, err
			}
			switch choice {
			case PromptSubmit:
				next, err := state.Submit()
				if errors.Is(err, quiz.ErrNoAnswers) {
					state = quiz.Start(questions)
					continue
				}
				if err != nil {
					return nil, err
				}
				state = next
			case PromptBack:
				state = state.Back()
			case PromptCancel:
				return nil, errQuizCancelled
			default:
				return nil, fmt.Errorf("invalid action: %s", choice)
			}
		}
	}

	return state.Answers(), nil
}

func runQuiz(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	flags := cmd.Flags()
	resumeFile, _ := flags.GetString("resume")
	category, _ := flags.GetString("category")
	raw, _ := flags.GetBool("raw")

	registry, err := newRegistry(ctx, cfg, log, nil)
	if err != nil {
		return fmt.Errorf("building evaluation variants: %w", err)
	}
	flow, ok := registry.Get(evaluation.VariantEligibility)
	if !ok {
		return errors.New("eligibility variant is not registered")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Answer each question, leave it blank to skip or type %q to go back.\n", backInput)

	answers, err := collectAnswers(terminal{}, prompt.Questionnaire())
	if err != nil {
		if errors.Is(err, errQuizCancelled) || errors.Is(err, promptui.ErrInterrupt) {
			log.Info("exiting", zap.String("reason", "questionnaire cancelled"))
			return nil
		}
		return err
	}

	req, err := buildRequest(ctx, "", resumeFile, category, document.NewExtractor(cfg.Server.MaxUploadMB<<20, log), log)
	if err != nil {
		return err
	}
	req.Answers = answers

	log.Info("evaluating answers", zap.Int("answered", len(answers)))

	report, err := flow.Run(ctx, req)
	if err != nil {
		return err
	}

	return printReport(cmd.OutOrStdout(), report, raw)
}
