package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/eb1-screener/internal/document"
	"github.com/spigell/eb1-screener/internal/evaluation"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a single applicant and print the report as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return evaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("variant", evaluation.VariantEligibility, "evaluation variant: eligibility, detailed or resume")
	evaluateCmd.Flags().StringP("answers", "a", "", "yaml file with category, resume and answers")
	evaluateCmd.Flags().StringP("resume", "r", "", "resume file (pdf or plain text)")
	evaluateCmd.Flags().String("category", "", "category hint: EB-1A, EB-1B or EB-1C")
	evaluateCmd.Flags().Bool("raw", false, "print the extraction strategy and raw model output along with the result")
}

func evaluate(cmd *cobra.Command) error {
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
	variant, _ := flags.GetString("variant")
	answersFile, _ := flags.GetString("answers")
	resumeFile, _ := flags.GetString("resume")
	category, _ := flags.GetString("category")
	raw, _ := flags.GetBool("raw")

	req, err := buildRequest(ctx, answersFile, resumeFile, category, document.NewExtractor(cfg.Server.MaxUploadMB<<20, log), log)
	if err != nil {
		return err
	}

	registry, err := newRegistry(ctx, cfg, log, nil)
	if err != nil {
		return fmt.Errorf("building evaluation variants: %w", err)
	}

	flow, ok := registry.Get(variant)
	if !ok {
		return fmt.Errorf("unknown variant %q (available: %s)", variant, strings.Join(registry.Names(), ", "))
	}

	report, err := flow.Run(ctx, req)
	if err != nil {
		return err
	}

	return printReport(cmd.OutOrStdout(), report, raw)
}

func buildRequest(ctx context.Context, answersFile, resumeFile, category string, docs *document.Extractor, log *zap.Logger) (evaluation.Request, error) {
	var req evaluation.Request
	if log == nil {
		log = zap.NewNop()
	}

	if answersFile != "" {
		loaded, err := loadRequestFile(answersFile)
		if err != nil {
			return req, err
		}
		req = loaded
	}

	if resumeFile != "" {
		f, err := os.Open(resumeFile)
		if err != nil {
			return req, fmt.Errorf("opening resume: %w", err)
		}
		defer f.Close()

		extraction, err := docs.Extract(ctx, resumeFile, f)
		if err != nil {
			return req, err
		}
		if extraction.Placeholder {
			log.Warn("resume text could not be extracted, using a placeholder", zap.String("note", extraction.Note))
		}
		req.Resume = extraction.Text
	}

	if category != "" {
		req.Category = category
	}

	return req, nil
}

// loadRequestFile reads a yaml request. Answers are decoded weakly so numeric
// or boolean answers become strings.
func loadRequestFile(path string) (evaluation.Request, error) {
	var req evaluation.Request

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("reading answers file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return req, fmt.Errorf("parsing answers file %s: %w", path, err)
	}

	if err := mapstructure.WeakDecode(raw, &req); err != nil {
		return req, fmt.Errorf("decoding answers file %s: %w", path, err)
	}

	return req, nil
}

func printReport(w io.Writer, report *evaluation.Report, raw bool) error {
	var v any = report.Result
	if raw {
		v = report
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
