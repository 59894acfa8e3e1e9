package evaluation

import (
	"github.com/spigell/eb1-screener/internal/ai"
	"github.com/spigell/eb1-screener/internal/extract"
	"github.com/spigell/eb1-screener/internal/prompt"
)

const (
	VariantEligibility = "eligibility"
	VariantDetailed    = "detailed"
	VariantResume      = "resume"
)

// Variant describes one evaluation flavor. R is the result schema it
// normalizes into.
type Variant[R any] struct {
	Name        string
	Description string
	Template    *prompt.Builder
	Params      ai.GenerationParameters
	// Requirements are checked before any generation call.
	Requirements Requirements
	// SplitNarrative extracts only the text before the first "---" line and
	// hands the rest to Normalize verbatim.
	SplitNarrative bool
	Normalize      func(c extract.Candidate, narrative string) R
}

func EligibilityVariant() (Variant[EligibilityResult], error) {
	tmpl, err := prompt.New(VariantEligibility)
	if err != nil {
		return Variant[EligibilityResult]{}, err
	}
	return Variant[EligibilityResult]{
		Name:         VariantEligibility,
		Description:  "General EB-1 eligibility score with per-criterion evidence",
		Template:     tmpl,
		Params:       ai.GenerationParameters{Temperature: 0.2, MaxOutputTokens: 2048},
		Requirements: Requirements{Answers: true},
		Normalize:    NormalizeEligibility,
	}, nil
}

func DetailedVariant() (Variant[DetailedResult], error) {
	tmpl, err := prompt.New(VariantDetailed)
	if err != nil {
		return Variant[DetailedResult]{}, err
	}
	return Variant[DetailedResult]{
		Name:           VariantDetailed,
		Description:    "Criterion-by-criterion review with confidence and a narrative",
		Template:       tmpl,
		Params:         ai.GenerationParameters{Temperature: 0.1, MaxOutputTokens: 4096},
		Requirements:   Requirements{Answers: true},
		SplitNarrative: true,
		Normalize:      NormalizeDetailed,
	}, nil
}

func ResumeVariant() (Variant[ResumeResult], error) {
	tmpl, err := prompt.New(VariantResume)
	if err != nil {
		return Variant[ResumeResult]{}, err
	}
	return Variant[ResumeResult]{
		Name:         VariantResume,
		Description:  "Resume-only analysis of EB-1 evidence",
		Template:     tmpl,
		Params:       ai.GenerationParameters{Temperature: 0.3, MaxOutputTokens: 2048},
		Requirements: Requirements{Resume: true},
		Normalize:    NormalizeResume,
	}, nil
}
