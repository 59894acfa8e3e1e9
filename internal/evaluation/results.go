package evaluation

import (
	"strings"

	"github.com/spigell/eb1-screener/internal/extract"
)

const (
	// DefaultCategory is reported when the model recommends nothing usable.
	DefaultCategory = "N/A"
	// DefaultText replaces missing free-text fields.
	DefaultText = "Not provided"
	// DefaultNarrative replaces a missing detailed narrative.
	DefaultNarrative = "No narrative was provided."
)

var (
	assessedStatuses = []Status{StatusMet, StatusPartiallyMet, StatusNotMet}
	allStatuses      = []Status{StatusMet, StatusPartiallyMet, StatusNotMet, StatusNA}
)

// EligibilityResult is the general eligibility report.
type EligibilityResult struct {
	Score             float64             `json:"score"`
	Category          string              `json:"category"`
	CriteriaBreakdown []CriterionEvidence `json:"criteriaBreakdown"`
	Strengths         []string            `json:"strengths"`
	Recommendations   []string            `json:"recommendations"`
	Summary           string              `json:"summary"`
}

type CriterionEvidence struct {
	Criterion string `json:"criterion"`
	Status    Status `json:"status"`
	Evidence  string `json:"evidence"`
}

// DetailedResult is the criterion-by-criterion review with a trailing narrative.
type DetailedResult struct {
	Score     float64               `json:"score"`
	Category  string                `json:"category"`
	Criteria  []CriterionAssessment `json:"criteria"`
	NextSteps []string              `json:"nextSteps"`
	Narrative string                `json:"narrative"`
}

type CriterionAssessment struct {
	Criterion     string  `json:"criterion"`
	Status        Status  `json:"status"`
	Confidence    float64 `json:"confidence"`
	Justification string  `json:"justification"`
}

// ResumeResult is the resume-only analysis.
type ResumeResult struct {
	Score           float64           `json:"score"`
	Category        string            `json:"category"`
	Criteria        []CriterionStatus `json:"criteria"`
	Highlights      []string          `json:"highlights"`
	MissingEvidence []string          `json:"missingEvidence"`
	Summary         string            `json:"summary"`
}

type CriterionStatus struct {
	Criterion string `json:"criterion"`
	Status    Status `json:"status"`
}

// object returns the candidate as an object; anything else reads as empty.
func object(c extract.Candidate) map[string]any {
	if obj, ok := c.Object(); ok {
		return obj
	}
	return map[string]any{}
}

// NormalizeEligibility never fails: every missing or mistyped field takes its default.
func NormalizeEligibility(c extract.Candidate, _ string) EligibilityResult {
	obj := object(c)

	items := objectList(obj, "criteriaBreakdown")
	breakdown := make([]CriterionEvidence, 0, len(items))
	for _, item := range items {
		breakdown = append(breakdown, CriterionEvidence{
			Criterion: text(item, "criterion", DefaultText),
			Status:    status(item, "status", assessedStatuses, StatusNotMet),
			Evidence:  text(item, "evidence", DefaultText),
		})
	}

	return EligibilityResult{
		Score:             number(obj, "score", 0),
		Category:          text(obj, "category", DefaultCategory),
		CriteriaBreakdown: breakdown,
		Strengths:         textList(obj, "strengths"),
		Recommendations:   textList(obj, "recommendations"),
		Summary:           text(obj, "summary", DefaultText),
	}
}

// NormalizeDetailed prefers the narrative found after the separator line over
// a "narrative" key inside the structured section. Either is kept verbatim.
func NormalizeDetailed(c extract.Candidate, narrative string) DetailedResult {
	obj := object(c)

	items := objectList(obj, "criteria")
	criteria := make([]CriterionAssessment, 0, len(items))
	for _, item := range items {
		criteria = append(criteria, CriterionAssessment{
			Criterion:     text(item, "criterion", DefaultText),
			Status:        status(item, "status", allStatuses, StatusNA),
			Confidence:    number(item, "confidence", 0),
			Justification: text(item, "justification", DefaultText),
		})
	}

	if strings.TrimSpace(narrative) == "" {
		narrative = verbatim(obj, "narrative", DefaultNarrative)
	}

	return DetailedResult{
		Score:     number(obj, "score", 0),
		Category:  text(obj, "category", DefaultCategory),
		Criteria:  criteria,
		NextSteps: textList(obj, "nextSteps"),
		Narrative: narrative,
	}
}

func NormalizeResume(c extract.Candidate, _ string) ResumeResult {
	obj := object(c)

	items := objectList(obj, "criteria")
	criteria := make([]CriterionStatus, 0, len(items))
	for _, item := range items {
		criteria = append(criteria, CriterionStatus{
			Criterion: text(item, "criterion", DefaultText),
			Status:    status(item, "status", assessedStatuses, StatusNotMet),
		})
	}

	return ResumeResult{
		Score:           number(obj, "score", 0),
		Category:        text(obj, "category", DefaultCategory),
		Criteria:        criteria,
		Highlights:      textList(obj, "highlights"),
		MissingEvidence: textList(obj, "missingEvidence"),
		Summary:         text(obj, "summary", DefaultText),
	}
}
