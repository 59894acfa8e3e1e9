package evaluation

import (
	"time"

	"github.com/spigell/eb1-screener/internal/extract"
)

// Outcome labels reported to a Recorder.
const (
	OutcomeOK          = "ok"
	OutcomeNoCandidate = "no_candidate"
	OutcomeRejected    = "rejected"
	OutcomeFailed      = "failed"
)

// Recorder receives pipeline measurements.
type Recorder interface {
	ObservePrompt(variant, prompt string)
	ObserveGeneration(variant, provider string, elapsed time.Duration)
	ObserveExtraction(variant string, strategy extract.Strategy)
	ObserveOutcome(variant, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObservePrompt(string, string) {}
func (nopRecorder) ObserveGeneration(string, string, time.Duration) {}
func (nopRecorder) ObserveExtraction(string, extract.Strategy) {}
func (nopRecorder) ObserveOutcome(string, string) {}
