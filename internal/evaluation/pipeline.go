package evaluation

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/spigell/eb1-screener/internal/ai"
	"github.com/spigell/eb1-screener/internal/extract"
	"github.com/spigell/eb1-screener/internal/logger"
	"github.com/spigell/eb1-screener/internal/prompt"
	"github.com/spigell/eb1-screener/internal/utils"
)

const defaultMaxLogLength = 200

var tracer = otel.Tracer("github.com/spigell/eb1-screener/internal/evaluation")

// Deps aggregates collaborators shared by every pipeline.
type Deps struct {
	Generator    ai.Generator
	Logger       *zap.Logger
	Recorder     Recorder
	MaxLogLength int
}

// Outcome is the result of one evaluation. Strategy is extract.StrategyNone
// when nothing could be recovered from Raw; Result then holds all defaults.
type Outcome[R any] struct {
	Result    R
	Strategy  extract.Strategy
	Raw       string
	Narrative string
}

// Pipeline runs validate, prompt, generate, extract and normalize for a
// single variant. It keeps no state between calls.
type Pipeline[R any] struct {
	variant   Variant[R]
	generator ai.Generator
	logger    *zap.Logger
	recorder  Recorder
	maxLogLen int
}

func NewPipeline[R any](v Variant[R], deps Deps) *Pipeline[R] {
	rec := deps.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	maxLogLen := deps.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Pipeline[R]{
		variant:   v,
		generator: deps.Generator,
		logger:    logger.WithFields(deps.Logger),
		recorder:  rec,
		maxLogLen: maxLogLen,
	}
}

func (p *Pipeline[R]) Name() string { return p.variant.Name }

func (p *Pipeline[R]) Description() string { return p.variant.Description }

func (p *Pipeline[R]) Requirements() Requirements { return p.variant.Requirements }

func (p *Pipeline[R]) Params() ai.GenerationParameters { return p.variant.Params }

// Evaluate fails only for rejected requests (ErrInvalidRequest) and failed
// generation calls (ErrGenerationFailed). Anything the model returns yields
// an Outcome.
func (p *Pipeline[R]) Evaluate(ctx context.Context, req Request) (*Outcome[R], error) {
	name := p.variant.Name

	ctx, span := tracer.Start(ctx, "evaluation."+name)
	defer span.End()

	log := logger.WithVariant(logger.FromContext(ctx, p.logger), name)

	if err := req.Validate(p.variant.Requirements); err != nil {
		p.recorder.ObserveOutcome(name, OutcomeRejected)
		span.SetStatus(codes.Error, "invalid request")
		log.Info("rejecting request", zap.Error(err))
		return nil, err
	}

	text := p.variant.Template.Build(prompt.Input{
		Resume:   req.Resume,
		Category: req.Category,
		Answers:  req.Answers,
	})
	p.recorder.ObservePrompt(name, text)

	provider := p.generator.Provider()
	log = logger.WithCommonFields(log, provider, p.variant.Params.Model)
	log.Debug("generate request",
		zap.Int("prompt_length", utf8.RuneCountInString(text)),
		zap.String("prompt_preview", utils.Preview(text, p.maxLogLen)),
	)

	start := time.Now()
	raw, err := p.generator.Generate(ctx, text, p.variant.Params)
	elapsed := time.Since(start)
	p.recorder.ObserveGeneration(name, provider, elapsed)
	if err != nil {
		p.recorder.ObserveOutcome(name, OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		log.Error("generation failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", name, ErrGenerationFailed, err)
	}

	log.Debug("generate response",
		zap.Duration("elapsed", elapsed),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.Preview(raw, p.maxLogLen)),
	)

	structured, narrative := raw, ""
	if p.variant.SplitNarrative {
		var found bool
		structured, narrative, found = extract.SplitNarrative(raw)
		if !found {
			log.Debug("narrative separator not found")
		}
	}

	res := extract.Extract(structured)
	p.recorder.ObserveExtraction(name, res.Strategy)
	span.SetAttributes(
		attribute.String("eval.variant", name),
		attribute.String("eval.strategy", string(res.Strategy)),
		attribute.String("ai.provider", provider),
	)

	outcome := OutcomeOK
	if !res.Candidate.Present() {
		outcome = OutcomeNoCandidate
		log.Warn("no structured data in model output, using defaults",
			zap.String("response_preview", utils.Preview(raw, p.maxLogLen)),
		)
	}
	p.recorder.ObserveOutcome(name, outcome)

	log.Info("evaluation finished",
		zap.String("strategy", string(res.Strategy)),
		zap.Duration("elapsed", elapsed),
	)

	return &Outcome[R]{
		Result:    p.variant.Normalize(res.Candidate, narrative),
		Strategy:  res.Strategy,
		Raw:       raw,
		Narrative: narrative,
	}, nil
}

// Report is the variant-agnostic form of an Outcome.
type Report struct {
	Variant  string           `json:"variant"`
	Result   any              `json:"result"`
	Strategy extract.Strategy `json:"strategy"`
	Raw      string           `json:"raw"`
}

// Flow is a Pipeline with its result type erased, so transports can hold
// every variant in one Registry.
type Flow interface {
	Name() string
	Description() string
	Requirements() Requirements
	Run(ctx context.Context, req Request) (*Report, error)
}

func (p *Pipeline[R]) Run(ctx context.Context, req Request) (*Report, error) {
	out, err := p.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Report{
		Variant:  p.variant.Name,
		Result:   out.Result,
		Strategy: out.Strategy,
		Raw:      out.Raw,
	}, nil
}
