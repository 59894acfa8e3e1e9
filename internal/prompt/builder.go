// Package prompt renders evaluation requests into model prompts.
package prompt

import (
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

//go:embed templates/*.md
var templates embed.FS

const (
	// NotProvided replaces a blank resume or a missing answer.
	NotProvided = "Not provided"
	// NotSpecified replaces a missing category hint.
	NotSpecified = "Not specified"
)

const (
	placeholderCategory = "{{CATEGORY}}"
	placeholderResume   = "{{RESUME}}"
	placeholderAnswers  = "{{ANSWERS}}"
	placeholderCriteria = "{{CRITERIA}}"
)

// Input is the data a prompt is rendered from.
type Input struct {
	Resume   string
	Category string
	Answers  map[string]string
}

// Builder renders prompts for a single template.
type Builder struct {
	name      string
	template  string
	questions []Question
	criteria  []string
}

// New loads the embedded template templates/<name>.md.
func New(name string) (*Builder, error) {
	body, err := templates.ReadFile("templates/" + name + ".md")
	if err != nil {
		return nil, fmt.Errorf("loading prompt template %q: %w", name, err)
	}
	return NewFromText(name, string(body)), nil
}

// NewFromText builds a Builder from an in-memory template.
func NewFromText(name, template string) *Builder {
	return &Builder{
		name:      name,
		template:  template,
		questions: questionnaire,
		criteria:  criteria,
	}
}

func (b *Builder) Name() string { return b.name }

// Build renders the template. The result depends only on in and the template.
func (b *Builder) Build(in Input) string {
	r := strings.NewReplacer(
		placeholderCategory, category(in.Category),
		placeholderResume, resume(in.Resume),
		placeholderAnswers, b.answers(in.Answers),
		placeholderCriteria, b.criteriaList(),
	)
	return r.Replace(b.template)
}

func category(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return NotSpecified
	}
	return c
}

func resume(r string) string {
	r = strings.TrimSpace(r)
	if r == "" {
		return NotProvided
	}
	return r
}

// answers renders declared questions first, in questionnaire order, then any
// undeclared keys sorted by name.
func (b *Builder) answers(answers map[string]string) string {
	lines := make([]string, 0, len(b.questions)+len(answers))
	declared := make(map[string]struct{}, len(b.questions))

	for _, q := range b.questions {
		declared[q.ID] = struct{}{}
		lines = append(lines, q.ID+": "+answerValue(answers[q.ID]))
	}

	extra := make([]string, 0)
	for key := range answers {
		if _, ok := declared[key]; ok || strings.TrimSpace(key) == "" {
			continue
		}
		extra = append(extra, key)
	}
	sort.Strings(extra)

	for _, key := range extra {
		lines = append(lines, key+": "+answerValue(answers[key]))
	}

	return strings.Join(lines, "\n")
}

// answerValue keeps each answer on a single line.
func answerValue(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if v == "" {
		return NotProvided
	}
	return v
}

func (b *Builder) criteriaList() string {
	var sb strings.Builder
	for i, c := range b.criteria {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(c)
	}
	return sb.String()
}
