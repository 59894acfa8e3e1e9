package evaluation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidRequest marks requests rejected before any generation call.
	ErrInvalidRequest = errors.New("invalid evaluation request")
	// ErrGenerationFailed marks requests whose generation call failed.
	ErrGenerationFailed = errors.New("evaluation generation failed")
)

// Request is the immutable input of one evaluation.
type Request struct {
	Resume   string            `json:"resume,omitempty" yaml:"resume" mapstructure:"resume" validate:"max=100000"`
	Category string            `json:"category,omitempty" yaml:"category" mapstructure:"category" validate:"omitempty,oneof=EB-1A EB-1B EB-1C"`
	Answers  map[string]string `json:"answers,omitempty" yaml:"answers" mapstructure:"answers" validate:"omitempty,max=50,dive,keys,max=64,endkeys,max=4000"`
}

// Requirements lists the request fields a variant cannot run without.
type Requirements struct {
	Answers bool `json:"answers"`
	Resume  bool `json:"resume"`
}

// RequestError describes a rejected request. Fields maps json field names to
// the failed rule.
type RequestError struct {
	Fields map[string]string
}

func (e *RequestError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRequest, strings.Join(parts, ", "))
}

func (e *RequestError) Unwrap() error { return ErrInvalidRequest }

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New(validator.WithRequiredStructEnabled())
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return vld
}

// Validate checks req against the shape rules and reqs. Blank strings count as
// missing.
func (req Request) Validate(reqs Requirements) error {
	fields := make(map[string]string)
	req.Category = strings.TrimSpace(req.Category)

	if err := getValidator().Struct(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		for _, fe := range ve {
			fields[fieldName(fe)] = fe.Tag()
		}
	}

	if reqs.Answers && !req.HasAnswers() {
		fields["answers"] = "required"
	}
	if reqs.Resume && strings.TrimSpace(req.Resume) == "" {
		fields["resume"] = "required"
	}

	if len(fields) > 0 {
		return &RequestError{Fields: fields}
	}
	return nil
}

// HasAnswers reports whether at least one answer is non-blank.
func (req Request) HasAnswers() bool {
	for _, v := range req.Answers {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// fieldName collapses map element errors (answers[awards]) onto their field.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	return name
}
