package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/eb1-screener/internal/ai"
)

func TestNewDefaultRegistry(t *testing.T) {
	t.Parallel()

	reg, err := NewDefaultRegistry(Deps{Generator: &stubGenerator{}}, map[string]ai.ParameterOverride{
		VariantDetailed: {Model: "claude-opus-4-1", MaxOutputTokens: 8192},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{VariantEligibility, VariantDetailed, VariantResume}, reg.Names())
	assert.Len(t, reg.Flows(), 3)

	flow, ok := reg.Get(VariantDetailed)
	require.True(t, ok)
	detailed, ok := flow.(*Pipeline[DetailedResult])
	require.True(t, ok)
	assert.Equal(t, ai.GenerationParameters{Model: "claude-opus-4-1", Temperature: 0.1, MaxOutputTokens: 8192}, detailed.Params())
	assert.Equal(t, Requirements{Answers: true}, flow.Requirements())

	resume, ok := reg.Get(VariantResume)
	require.True(t, ok)
	assert.Equal(t, Requirements{Resume: true}, resume.Requirements())

	_, ok = reg.Get("unknown")
	assert.False(t, ok)
}

func TestNewDefaultRegistryRejectsUnknownOverride(t *testing.T) {
	t.Parallel()

	temperature := float32(0.5)
	_, err := NewDefaultRegistry(Deps{Generator: &stubGenerator{}}, map[string]ai.ParameterOverride{
		"eligibilty": {Temperature: &temperature},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eligibilty")
}

func TestNewDefaultRegistryAppliesZeroTemperature(t *testing.T) {
	t.Parallel()

	zero := float32(0)
	reg, err := NewDefaultRegistry(Deps{Generator: &stubGenerator{}}, map[string]ai.ParameterOverride{
		VariantResume: {Temperature: &zero},
	})
	require.NoError(t, err)

	flow, ok := reg.Get(VariantResume)
	require.True(t, ok)
	resume, ok := flow.(*Pipeline[ResumeResult])
	require.True(t, ok)
	assert.Equal(t, float32(0), resume.Params().Temperature)
	assert.Equal(t, int32(2048), resume.Params().MaxOutputTokens)
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	v, err := EligibilityVariant()
	require.NoError(t, err)

	deps := Deps{Generator: &stubGenerator{}}
	_, err = NewRegistry(NewPipeline(v, deps), NewPipeline(v, deps))
	require.Error(t, err)
}
