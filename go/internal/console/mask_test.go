package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash0238/quizmaster/go/internal/models"
)

func TestMaskStoreApply(t *testing.T) {
	m := NewMaskStore()
	m.Reset("q1")

	changed, err := m.Apply("q1", []int{1, 3})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{1, 3}, m.Masked())
	assert.True(t, m.IsMasked(1))
	assert.False(t, m.IsMasked(0))

	// Re-applying is a no-op
	changed, err = m.Apply("q1", []int{3, 1})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []int{1, 3}, m.Masked())

	// A different set replaces the old one
	changed, err = m.Apply("q1", []int{0, 2})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{0, 2}, m.Masked())
}

func TestMaskStoreRejectsOtherQuestions(t *testing.T) {
	m := NewMaskStore()
	m.Reset("q2")
	_, err := m.Apply("q2", []int{0})
	require.NoError(t, err)

	for _, qid := range []string{"q1", ""} {
		changed, err := m.Apply(models.ID(qid), []int{1, 2})
		assert.ErrorIs(t, err, ErrStaleEvent)
		assert.False(t, changed)
		assert.Equal(t, []int{0}, m.Masked())
	}
}

func TestMaskStoreReset(t *testing.T) {
	m := NewMaskStore()
	m.Reset("q1")
	_, err := m.Apply("q1", []int{1, 2})
	require.NoError(t, err)

	m.Reset("q2")
	assert.Empty(t, m.Masked())

	_, err = m.Apply("q1", []int{1, 2})
	assert.ErrorIs(t, err, ErrStaleEvent)

	_, err = m.Apply("q2", []int{3})
	require.NoError(t, err)
	m.Clear()
	assert.False(t, m.IsMasked(3))
}

func TestValidateMask(t *testing.T) {
	assert.NoError(t, validateMask([]int{1, 3}, 4))
	assert.NoError(t, validateMask([]int{0}, 2))
	assert.NoError(t, validateMask([]int{1, 1, 3}, 4))

	for name, tc := range map[string]struct {
		indices []int
		options int
	}{
		"empty":            {nil, 4},
		"negative":         {[]int{-1}, 4},
		"past options":     {[]int{2}, 2},
		"past slots":       {[]int{4}, 4},
		"repeats hide all": {[]int{0, 0, 1}, 2},
		"all options":      {[]int{0, 1}, 2},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, validateMask(tc.indices, tc.options), ErrMalformedPayload)
		})
	}
}
