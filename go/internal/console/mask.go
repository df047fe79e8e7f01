package console

import (
	"fmt"
	"slices"

	"github.com/yash0238/quizmaster/go/internal/models"
)

// MaskStore holds the options eliminated for the current question only
type MaskStore struct {
	questionID models.ID
	masked     map[int]struct{}
}

// NewMaskStore creates an empty store scoped to no question
func NewMaskStore() *MaskStore {
	return &MaskStore{masked: make(map[int]struct{})}
}

// Reset clears the masks and scopes the store to questionID
func (m *MaskStore) Reset(questionID models.ID) {
	m.questionID = questionID
	m.Clear()
}

// Clear removes every mask
func (m *MaskStore) Clear() {
	clear(m.masked)
}

// Apply replaces the masked set for questionID. A question id other than
// the scoped one is rejected with ErrStaleEvent and changes nothing. The
// returned flag reports whether the visible set changed.
func (m *MaskStore) Apply(questionID models.ID, indices []int) (bool, error) {
	if questionID == "" || questionID != m.questionID {
		return false, fmt.Errorf("%w: mask for question %q, current question %q", ErrStaleEvent, questionID, m.questionID)
	}

	next := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		next[i] = struct{}{}
	}
	if sameSet(m.masked, next) {
		return false, nil
	}

	m.masked = next
	return true, nil
}

// IsMasked reports whether option i is hidden
func (m *MaskStore) IsMasked(i int) bool {
	_, ok := m.masked[i]
	return ok
}

// Masked returns the hidden indices in ascending order
func (m *MaskStore) Masked() []int {
	out := make([]int, 0, len(m.masked))
	for i := range m.masked {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// validateMask checks that indices name existing options and leave at least
// one visible. Repeated indices count once.
func validateMask(indices []int, optionCount int) error {
	if len(indices) == 0 {
		return fmt.Errorf("%w: no masked options", ErrMalformedPayload)
	}
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= optionCount || i >= models.MaxOptions {
			return fmt.Errorf("%w: option index %d out of range", ErrMalformedPayload, i)
		}
		seen[i] = struct{}{}
	}
	if len(seen) >= optionCount {
		return fmt.Errorf("%w: mask would hide every option", ErrMalformedPayload)
	}
	return nil
}

func sameSet(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
