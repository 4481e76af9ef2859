package recovery

import "strings"

// TokenLength is the number of digits in a one-time token.
const TokenLength = 6

// TokenInput is the six-slot entry buffer for the one-time token.
// Inserting a digit fills the focused slot and advances the focus;
// deleting clears backward. The token is complete when every slot is
// filled, and is discarded (Reset) on successful validation or when
// the user navigates away.
type TokenInput struct {
	slots [TokenLength]byte
	focus int
}

// NewTokenInput returns an empty buffer focused on the first slot.
func NewTokenInput() *TokenInput {
	return &TokenInput{}
}

// Insert writes digit d ('0'–'9') into the focused slot and advances
// the focus. Non-digit input and input past the last slot are
// ignored.
func (t *TokenInput) Insert(d byte) {
	if d < '0' || d > '9' {
		return
	}
	if t.focus >= TokenLength {
		return
	}
	t.slots[t.focus] = d
	t.focus++
}

// Delete clears the slot behind the focus and moves the focus back.
// Deleting from an empty buffer is a no-op.
func (t *TokenInput) Delete() {
	if t.focus == 0 {
		return
	}
	t.focus--
	t.slots[t.focus] = 0
}

// Focus returns the index of the slot awaiting input.
func (t *TokenInput) Focus() int { return t.focus }

// Complete reports whether every slot is filled.
func (t *TokenInput) Complete() bool {
	for _, s := range t.slots {
		if s == 0 {
			return false
		}
	}
	return true
}

// String concatenates the filled slots for submission.
func (t *TokenInput) String() string {
	var b strings.Builder
	for _, s := range t.slots {
		if s != 0 {
			b.WriteByte(s)
		}
	}
	return b.String()
}

// Reset discards the buffer contents.
func (t *TokenInput) Reset() {
	*t = TokenInput{}
}
