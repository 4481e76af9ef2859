package recovery

import "testing"

func TestTokenInput_InsertAdvancesFocus(t *testing.T) {
	in := NewTokenInput()
	if in.Focus() != 0 {
		t.Fatalf("initial focus = %d; want 0", in.Focus())
	}
	in.Insert('1')
	in.Insert('2')
	if in.Focus() != 2 {
		t.Errorf("focus after two inserts = %d; want 2", in.Focus())
	}
	if in.Complete() {
		t.Error("buffer reported complete with empty slots")
	}
}

func TestTokenInput_DeleteMovesBack(t *testing.T) {
	in := NewTokenInput()
	in.Insert('1')
	in.Insert('2')
	in.Delete()
	if in.Focus() != 1 {
		t.Errorf("focus after delete = %d; want 1", in.Focus())
	}
	if got := in.String(); got != "1" {
		t.Errorf("String = %q; want 1", got)
	}
	// Deleting an empty buffer is a no-op.
	in.Delete()
	in.Delete()
	if in.Focus() != 0 {
		t.Errorf("focus = %d; want 0", in.Focus())
	}
}

func TestTokenInput_CompleteAndSubmit(t *testing.T) {
	in := NewTokenInput()
	for _, d := range []byte("123456") {
		in.Insert(d)
	}
	if !in.Complete() {
		t.Fatal("six digits entered but not complete")
	}
	if got := in.String(); got != "123456" {
		t.Errorf("String = %q; want 123456", got)
	}
	// Extra input past the last slot is ignored.
	in.Insert('7')
	if got := in.String(); got != "123456" {
		t.Errorf("String after overflow insert = %q; want 123456", got)
	}
}

func TestTokenInput_IgnoresNonDigits(t *testing.T) {
	in := NewTokenInput()
	in.Insert('a')
	in.Insert(' ')
	if in.Focus() != 0 {
		t.Errorf("focus = %d after non-digit input; want 0", in.Focus())
	}
}

func TestTokenInput_Reset(t *testing.T) {
	in := NewTokenInput()
	for _, d := range []byte("987654") {
		in.Insert(d)
	}
	in.Reset()
	if in.Focus() != 0 || in.String() != "" || in.Complete() {
		t.Errorf("Reset left state: focus=%d string=%q", in.Focus(), in.String())
	}
}
