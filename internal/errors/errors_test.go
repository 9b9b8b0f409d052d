package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "plain error", err: fmt.Errorf("boom"), want: KindNone},
		{name: "direct", err: New(KindRead, "read", fs.ErrPermission), want: KindRead},
		{name: "wrapped", err: fmt.Errorf("serve: %w", New(KindWrite, "write", nil)), want: KindWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := New(KindResolution, "resolve", fs.ErrNotExist)
	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is(%v, fs.ErrNotExist) = false, want true", err)
	}
	if got, want := err.Error(), "resolve: resolution failure: file does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorWithoutUnderlying(t *testing.T) {
	err := New(KindParse, "parse", nil)
	if got, want := err.Error(), "parse: parse failure"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
