package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("invalid key"), false},
		{"transient", NewTransientError(errors.New("429"), 429), true},
		{"wrapped transient", eris.Wrap(NewTransientError(errors.New("503"), 503), "amap"), true},
		{"fmt wrapped", fmt.Errorf("call: %w", NewTransientError(errors.New("x"), 0)), true},
		{"reset", errors.New("read tcp: connection reset by peer"), true},
		{"timeout text", errors.New("dial tcp: i/o timeout"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	te := NewTransientError(inner, 503)
	if !errors.Is(te, inner) {
		t.Error("expected errors.Is to find inner error")
	}
	if te.Error() != "inner" {
		t.Errorf("unexpected message %q", te.Error())
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be permanent", code)
		}
	}
}
