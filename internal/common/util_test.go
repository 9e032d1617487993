package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestBearerValue(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"plain", "abc", "Bearer abc"},
		{"trimmed", "  abc\n", "Bearer abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BearerValue(tt.token); got != tt.want {
				t.Fatalf("BearerValue(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("fetch identity: %w", ErrUnauthorized)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected wrapped error to match ErrUnauthorized")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("ErrUnauthorized must not match ErrUnavailable")
	}
}
