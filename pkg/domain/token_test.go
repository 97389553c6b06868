package domain

import (
	"testing"
)

func TestChoiceToken_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		token ChoiceToken
		wire  string
	}{
		{
			name:  "Simple",
			token: ChoiceToken{ReaderID: 42, Index: 0, Target: "Start"},
			wire:  "42-0|Start",
		},
		{
			name:  "Target With Separators",
			token: ChoiceToken{ReaderID: 7, Index: 3, Target: "A|B-C"},
			wire:  "7-3|A|B-C",
		},
		{
			name:  "Negative Reader",
			token: ChoiceToken{ReaderID: -9, Index: 1, Target: "Cave"},
			wire:  "-9-1|Cave",
		},
		{
			name:  "Empty Target",
			token: ChoiceToken{ReaderID: 1, Index: 2, Target: ""},
			wire:  "1-2|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.String(); got != tt.wire {
				t.Fatalf("String() = %q, want %q", got, tt.wire)
			}
			parsed, err := ParseChoiceToken(tt.wire)
			if err != nil {
				t.Fatalf("ParseChoiceToken(%q) error: %v", tt.wire, err)
			}
			if parsed != tt.token {
				t.Errorf("ParseChoiceToken(%q) = %+v, want %+v", tt.wire, parsed, tt.token)
			}
		})
	}
}

func TestParseChoiceToken_Invalid(t *testing.T) {
	for _, wire := range []string{
		"",
		"no-separator",
		"42|Start",
		"abc-0|Start",
		"42-x|Start",
		"42--1|Start",
	} {
		if _, err := ParseChoiceToken(wire); err == nil {
			t.Errorf("ParseChoiceToken(%q) expected error", wire)
		}
	}
}
