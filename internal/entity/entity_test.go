package entity_test

import (
	"slices"
	"testing"

	"hotsoonripper/internal/entity"
)

func TestParseTargets(t *testing.T) {
	tests := []struct {
		name           string
		tokens         []string
		wantPlain      []string
		wantChallenges []string
	}{
		{
			name:           "mixed",
			tokens:         []string{"a", "#b", "c"},
			wantPlain:      []string{"a", "c"},
			wantChallenges: []string{"b"},
		},
		{
			name:      "blank tokens dropped",
			tokens:    []string{"", "  ", "x", "\t"},
			wantPlain: []string{"x"},
		},
		{
			name:           "only challenges",
			tokens:         []string{"#1", "#2"},
			wantChallenges: []string{"1", "2"},
		},
		{
			name:           "marker stripped once",
			tokens:         []string{"##x"},
			wantChallenges: []string{"#x"},
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain, challenges := entity.ParseTargets(tt.tokens)

			if !slices.Equal(plain, tt.wantPlain) {
				t.Errorf("plain = %q, want %q", plain, tt.wantPlain)
			}

			if !slices.Equal(challenges, tt.wantChallenges) {
				t.Errorf("challenges = %q, want %q", challenges, tt.wantChallenges)
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	target, ok := entity.ParseTarget(" #b ")
	if !ok {
		t.Fatal("expected token to parse")
	}

	if target.Kind != entity.TargetKindChallenge || target.Value != "b" || target.Raw != "#b" {
		t.Errorf("unexpected target: %+v", target)
	}

	if _, ok := entity.ParseTarget("   "); ok {
		t.Error("expected blank token to be rejected")
	}
}
