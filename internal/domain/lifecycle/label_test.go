package lifecycle

import (
	"errors"
	"strings"
	"testing"
)

func TestLabel_IsValid(t *testing.T) {
	tests := []struct {
		label    Label
		expected bool
	}{
		{LabelPublic, true},
		{LabelInternal, true},
		{LabelConfidential, true},
		{LabelRestricted, true},
		{LabelProprietary, true},
		{Label("SECRET"), false},
		{Label(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			if got := tt.label.IsValid(); got != tt.expected {
				t.Errorf("Label.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	longReason := strings.Repeat("sensitive content ", 3)

	tests := []struct {
		name     string
		prior    Label
		supplied Label
		reason   string
		wantErr  bool
		want     Label
		changed  bool
	}{
		{
			name:     "new document accepts any valid label",
			prior:    "",
			supplied: LabelConfidential,
			want:     LabelConfidential,
		},
		{
			name:     "confirmation needs no reason",
			prior:    LabelInternal,
			supplied: LabelInternal,
			want:     LabelInternal,
		},
		{
			name:     "change with long reason succeeds",
			prior:    LabelInternal,
			supplied: LabelProprietary,
			reason:   longReason,
			want:     LabelProprietary,
			changed:  true,
		},
		{
			name:     "change with short reason fails",
			prior:    LabelInternal,
			supplied: LabelProprietary,
			reason:   "short",
			wantErr:  true,
		},
		{
			name:     "change with whitespace-padded short reason fails",
			prior:    LabelPublic,
			supplied: LabelRestricted,
			reason:   "  padded       out   ",
			wantErr:  true,
		},
		{
			name:     "missing label fails",
			prior:    LabelInternal,
			supplied: "",
			wantErr:  true,
		},
		{
			name:     "unknown label fails",
			prior:    "",
			supplied: Label("TOP_SECRET"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.prior, tt.supplied, tt.reason)
			if tt.wantErr {
				if !errors.Is(err, ErrMissingRequiredField) {
					t.Fatalf("Classify() error = %v, want ErrMissingRequiredField", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() unexpected error = %v", err)
			}
			if got.Label != tt.want {
				t.Errorf("Classify() label = %v, want %v", got.Label, tt.want)
			}
			if got.Reclassified != tt.changed {
				t.Errorf("Classify() reclassified = %v, want %v", got.Reclassified, tt.changed)
			}
		})
	}
}

func TestClassify_ExactBoundary(t *testing.T) {
	reason := strings.Repeat("x", MinChangeReasonLength)
	got, err := Classify(LabelInternal, LabelRestricted, reason)
	if err != nil {
		t.Fatalf("Classify() with %d-character reason should succeed, got %v", MinChangeReasonLength, err)
	}
	if got.ChangeReason != reason {
		t.Errorf("Classify() reason = %q, want stored verbatim", got.ChangeReason)
	}

	if _, err := Classify(LabelInternal, LabelRestricted, strings.Repeat("x", MinChangeReasonLength-1)); err == nil {
		t.Error("Classify() with one character below the minimum should fail")
	}
}
