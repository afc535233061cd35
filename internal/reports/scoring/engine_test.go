package scoring

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func baselineIntake() Intake {
	return Intake{
		Pages:        "1",
		Booking:      "none",
		Payments:     "none",
		Automation:   "none",
		Integrations: "none",
		Content:      "ready",
		Stakeholders: "1",
		Timeline:     "4+ weeks",
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	engine := New(DefaultRules())
	intake := Intake{
		Pages:        "4-5",
		Booking:      "unsure",
		Payments:     "system",
		Automation:   "basic",
		Integrations: "1-2",
		Content:      "partial",
		Stakeholders: "2-3",
		Timeline:     "2-3 weeks",
	}

	first, err := engine.Evaluate(intake)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Evaluate(intake)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical reports for identical input:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestEvaluate_TierAssignment(t *testing.T) {
	engine := New(DefaultRules())

	tests := []struct {
		name      string
		intake    Intake
		wantScore int
		wantTier  string
	}{
		{
			name:      "minimal project is Standard",
			intake:    baselineIntake(),
			wantScore: 5,
			wantTier:  TierStandard,
		},
		{
			name: "high score without system features stays Professional",
			intake: Intake{
				Pages:        "6-10",
				Booking:      "unsure",
				Payments:     "unsure",
				Automation:   "unsure",
				Integrations: "3+",
				Content:      "not-ready",
				Stakeholders: "4+",
				Timeline:     "under-14",
			},
			wantScore: 72,
			wantTier:  TierProfessional,
		},
		{
			name: "high score with two system features reaches Advanced",
			intake: Intake{
				Pages:        "6-10",
				Booking:      BookingBuiltin,
				Payments:     PaymentsSystem,
				Automation:   "none",
				Integrations: "3+",
				Content:      "not-ready",
				Stakeholders: "4+",
				Timeline:     "under-14",
			},
			wantScore: 86,
			wantTier:  TierAdvanced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := engine.Evaluate(tt.intake)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if report.Score != tt.wantScore {
				t.Errorf("expected score %d, got %d", tt.wantScore, report.Score)
			}
			if report.Tier != tt.wantTier {
				t.Errorf("expected tier %s, got %s", tt.wantTier, report.Tier)
			}
		})
	}
}

func TestEvaluate_ConfidenceDegradesNearBoundary(t *testing.T) {
	engine := New(DefaultRules())

	// Score 37: three points below the Professional boundary of 40.
	intake := Intake{
		Pages:        "4-5",
		Booking:      "external",
		Payments:     "link",
		Automation:   "basic",
		Integrations: "1-2",
		Content:      "ready",
		Stakeholders: "1",
		Timeline:     "4+ weeks",
	}

	report, err := engine.Evaluate(intake)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Score != 37 {
		t.Fatalf("expected score 37, got %d", report.Score)
	}
	if report.Confidence != ConfidenceMedium {
		t.Errorf("expected Medium confidence near boundary, got %s", report.Confidence)
	}

	far, err := engine.Evaluate(baselineIntake())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if far.Confidence != ConfidenceHigh {
		t.Errorf("expected High confidence far from boundaries, got %s", far.Confidence)
	}
}

func TestEvaluate_UnsureRegistersRiskAndBuffer(t *testing.T) {
	engine := New(DefaultRules())

	intake := baselineIntake()
	intake.Booking = AnswerUnsure
	intake.Payments = AnswerUnsure

	report, err := engine.Evaluate(intake)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Pricing.Buffers) != 2 {
		t.Fatalf("expected 2 pricing buffers, got %d", len(report.Pricing.Buffers))
	}
	if len(report.Risks) != 2 {
		t.Fatalf("expected 2 risk flags, got %d", len(report.Risks))
	}

	base := DefaultRules().Pricing.Standard.Target
	wantTarget := base + 2*DefaultRules().BufferStep
	if report.Pricing.Target != wantTarget {
		t.Errorf("expected target %d with buffers applied, got %d", wantTarget, report.Pricing.Target)
	}
}

func TestEvaluate_InvalidIntake(t *testing.T) {
	engine := New(DefaultRules())

	intake := baselineIntake()
	intake.Pages = "999"
	intake.Timeline = "yesterday"

	if _, err := engine.Evaluate(intake); err == nil {
		t.Fatal("expected validation error for invalid intake values")
	}
}

func TestLoadRules_FileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := []byte("tiers:\n  professional_min: 30\n  advanced_min: 70\nbuffer_step: 500\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rules.Tiers.ProfessionalMin != 30 || rules.Tiers.AdvancedMin != 70 {
		t.Errorf("expected thresholds 30/70, got %d/%d", rules.Tiers.ProfessionalMin, rules.Tiers.AdvancedMin)
	}
	if rules.BufferStep != 500 {
		t.Errorf("expected buffer step 500, got %d", rules.BufferStep)
	}
	// Untouched values keep their defaults.
	if rules.Pricing.Professional.Target != 4500 {
		t.Errorf("expected default professional target 4500, got %d", rules.Pricing.Professional.Target)
	}
}

func TestLoadRules_RejectsInvalidThresholds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := []byte("tiers:\n  professional_min: 80\n  advanced_min: 40\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected error for inverted tier thresholds")
	}
}
