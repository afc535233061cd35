package scoring

import "fmt"

// Pricing is the price guidance attached to a report.
type Pricing struct {
	Target  int64    `json:"target"`
	Minimum int64    `json:"minimum"`
	Buffers []string `json:"buffers"`
}

// Pitch is the sales guidance derived from the intake.
type Pitch struct {
	Recommend  string   `json:"recommend"`
	Emphasize  []string `json:"emphasize"`
	Objections []string `json:"objections"`
}

// Report is the full evaluation result. Immutable once produced.
type Report struct {
	Score      int      `json:"score"`
	Tier       string   `json:"tier"`
	Confidence string   `json:"confidence"`
	Summary    string   `json:"summary"`
	Pricing    Pricing  `json:"pricing"`
	Risks      []string `json:"risks"`
	Pitch      Pitch    `json:"pitch"`
}

// Engine evaluates intakes against a rule set.
type Engine struct {
	rules Rules
}

// New creates an engine with the given rules.
func New(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the engine's active rule set.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Point tables per dimension. An unsure answer contributes a small positive
// delta; its risk and pricing consequences are handled separately so that
// ambiguity is priced in rather than ignored.
var (
	pagesPoints        = map[string]int{"1": 5, "2-3": 10, "4-5": 15, "6-10": 20}
	bookingPoints      = map[string]int{"none": 0, "external": 5, BookingBuiltin: 12, AnswerUnsure: 4}
	paymentsPoints     = map[string]int{"none": 0, "link": 5, PaymentsSystem: 14, AnswerUnsure: 4}
	automationPoints   = map[string]int{"none": 0, "basic": 6, AutomationAdvanced: 12, AnswerUnsure: 4}
	integrationsPoints = map[string]int{"none": 0, "1-2": 6, "3+": 12}
	contentPoints      = map[string]int{"ready": 0, "partial": 5, "not-ready": 10}
	stakeholderPoints  = map[string]int{"1": 0, "2-3": 4, "4+": 8}
	timelinePoints     = map[string]int{"4+ weeks": 0, "2-3 weeks": 5, "under-14": 10}
)

// Evaluate scores an intake. Pure and deterministic: identical input always
// yields an identical report. No I/O, so it is safe to re-run for
// regeneration and backfill.
func (e *Engine) Evaluate(intake Intake) (Report, error) {
	if err := intake.Validate(); err != nil {
		return Report{}, err
	}

	score := pagesPoints[intake.Pages] +
		bookingPoints[intake.Booking] +
		paymentsPoints[intake.Payments] +
		automationPoints[intake.Automation] +
		integrationsPoints[intake.Integrations] +
		contentPoints[intake.Content] +
		stakeholderPoints[intake.Stakeholders] +
		timelinePoints[intake.Timeline]
	if score > 100 {
		score = 100
	}

	risks, buffers := e.assessAmbiguity(intake)
	tier := e.assignTier(score, intake)
	confidence := e.assignConfidence(score)

	base := e.rules.pricingFor(tier)
	pricing := Pricing{
		Target:  base.Target + int64(len(buffers))*e.rules.BufferStep,
		Minimum: base.Minimum,
		Buffers: buffers,
	}

	report := Report{
		Score:      score,
		Tier:       tier,
		Confidence: confidence,
		Summary:    fmt.Sprintf("Scored %d/100: %s tier, %s confidence.", score, tier, confidence),
		Pricing:    pricing,
		Risks:      risks,
		Pitch:      e.buildPitch(tier, intake),
	}
	return report, nil
}

// assignTier maps score to tier. The Advanced tier additionally requires a
// minimum count of system-level feature selections: a project must be both
// complex and feature-dense, so one outlier answer cannot promote it.
func (e *Engine) assignTier(score int, intake Intake) string {
	switch {
	case score >= e.rules.Tiers.AdvancedMin:
		if intake.SystemFeatureCount() >= e.rules.AdvancedMinSystemFeatures {
			return TierAdvanced
		}
		return TierProfessional
	case score >= e.rules.Tiers.ProfessionalMin:
		return TierProfessional
	default:
		return TierStandard
	}
}

// assignConfidence degrades High to Medium when the score sits within the
// configured band of a tier boundary.
func (e *Engine) assignConfidence(score int) string {
	for _, boundary := range []int{e.rules.Tiers.ProfessionalMin, e.rules.Tiers.AdvancedMin} {
		distance := score - boundary
		if distance < 0 {
			distance = -distance
		}
		if distance < e.rules.ConfidenceBand {
			return ConfidenceMedium
		}
	}
	return ConfidenceHigh
}

// assessAmbiguity collects risk flags and pricing buffers. Buffers come only
// from unresolved answers; risks also cover readiness and schedule pressure.
func (e *Engine) assessAmbiguity(intake Intake) (risks, buffers []string) {
	risks = []string{}
	buffers = []string{}

	if intake.Booking == AnswerUnsure {
		risks = append(risks, "booking requirements undecided")
		buffers = append(buffers, "booking scope buffer")
	}
	if intake.Payments == AnswerUnsure {
		risks = append(risks, "payment setup undecided")
		buffers = append(buffers, "payment scope buffer")
	}
	if intake.Automation == AnswerUnsure {
		risks = append(risks, "automation scope undecided")
		buffers = append(buffers, "automation scope buffer")
	}
	if intake.Content == "not-ready" {
		risks = append(risks, "content not ready")
	}
	if intake.Timeline == "under-14" {
		risks = append(risks, "compressed timeline")
	}
	if intake.Stakeholders == "4+" {
		risks = append(risks, "large approval group")
	}
	return risks, buffers
}

func (e *Engine) buildPitch(tier string, intake Intake) Pitch {
	pitch := Pitch{
		Emphasize:  []string{},
		Objections: []string{},
	}

	switch tier {
	case TierAdvanced:
		pitch.Recommend = "Recommend the Advanced build: this project combines multiple system-level features and needs a phased delivery plan."
	case TierProfessional:
		pitch.Recommend = "Recommend the Professional build: a custom multi-page site with room to grow into heavier features later."
	default:
		pitch.Recommend = "Recommend the Standard build: a focused site that ships quickly and leaves budget for iteration."
	}

	if intake.Booking == BookingBuiltin {
		pitch.Emphasize = append(pitch.Emphasize, "integrated booking flow")
	}
	if intake.Payments == PaymentsSystem {
		pitch.Emphasize = append(pitch.Emphasize, "full payment processing")
	}
	if intake.Automation == AutomationAdvanced {
		pitch.Emphasize = append(pitch.Emphasize, "advanced workflow automation")
	}
	if intake.Integrations == "3+" {
		pitch.Emphasize = append(pitch.Emphasize, "deep third-party integrations")
	}
	if intake.Content == "ready" {
		pitch.Emphasize = append(pitch.Emphasize, "fast turnaround with content in hand")
	}

	if intake.Timeline == "under-14" {
		pitch.Objections = append(pitch.Objections, "A launch under two weeks requires locked scope on day one.")
	}
	if intake.Content == "not-ready" {
		pitch.Objections = append(pitch.Objections, "Content delays are the most common cause of slipped launches; propose a content deadline.")
	}
	if intake.Stakeholders == "4+" {
		pitch.Objections = append(pitch.Objections, "Large approval groups slow revisions; ask for a single decision-maker.")
	}
	return pitch
}
