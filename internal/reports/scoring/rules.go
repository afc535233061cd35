package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tier names, ordered by complexity.
const (
	TierStandard     = "Standard"
	TierProfessional = "Professional"
	TierAdvanced     = "Advanced"
)

// Confidence levels. There is deliberately no Low: scores far from every
// tier boundary are High, scores near a boundary degrade to Medium.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
)

// TierPricing holds the base price constants for a tier.
type TierPricing struct {
	Target  int64 `yaml:"target"`
	Minimum int64 `yaml:"minimum"`
}

// Rules holds the tunable parameters of the scoring engine. The zero value
// is not usable; start from DefaultRules and optionally overlay a YAML file.
type Rules struct {
	Tiers struct {
		ProfessionalMin int `yaml:"professional_min"`
		AdvancedMin     int `yaml:"advanced_min"`
	} `yaml:"tiers"`
	AdvancedMinSystemFeatures int   `yaml:"advanced_min_system_features"`
	ConfidenceBand            int   `yaml:"confidence_band"`
	BufferStep                int64 `yaml:"buffer_step"`
	Pricing                   struct {
		Standard     TierPricing `yaml:"standard"`
		Professional TierPricing `yaml:"professional"`
		Advanced     TierPricing `yaml:"advanced"`
	} `yaml:"pricing"`
}

// DefaultRules returns the compiled-in rule set.
func DefaultRules() Rules {
	var r Rules
	r.Tiers.ProfessionalMin = 40
	r.Tiers.AdvancedMin = 66
	r.AdvancedMinSystemFeatures = 2
	r.ConfidenceBand = 5
	r.BufferStep = 250
	r.Pricing.Standard = TierPricing{Target: 2000, Minimum: 1500}
	r.Pricing.Professional = TierPricing{Target: 4500, Minimum: 3500}
	r.Pricing.Advanced = TierPricing{Target: 9000, Minimum: 7000}
	return r
}

// LoadRules reads a YAML rules file layered over the defaults. An empty path
// returns the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read scoring rules: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse scoring rules: %w", err)
	}
	if err := rules.validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r Rules) validate() error {
	if r.Tiers.ProfessionalMin <= 0 || r.Tiers.AdvancedMin <= r.Tiers.ProfessionalMin {
		return fmt.Errorf("scoring rules: tier thresholds must satisfy 0 < professional_min < advanced_min")
	}
	if r.ConfidenceBand < 0 {
		return fmt.Errorf("scoring rules: confidence_band must be >= 0")
	}
	if r.BufferStep < 0 {
		return fmt.Errorf("scoring rules: buffer_step must be >= 0")
	}
	return nil
}

// pricingFor returns the base pricing for a tier.
func (r Rules) pricingFor(tier string) TierPricing {
	switch tier {
	case TierAdvanced:
		return r.Pricing.Advanced
	case TierProfessional:
		return r.Pricing.Professional
	default:
		return r.Pricing.Standard
	}
}
