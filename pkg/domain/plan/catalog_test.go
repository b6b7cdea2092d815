package plan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()

	for _, tier := range AllTiers() {
		p, err := catalog.Get(tier)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", tier, err)
		}
		if p.Tier != tier {
			t.Errorf("Get(%q).Tier = %q", tier, p.Tier)
		}
	}

	if got := catalog.TrialDurationDays(); got != 7 {
		t.Errorf("TrialDurationDays() = %d, want 7", got)
	}

	enterprise, _ := catalog.Get(TierEnterprise)
	if enterprise.ProjectLimit != Unlimited {
		t.Errorf("enterprise project limit = %d, want unlimited", enterprise.ProjectLimit)
	}
	if !enterprise.HasFeature(FeatureWhiteLabel) {
		t.Error("enterprise must grant white_label")
	}

	basic, _ := catalog.Get(TierBasic)
	if basic.HasFeature(FeatureAIEnhancement) {
		t.Error("basic must not grant ai_enhancement")
	}
}

func TestCatalogGetUnknownTier(t *testing.T) {
	catalog := Default()
	if _, err := catalog.Get(Tier("platinum")); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("Get(platinum) error = %v, want %v", err, ErrUnknownTier)
	}
}

func TestNewCatalogValidation(t *testing.T) {
	valid := defaultPlans()

	tests := []struct {
		name  string
		plans []Plan
	}{
		{
			name:  "missing tier",
			plans: valid[:3],
		},
		{
			name:  "duplicate tier",
			plans: append(defaultPlans(), valid[0]),
		},
		{
			name: "zero project limit",
			plans: func() []Plan {
				plans := defaultPlans()
				plans[1].ProjectLimit = 0
				return plans
			}(),
		},
		{
			name: "non-positive duration",
			plans: func() []Plan {
				plans := defaultPlans()
				plans[1].DurationDays = 0
				return plans
			}(),
		},
		{
			name: "zero meter limit",
			plans: func() []Plan {
				plans := defaultPlans()
				plans[1].MeterLimits[MetricTestGeneration] = 0
				return plans
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCatalog(tt.plans); !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("NewCatalog() error = %v, want %v", err, ErrInvalidCatalog)
			}
		})
	}
}

func TestAllOrderedByPrice(t *testing.T) {
	plans := Default().All()
	if len(plans) != 4 {
		t.Fatalf("All() returned %d plans, want 4", len(plans))
	}
	for i := 1; i < len(plans); i++ {
		if plans[i].PriceUSD < plans[i-1].PriceUSD {
			t.Errorf("All() not ordered by price: %q ($%d) after %q ($%d)",
				plans[i].Tier, plans[i].PriceUSD, plans[i-1].Tier, plans[i-1].PriceUSD)
		}
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		input string
		want  Metric
		ok    bool
	}{
		{"projects_created", MetricProjectsCreated, true},
		{"test_generation", MetricTestGeneration, true},
		{"api_health_check", MetricAPIHealthCheck, true},
		{"ai_enhancement", "", false},
		{"", "", false},
		{"nonsense", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseMetric(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseMetric(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseFeature(t *testing.T) {
	tests := []struct {
		input string
		want  Feature
		ok    bool
	}{
		{"ai_enhancement", FeatureAIEnhancement, true},
		{"white_label", FeatureWhiteLabel, true},
		{"test_generation", FeatureTestGeneration, true},
		{"projects_created", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFeature(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseFeature(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLimitFor(t *testing.T) {
	p := Plan{
		Tier:         TierBasic,
		ProjectLimit: 5,
		MeterLimits:  map[Metric]int{MetricTestGeneration: 100},
	}

	if got := p.LimitFor(MetricProjectsCreated); got != 5 {
		t.Errorf("LimitFor(projects_created) = %d, want 5", got)
	}
	if got := p.LimitFor(MetricTestGeneration); got != 100 {
		t.Errorf("LimitFor(test_generation) = %d, want 100", got)
	}
	if got := p.LimitFor(MetricWebsiteAnalyzer); got != Unlimited {
		t.Errorf("LimitFor(unmetered) = %d, want unlimited", got)
	}
}

func TestLoadFile(t *testing.T) {
	doc := `plans:
  - tier: trial
    name: Trial
    price_usd: 0
    project_limit: 1
    duration_days: 3
    features: [test_generation]
  - tier: basic
    name: Basic
    price_usd: 19
    project_limit: 10
    duration_days: 30
    features: [test_generation]
    meter_limits:
      test_generation: 50
  - tier: professional
    name: Professional
    price_usd: 79
    project_limit: 50
    duration_days: 30
    features: [test_generation, ai_enhancement]
  - tier: enterprise
    name: Enterprise
    price_usd: 199
    project_limit: -1
    duration_days: 365
    features: [test_generation, white_label]
`
	path := filepath.Join(t.TempDir(), "plans.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	catalog, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	basic, err := catalog.Get(TierBasic)
	if err != nil {
		t.Fatalf("Get(basic) error: %v", err)
	}
	if basic.PriceUSD != 19 || basic.ProjectLimit != 10 {
		t.Errorf("basic = $%d / %d projects, want $19 / 10", basic.PriceUSD, basic.ProjectLimit)
	}
	if got := basic.LimitFor(MetricTestGeneration); got != 50 {
		t.Errorf("basic test_generation limit = %d, want 50", got)
	}
	if got := catalog.TrialDurationDays(); got != 3 {
		t.Errorf("TrialDurationDays() = %d, want 3", got)
	}
}

func TestLoadFileMissingTier(t *testing.T) {
	doc := `plans:
  - tier: trial
    name: Trial
    price_usd: 0
    project_limit: 1
    duration_days: 3
`
	path := filepath.Join(t.TempDir(), "plans.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadFile(path); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("LoadFile() error = %v, want %v", err, ErrInvalidCatalog)
	}
}
