// Package plan defines the static catalog of plan tiers and their entitlements.
package plan

import (
	"errors"
	"fmt"
)

// Tier identifies a plan tier.
type Tier string

// Recognized plan tiers.
const (
	TierTrial        Tier = "trial"
	TierBasic        Tier = "basic"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

// AllTiers returns every recognized tier.
func AllTiers() []Tier {
	return []Tier{TierTrial, TierBasic, TierProfessional, TierEnterprise}
}

// IsValid checks if the tier is recognized.
func (t Tier) IsValid() bool {
	switch t {
	case TierTrial, TierBasic, TierProfessional, TierEnterprise:
		return true
	default:
		return false
	}
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}

// Feature is a boolean entitlement granted by a plan.
type Feature string

// Plan feature flags.
const (
	FeatureTestGeneration  Feature = "test_generation"
	FeatureLocatorAnalysis Feature = "locator_analysis"
	FeatureExcelProcessing Feature = "excel_processing"
	FeatureAIEnhancement   Feature = "ai_enhancement"
	FeatureAPIAccess       Feature = "api_access"
	FeaturePrioritySupport Feature = "priority_support"
	FeatureWhiteLabel      Feature = "white_label"
)

// Metric is a metered usage dimension enforced against a plan limit.
type Metric string

// Metered usage metrics.
const (
	MetricProjectsCreated Metric = "projects_created"
	MetricTestGeneration  Metric = "test_generation"
	MetricLocatorAnalysis Metric = "locator_analysis"
	MetricExcelProcessing Metric = "excel_processing"
	MetricTestExecution   Metric = "test_execution"
	MetricWebsiteAnalyzer Metric = "website_analyzer"
	MetricAPIHealthCheck  Metric = "api_health_check"
)

// Unlimited marks a metric with no usage ceiling.
const Unlimited = -1

// ParseMetric resolves an operation name to a metered metric.
func ParseMetric(s string) (Metric, bool) {
	switch Metric(s) {
	case MetricProjectsCreated, MetricTestGeneration, MetricLocatorAnalysis,
		MetricExcelProcessing, MetricTestExecution, MetricWebsiteAnalyzer,
		MetricAPIHealthCheck:
		return Metric(s), true
	default:
		return "", false
	}
}

// ParseFeature resolves an operation name to a boolean feature flag.
func ParseFeature(s string) (Feature, bool) {
	switch Feature(s) {
	case FeatureTestGeneration, FeatureLocatorAnalysis, FeatureExcelProcessing,
		FeatureAIEnhancement, FeatureAPIAccess, FeaturePrioritySupport,
		FeatureWhiteLabel:
		return Feature(s), true
	default:
		return "", false
	}
}

// Errors for catalog lookups and validation.
var (
	ErrUnknownTier    = errors.New("unknown plan tier")
	ErrInvalidCatalog = errors.New("invalid plan catalog")
)

// Plan describes the entitlements of a single tier.
type Plan struct {
	Tier         Tier            `yaml:"tier" json:"tier"`
	Name         string          `yaml:"name" json:"name"`
	PriceUSD     int             `yaml:"price_usd" json:"price_usd"`
	ProjectLimit int             `yaml:"project_limit" json:"project_limit"`
	DurationDays int             `yaml:"duration_days" json:"duration_days"`
	Features     []Feature       `yaml:"features" json:"features"`
	MeterLimits  map[Metric]int  `yaml:"meter_limits" json:"meter_limits"`
}

// HasFeature checks whether the plan grants a feature flag.
func (p *Plan) HasFeature(f Feature) bool {
	for _, feat := range p.Features {
		if feat == f {
			return true
		}
	}
	return false
}

// LimitFor returns the usage ceiling for a metric. The project metric is
// backed by ProjectLimit; other metrics fall back to Unlimited when the
// plan does not meter them.
func (p *Plan) LimitFor(m Metric) int {
	if m == MetricProjectsCreated {
		return p.ProjectLimit
	}
	if limit, ok := p.MeterLimits[m]; ok {
		return limit
	}
	return Unlimited
}

// validate checks a single plan definition.
func (p *Plan) validate() error {
	if !p.Tier.IsValid() {
		return fmt.Errorf("%w: tier %q", ErrInvalidCatalog, p.Tier)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: tier %q has no name", ErrInvalidCatalog, p.Tier)
	}
	if p.PriceUSD < 0 {
		return fmt.Errorf("%w: tier %q has negative price", ErrInvalidCatalog, p.Tier)
	}
	if p.ProjectLimit < Unlimited || p.ProjectLimit == 0 {
		return fmt.Errorf("%w: tier %q project limit must be positive or unlimited (-1)", ErrInvalidCatalog, p.Tier)
	}
	if p.DurationDays <= 0 {
		return fmt.Errorf("%w: tier %q duration must be positive", ErrInvalidCatalog, p.Tier)
	}
	for metric, limit := range p.MeterLimits {
		if limit < Unlimited || limit == 0 {
			return fmt.Errorf("%w: tier %q metric %q limit must be positive or unlimited (-1)", ErrInvalidCatalog, p.Tier, metric)
		}
	}
	return nil
}
