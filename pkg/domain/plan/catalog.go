package plan

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog is the immutable registry of plan tiers. It is constructed once
// at startup and validated eagerly; an invalid or missing tier is a load
// failure, never a runtime surprise.
type Catalog struct {
	plans map[Tier]Plan
}

// NewCatalog builds a catalog from explicit plan definitions.
// Every recognized tier must be present exactly once.
func NewCatalog(plans []Plan) (*Catalog, error) {
	byTier := make(map[Tier]Plan, len(plans))
	for i := range plans {
		p := plans[i]
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := byTier[p.Tier]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %q", ErrInvalidCatalog, p.Tier)
		}
		byTier[p.Tier] = p
	}
	for _, tier := range AllTiers() {
		if _, ok := byTier[tier]; !ok {
			return nil, fmt.Errorf("%w: missing tier %q", ErrInvalidCatalog, tier)
		}
	}
	return &Catalog{plans: byTier}, nil
}

// Default returns the built-in catalog. Prices and limits mirror the
// published TestMate Studio plans.
func Default() *Catalog {
	catalog, err := NewCatalog(defaultPlans())
	if err != nil {
		// Built-in definitions are covered by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return catalog
}

// LoadFile builds a catalog from a YAML definition file, replacing the
// built-in plans entirely.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	return NewCatalog(doc.Plans)
}

// Get returns the plan for a tier, or ErrUnknownTier.
func (c *Catalog) Get(tier Tier) (Plan, error) {
	p, ok := c.plans[tier]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	return p, nil
}

// All returns every plan, ordered by price ascending.
func (c *Catalog) All() []Plan {
	plans := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].PriceUSD != plans[j].PriceUSD {
			return plans[i].PriceUSD < plans[j].PriceUSD
		}
		return plans[i].Tier < plans[j].Tier
	})
	return plans
}

// TrialDurationDays returns the fixed trial duration.
func (c *Catalog) TrialDurationDays() int {
	return c.plans[TierTrial].DurationDays
}

func defaultPlans() []Plan {
	return []Plan{
		{
			Tier:         TierTrial,
			Name:         "Trial",
			PriceUSD:     0,
			ProjectLimit: 3,
			DurationDays: 7,
			Features: []Feature{
				FeatureTestGeneration,
				FeatureLocatorAnalysis,
				FeatureExcelProcessing,
			},
			MeterLimits: map[Metric]int{
				MetricTestGeneration:  10,
				MetricLocatorAnalysis: 5,
				MetricExcelProcessing: 3,
				MetricTestExecution:   5,
				MetricWebsiteAnalyzer: 3,
				MetricAPIHealthCheck:  3,
			},
		},
		{
			Tier:         TierBasic,
			Name:         "Basic",
			PriceUSD:     29,
			ProjectLimit: 5,
			DurationDays: 30,
			Features: []Feature{
				FeatureTestGeneration,
				FeatureLocatorAnalysis,
				FeatureExcelProcessing,
			},
			MeterLimits: map[Metric]int{
				MetricTestGeneration:  100,
				MetricLocatorAnalysis: 50,
				MetricExcelProcessing: 25,
				MetricTestExecution:   50,
				MetricWebsiteAnalyzer: 25,
				MetricAPIHealthCheck:  25,
			},
		},
		{
			Tier:         TierProfessional,
			Name:         "Professional",
			PriceUSD:     99,
			ProjectLimit: 25,
			DurationDays: 30,
			Features: []Feature{
				FeatureTestGeneration,
				FeatureLocatorAnalysis,
				FeatureExcelProcessing,
				FeatureAIEnhancement,
				FeatureAPIAccess,
				FeaturePrioritySupport,
			},
			MeterLimits: map[Metric]int{
				MetricTestGeneration:  1000,
				MetricLocatorAnalysis: 500,
				MetricExcelProcessing: 250,
				MetricTestExecution:   500,
				MetricWebsiteAnalyzer: 250,
				MetricAPIHealthCheck:  250,
			},
		},
		{
			Tier:         TierEnterprise,
			Name:         "Enterprise",
			PriceUSD:     299,
			ProjectLimit: Unlimited,
			DurationDays: 365,
			Features: []Feature{
				FeatureTestGeneration,
				FeatureLocatorAnalysis,
				FeatureExcelProcessing,
				FeatureAIEnhancement,
				FeatureAPIAccess,
				FeaturePrioritySupport,
				FeatureWhiteLabel,
			},
			MeterLimits: map[Metric]int{
				MetricTestGeneration:  Unlimited,
				MetricLocatorAnalysis: Unlimited,
				MetricExcelProcessing: Unlimited,
				MetricTestExecution:   Unlimited,
				MetricWebsiteAnalyzer: Unlimited,
				MetricAPIHealthCheck:  Unlimited,
			},
		},
	}
}
