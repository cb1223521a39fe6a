package pricing

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Tier is a volume discount band for filing entities. Max of zero means
// the band has no upper bound.
type Tier struct {
	Name     string          `json:"name"`
	Min      int             `json:"min"`
	Max      int             `json:"max"`
	Discount decimal.Decimal `json:"discount"` // fraction, 0.05 = 5%
}

// Contains reports whether n falls inside the tier.
func (t Tier) Contains(n int) bool {
	return n >= t.Min && (t.Max == 0 || n <= t.Max)
}

// Schedule is the fee table the engine prices against.
type Schedule struct {
	MonitoringFee decimal.Decimal `json:"monitoringFee"`
	FilingBaseFee decimal.Decimal `json:"filingBaseFee"`
	FilingTiers   []Tier          `json:"filingTiers"`
}

// DefaultSchedule returns the standard fees.
//
// The last tier stops at 150. Larger filing orders match no tier and pay the
// undiscounted base fee.
// TODO: confirm with billing whether orders above 150 should keep the
// enterprise rate.
func DefaultSchedule() Schedule {
	return Schedule{
		MonitoringFee: decimal.RequireFromString("249.00"),
		FilingBaseFee: decimal.RequireFromString("398.00"),
		FilingTiers: []Tier{
			{Name: "standard", Min: 1, Max: 25, Discount: decimal.Zero},
			{Name: "volume", Min: 26, Max: 75, Discount: decimal.RequireFromString("0.05")},
			{Name: "enterprise", Min: 76, Max: 150, Discount: decimal.RequireFromString("0.10")},
		},
	}
}

// TierFor returns the tier covering n filing entities, if any.
func (s Schedule) TierFor(n int) (Tier, bool) {
	for _, t := range s.FilingTiers {
		if t.Contains(n) {
			return t, true
		}
	}
	return Tier{}, false
}

// Validate checks the schedule for impossible values.
func (s Schedule) Validate() error {
	var errs []error
	if s.MonitoringFee.IsNegative() {
		errs = append(errs, errors.New("monitoring fee must not be negative"))
	}
	if s.FilingBaseFee.IsNegative() {
		errs = append(errs, errors.New("filing base fee must not be negative"))
	}
	one := decimal.NewFromInt(1)
	for i, t := range s.FilingTiers {
		if t.Min < 1 {
			errs = append(errs, fmt.Errorf("tier %d (%s): min must be at least 1", i, t.Name))
		}
		if t.Max != 0 && t.Max < t.Min {
			errs = append(errs, fmt.Errorf("tier %d (%s): max %d is below min %d", i, t.Name, t.Max, t.Min))
		}
		if t.Discount.IsNegative() || t.Discount.GreaterThan(one) {
			errs = append(errs, fmt.Errorf("tier %d (%s): discount must be between 0 and 1", i, t.Name))
		}
		if i > 0 {
			prev := s.FilingTiers[i-1]
			if prev.Max == 0 || t.Min <= prev.Max {
				errs = append(errs, fmt.Errorf("tier %d (%s) overlaps tier %d (%s)", i, t.Name, i-1, prev.Name))
			}
		}
	}
	return errors.Join(errs...)
}

// scheduleFile is the YAML form. Amounts are strings so they parse exactly.
type scheduleFile struct {
	MonitoringFee string `yaml:"monitoring_fee"`
	FilingBaseFee string `yaml:"filing_base_fee"`
	FilingTiers   []struct {
		Name     string `yaml:"name"`
		Min      int    `yaml:"min"`
		Max      int    `yaml:"max"`
		Discount string `yaml:"discount"`
	} `yaml:"filing_tiers"`
}

// ParseSchedule decodes a YAML fee schedule. Omitted fees keep their
// default; an omitted tier list keeps the default tiers.
func ParseSchedule(data []byte) (Schedule, error) {
	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Schedule{}, fmt.Errorf("parse fee schedule: %w", err)
	}

	s := DefaultSchedule()
	var err error
	if f.MonitoringFee != "" {
		if s.MonitoringFee, err = decimal.NewFromString(f.MonitoringFee); err != nil {
			return Schedule{}, fmt.Errorf("monitoring_fee: %w", err)
		}
	}
	if f.FilingBaseFee != "" {
		if s.FilingBaseFee, err = decimal.NewFromString(f.FilingBaseFee); err != nil {
			return Schedule{}, fmt.Errorf("filing_base_fee: %w", err)
		}
	}
	if f.FilingTiers != nil {
		s.FilingTiers = make([]Tier, 0, len(f.FilingTiers))
		for i, ft := range f.FilingTiers {
			discount := decimal.Zero
			if ft.Discount != "" {
				if discount, err = decimal.NewFromString(ft.Discount); err != nil {
					return Schedule{}, fmt.Errorf("filing_tiers[%d].discount: %w", i, err)
				}
			}
			s.FilingTiers = append(s.FilingTiers, Tier{Name: ft.Name, Min: ft.Min, Max: ft.Max, Discount: discount})
		}
	}

	if err := s.Validate(); err != nil {
		return Schedule{}, fmt.Errorf("invalid fee schedule: %w", err)
	}
	return s, nil
}

// LoadSchedule reads a YAML fee schedule from disk. An empty path returns
// the default schedule.
func LoadSchedule(path string) (Schedule, error) {
	if path == "" {
		return DefaultSchedule(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("read fee schedule: %w", err)
	}
	return ParseSchedule(data)
}
