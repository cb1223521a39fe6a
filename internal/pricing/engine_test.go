package pricing

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/JonMunkholm/intake/internal/core"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine(DefaultSchedule())
}

func items(st core.ServiceType, n int, prefix string) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{EntityID: fmt.Sprintf("%s-%d", prefix, i), ServiceType: st}
	}
	return out
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (s *EngineSuite) assertMoney(want string, got decimal.Decimal) {
	s.T().Helper()
	s.True(money(want).Equal(got), "want %s, got %s", want, got.StringFixed(2))
}

func (s *EngineSuite) TestThirtyFilingEntities() {
	q, err := s.engine.Quote(items(core.ServiceFiling, 30, "f"))
	s.Require().NoError(err)

	s.Require().Len(q.Lines, 30)
	for _, l := range q.Lines {
		s.assertMoney("378.10", l.UnitPrice)
	}
	s.Require().NotNil(q.Tier)
	s.Equal("volume", q.Tier.Name)
	s.assertMoney("11343.00", q.Total)
}

func (s *EngineSuite) TestMixedSelection() {
	sel := append(items(core.ServiceMonitoring, 10, "m"), items(core.ServiceFiling, 20, "f")...)
	q, err := s.engine.Quote(sel)
	s.Require().NoError(err)

	s.Require().Len(q.Subtotals, 2)
	s.Equal(core.ServiceMonitoring, q.Subtotals[0].ServiceType)
	s.assertMoney("2490.00", q.Subtotals[0].Amount)
	s.Equal(core.ServiceFiling, q.Subtotals[1].ServiceType)
	s.assertMoney("7960.00", q.Subtotals[1].Amount)
	s.assertMoney("10450.00", q.Total)
	s.Equal(10, q.Count(core.ServiceMonitoring))
	s.Equal(20, q.Count(core.ServiceFiling))
}

func (s *EngineSuite) TestTierBoundaries() {
	tests := []struct {
		filing int
		unit   string
		tier   string
	}{
		{1, "398.00", "standard"},
		{25, "398.00", "standard"},
		{26, "378.10", "volume"},
		{75, "378.10", "volume"},
		{76, "358.20", "enterprise"},
		{150, "358.20", "enterprise"},
		// Above the last tier no discount applies.
		{151, "398.00", ""},
		{400, "398.00", ""},
	}

	for _, tt := range tests {
		q, err := s.engine.Quote(items(core.ServiceFiling, tt.filing, "f"))
		s.Require().NoError(err)
		s.assertMoney(tt.unit, q.Subtotals[0].UnitPrice)
		if tt.tier == "" {
			s.Nil(q.Tier, "filing=%d", tt.filing)
		} else {
			s.Require().NotNil(q.Tier, "filing=%d", tt.filing)
			s.Equal(tt.tier, q.Tier.Name)
		}
	}
}

func (s *EngineSuite) TestMonitoringIsNeverDiscounted() {
	q, err := s.engine.Quote(items(core.ServiceMonitoring, 200, "m"))
	s.Require().NoError(err)
	s.Nil(q.Tier)
	s.assertMoney("49800.00", q.Total)
}

func (s *EngineSuite) TestEmptySelection() {
	q, err := s.engine.Quote(nil)
	s.Require().NoError(err)
	s.True(q.IsEmpty())
	s.True(q.Total.IsZero())
	s.Empty(q.Subtotals)
}

func (s *EngineSuite) TestUnknownServiceType() {
	_, err := s.engine.Quote([]Item{{EntityID: "x", ServiceType: "premium"}})
	s.Require().Error(err)
	s.Equal("PRC002", core.MapError(err).Code)
}

func (s *EngineSuite) TestQuoteEntitiesDoesNotMutate() {
	a := core.NewEntity("A", "United States", "", core.FilingDisclosure)
	b := core.NewEntity("B", "Canada", "monitoring", core.FilingDisclosure)
	before := []core.Entity{*a, *b}

	q, err := s.engine.QuoteEntities([]*core.Entity{a, b})
	s.Require().NoError(err)

	s.Equal(before[0], *a)
	s.Equal(before[1], *b)
	s.Equal([]string{a.ID.String(), b.ID.String()}, q.SelectedIDs)
	s.assertMoney("647.00", q.Total)
}

func TestSelect(t *testing.T) {
	a := core.NewEntity("A", "United States", "", core.FilingDisclosure)
	b := core.NewEntity("B", "United States", "", core.FilingDisclosure)
	c := core.NewEntity("C", "United States", "", core.FilingDisclosure)
	all := []*core.Entity{a, b, c}

	assert.Equal(t, all, Select(all, nil))
	assert.Empty(t, Select(all, []string{}))
	assert.Equal(t, []*core.Entity{a, c}, Select(all, []string{c.ID.String(), a.ID.String(), "missing"}))
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule([]byte(`
monitoring_fee: "199.00"
filing_tiers:
  - name: small
    min: 1
    max: 10
  - name: large
    min: 11
    discount: "0.2"
`))
	require.NoError(t, err)

	assert.True(t, money("199").Equal(s.MonitoringFee))
	assert.True(t, money("398").Equal(s.FilingBaseFee), "unset fee keeps the default")
	require.Len(t, s.FilingTiers, 2)

	tier, ok := s.TierFor(5000)
	require.True(t, ok, "open-ended tier")
	assert.Equal(t, "large", tier.Name)

	price, _ := NewEngine(s).FilingUnitPrice(11)
	assert.Equal(t, "318.40", price.StringFixed(2))
}

func TestParseSchedule_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "monitoring_fee: [",
		"bad amount":    `monitoring_fee: "lots"`,
		"negative fee":  `filing_base_fee: "-1"`,
		"overlap":       "filing_tiers:\n  - {name: a, min: 1, max: 10}\n  - {name: b, min: 5, max: 20}\n",
		"big discount":  "filing_tiers:\n  - {name: a, min: 1, discount: \"1.5\"}\n",
		"inverted tier": "filing_tiers:\n  - {name: a, min: 10, max: 5}\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchedule([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadSchedule_DefaultAndMissing(t *testing.T) {
	s, err := LoadSchedule("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule(), s)

	_, err = LoadSchedule("/nonexistent/fees.yaml")
	assert.Error(t, err)
}
