package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/intake/internal/core"
)

// ErrEmptySelection is returned by callers that refuse to charge for nothing.
var ErrEmptySelection = errors.New("empty selection")

// Item is one entity to be priced.
type Item struct {
	EntityID    string           `json:"entityId"`
	Name        string           `json:"name,omitempty"`
	ServiceType core.ServiceType `json:"serviceType"`
}

// Line is the price of one entity.
type Line struct {
	EntityID    string           `json:"entityId"`
	Name        string           `json:"name,omitempty"`
	ServiceType core.ServiceType `json:"serviceType"`
	UnitPrice   decimal.Decimal  `json:"unitPrice"`
}

// Subtotal aggregates one service level.
type Subtotal struct {
	ServiceType core.ServiceType `json:"serviceType"`
	Count       int              `json:"count"`
	UnitPrice   decimal.Decimal  `json:"unitPrice"`
	Amount      decimal.Decimal  `json:"amount"`
}

// Quote is the priced selection.
type Quote struct {
	SelectedIDs []string        `json:"selectedIds"`
	Lines       []Line          `json:"lines"`
	Subtotals   []Subtotal      `json:"subtotals"`
	Tier        *Tier           `json:"tier,omitempty"` // nil when no filing tier applied
	Total       decimal.Decimal `json:"total"`
}

// IsEmpty reports whether nothing was selected.
func (q Quote) IsEmpty() bool {
	return len(q.SelectedIDs) == 0
}

// Count returns how many entities of a service level are in the quote.
func (q Quote) Count(st core.ServiceType) int {
	for _, s := range q.Subtotals {
		if s.ServiceType == st {
			return s.Count
		}
	}
	return 0
}

// Engine prices selections against a fee schedule.
type Engine struct {
	schedule Schedule
}

// NewEngine creates an engine for the schedule.
func NewEngine(s Schedule) *Engine {
	return &Engine{schedule: s}
}

// Schedule returns the fee schedule in use.
func (e *Engine) Schedule() Schedule {
	return e.schedule
}

// FilingUnitPrice returns the per-entity filing price for an order with n
// filing entities, and the tier that produced it.
func (e *Engine) FilingUnitPrice(n int) (decimal.Decimal, *Tier) {
	base := e.schedule.FilingBaseFee
	tier, ok := e.schedule.TierFor(n)
	if !ok {
		return base.Round(2), nil
	}
	price := base.Mul(decimal.NewFromInt(1).Sub(tier.Discount)).Round(2)
	return price, &tier
}

// Quote prices the items. The filing tier is chosen once from the number of
// filing items and applied to every one of them. Items with an unknown
// service level are an error.
func (e *Engine) Quote(items []Item) (Quote, error) {
	var monitoring, filing int
	for _, it := range items {
		switch it.ServiceType {
		case core.ServiceMonitoring:
			monitoring++
		case core.ServiceFiling:
			filing++
		default:
			return Quote{}, fmt.Errorf("entity %s: unknown service type %q", it.EntityID, it.ServiceType)
		}
	}

	monitorPrice := e.schedule.MonitoringFee.Round(2)
	filingPrice, tier := e.FilingUnitPrice(filing)

	q := Quote{
		SelectedIDs: make([]string, 0, len(items)),
		Lines:       make([]Line, 0, len(items)),
		Total:       decimal.Zero,
	}
	for _, it := range items {
		price := monitorPrice
		if it.ServiceType == core.ServiceFiling {
			price = filingPrice
		}
		q.SelectedIDs = append(q.SelectedIDs, it.EntityID)
		q.Lines = append(q.Lines, Line{
			EntityID:    it.EntityID,
			Name:        it.Name,
			ServiceType: it.ServiceType,
			UnitPrice:   price,
		})
	}

	if monitoring > 0 {
		q.Subtotals = append(q.Subtotals, subtotal(core.ServiceMonitoring, monitoring, monitorPrice))
	}
	if filing > 0 {
		q.Subtotals = append(q.Subtotals, subtotal(core.ServiceFiling, filing, filingPrice))
		q.Tier = tier
	}
	for _, s := range q.Subtotals {
		q.Total = q.Total.Add(s.Amount)
	}
	return q, nil
}

func subtotal(st core.ServiceType, n int, unit decimal.Decimal) Subtotal {
	return Subtotal{
		ServiceType: st,
		Count:       n,
		UnitPrice:   unit,
		Amount:      unit.Mul(decimal.NewFromInt(int64(n))).Round(2),
	}
}

// QuoteEntities prices entities at their current service level.
func (e *Engine) QuoteEntities(entities []*core.Entity) (Quote, error) {
	return e.Quote(Items(entities))
}

// Items converts entities to pricing items without modifying them.
func Items(entities []*core.Entity) []Item {
	items := make([]Item, 0, len(entities))
	for _, ent := range entities {
		items = append(items, Item{
			EntityID:    ent.ID.String(),
			Name:        ent.LegalName,
			ServiceType: ent.ServiceType,
		})
	}
	return items
}

// Select returns the entities whose ids are listed, in entity order.
// A nil id list selects every entity.
func Select(entities []*core.Entity, ids []string) []*core.Entity {
	if ids == nil {
		return entities
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]*core.Entity, 0, len(ids))
	for _, ent := range entities {
		if want[ent.ID.String()] {
			out = append(out, ent)
		}
	}
	return out
}
