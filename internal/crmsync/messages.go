// Package crmsync publishes post-checkout contacts and order confirmations
// to the contact-management and notification systems.
package crmsync

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/pricing"
)

// Firm is the filing firm placing an order.
type Firm struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Order is a confirmed checkout.
type Order struct {
	ID       string
	Firm     Firm
	Entities []*core.Entity
	Quote    pricing.Quote
	PlacedAt time.Time
}

// Contact kinds.
const (
	ContactFirm   = "firm"
	ContactEntity = "entity"
)

// Contact is one record pushed to contact management.
type Contact struct {
	Kind     string `json:"kind"`
	OrderID  string `json:"orderId"`
	FirmID   string `json:"firmId"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	EntityID string `json:"entityId,omitempty"`

	EntityType  core.EntityType  `json:"entityType,omitempty"`
	ServiceType core.ServiceType `json:"serviceType,omitempty"`
	FilingType  core.FilingType  `json:"filingType,omitempty"`
	State       string           `json:"state,omitempty"`
	Country     string           `json:"country,omitempty"`
}

// Key is the message key. Contacts for one firm share a partition.
func (c Contact) Key() string {
	return c.FirmID
}

// Confirmation is the order notification.
type Confirmation struct {
	OrderID   string             `json:"orderId"`
	Firm      Firm               `json:"firm"`
	Entities  int                `json:"entities"`
	Subtotals []pricing.Subtotal `json:"subtotals"`
	Tier      string             `json:"tier,omitempty"`
	Total     decimal.Decimal    `json:"total"`
	PlacedAt  time.Time          `json:"placedAt"`
}

// Contacts returns the firm contact followed by one contact per entity.
func (o Order) Contacts() []Contact {
	contacts := make([]Contact, 0, len(o.Entities)+1)
	contacts = append(contacts, Contact{
		Kind:    ContactFirm,
		OrderID: o.ID,
		FirmID:  o.Firm.ID,
		Name:    o.Firm.Name,
		Email:   o.Firm.Email,
	})
	for _, e := range o.Entities {
		contacts = append(contacts, Contact{
			Kind:        ContactEntity,
			OrderID:     o.ID,
			FirmID:      o.Firm.ID,
			Name:        e.LegalName,
			EntityID:    e.ID.String(),
			EntityType:  e.EntityType,
			ServiceType: e.ServiceType,
			FilingType:  e.FilingType,
			State:       e.StateOfFormation,
			Country:     e.CountryOfFormation,
		})
	}
	return contacts
}

// Confirmation builds the order notification.
func (o Order) Confirmation() Confirmation {
	c := Confirmation{
		OrderID:   o.ID,
		Firm:      o.Firm,
		Entities:  len(o.Entities),
		Subtotals: o.Quote.Subtotals,
		Total:     o.Quote.Total,
		PlacedAt:  o.PlacedAt,
	}
	if o.Quote.Tier != nil {
		c.Tier = o.Quote.Tier.Name
	}
	return c
}
