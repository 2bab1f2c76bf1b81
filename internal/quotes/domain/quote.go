package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus is owned by the surrounding application after creation; the
// pipeline only ever writes drafts.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// PricedSurface is a surface with its cost split.
type PricedSurface struct {
	Surface             Surface `json:"surface"`
	Rate                float64 `json:"rate"`
	Measurement         float64 `json:"measurement"`
	Unit                string  `json:"unit"`
	Coats               int     `json:"coats"`
	BaseCost            float64 `json:"baseCost"`
	ConditionMultiplier float64 `json:"conditionMultiplier"`
	PrepMultiplier      float64 `json:"prepMultiplier"`
	Cost                float64 `json:"cost"`
	LaborCost           float64 `json:"laborCost"`
	MaterialsCost       float64 `json:"materialsCost"`
}

// Breakdown is the itemized result of pricing a quote. Values are unrounded
// until Rounded is called.
type Breakdown struct {
	Surfaces      []PricedSurface `json:"surfaces"`
	Settings      QuoteSettings   `json:"settings"`
	Subtotal      float64         `json:"subtotal"`
	LaborCost     float64         `json:"laborCost"`
	MaterialsCost float64         `json:"materialsCost"`
	Overhead      float64         `json:"overhead"`
	Profit        float64         `json:"profit"`
	Tax           float64         `json:"tax"`
	Total         float64         `json:"total"`
	Assumptions   []string        `json:"assumptions,omitempty"`
}

// Rounded returns a copy with every money field rounded half away from zero
// to two decimals.
func (b Breakdown) Rounded() Breakdown {
	out := b
	out.Surfaces = make([]PricedSurface, len(b.Surfaces))
	for i, s := range b.Surfaces {
		s.BaseCost = RoundMoney(s.BaseCost)
		s.Cost = RoundMoney(s.Cost)
		s.LaborCost = RoundMoney(s.LaborCost)
		s.MaterialsCost = RoundMoney(s.MaterialsCost)
		out.Surfaces[i] = s
	}
	out.Subtotal = RoundMoney(b.Subtotal)
	out.LaborCost = RoundMoney(b.LaborCost)
	out.MaterialsCost = RoundMoney(b.MaterialsCost)
	out.Overhead = RoundMoney(b.Overhead)
	out.Profit = RoundMoney(b.Profit)
	out.Tax = RoundMoney(b.Tax)
	out.Total = RoundMoney(b.Total)
	out.Assumptions = append([]string(nil), b.Assumptions...)
	return out
}

// RoundMoney rounds v to cents.
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Quote is the persisted, priced result of a conversation.
type Quote struct {
	ID          uuid.UUID     `json:"id"`
	CompanyID   uuid.UUID     `json:"companyId"`
	CreatedBy   uuid.UUID     `json:"createdBy"`
	QuoteNumber string        `json:"quoteNumber"`
	Status      QuoteStatus   `json:"status"`
	ProjectType ProjectType   `json:"projectType"`
	Customer    Customer      `json:"customer"`
	Surfaces    []Surface     `json:"surfaces"`
	Settings    QuoteSettings `json:"settings"`
	Breakdown   Breakdown     `json:"breakdown"`
	Analysis    Analysis      `json:"analysis"`
	Forced      bool          `json:"forced"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
