package repository

import (
	"context"
	"testing"

	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestChargeRatesFromRowsSkipsUnknownTypes(t *testing.T) {
	rates := chargeRatesFromRows([]rateRow{
		{SurfaceType: "walls", Rate: 3.75},
		{SurfaceType: "doors", Rate: 80},
		{SurfaceType: "decks", Rate: 5},
		{SurfaceType: "ceilings", Rate: -1},
	})

	if len(rates) != 2 {
		t.Fatalf("expected 2 rates, got %d: %v", len(rates), rates)
	}
	if rates[domain.Walls] != 3.75 || rates[domain.Doors] != 80 {
		t.Fatalf("unexpected rates %v", rates)
	}
}

func TestUnconfiguredRepository(t *testing.T) {
	var r *Repository
	ctx := context.Background()

	if _, err := r.GetChargeRates(ctx, uuid.New()); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if _, err := r.NextQuoteCounter(ctx, uuid.New()); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if err := New(nil).CreateQuote(ctx, domain.Quote{}); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
