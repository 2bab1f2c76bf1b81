package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"paintquote_backend/internal/conversation"
	"paintquote_backend/internal/events"
	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/internal/quotes/numbering"
	"paintquote_backend/internal/ratelimit"
	"paintquote_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu       sync.Mutex
	rates    domain.ChargeRates
	settings domain.QuoteSettings
	quotes   []domain.Quote
	err      error
}

func (f *fakeRepo) GetChargeRates(context.Context, uuid.UUID) (domain.ChargeRates, error) {
	return f.rates, f.err
}

func (f *fakeRepo) GetSettings(context.Context, uuid.UUID) (domain.QuoteSettings, error) {
	return f.settings, f.err
}

func (f *fakeRepo) CreateQuote(_ context.Context, q domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes = append(f.quotes, q)
	return nil
}

type extractorFunc func(ctx context.Context, turns []domain.ConversationTurn) (domain.ParsedQuoteData, error)

func (f extractorFunc) Extract(ctx context.Context, turns []domain.ConversationTurn) (domain.ParsedQuoteData, error) {
	return f(ctx, turns)
}

func staticExtractor(data domain.ParsedQuoteData) extractorFunc {
	return func(context.Context, []domain.ConversationTurn) (domain.ParsedQuoteData, error) {
		return data.Clone(), nil
	}
}

type fakeBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *fakeBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *fakeBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *fakeBus) Subscribe(string, events.Handler) {}

type denyLimiter struct{ retryAfter time.Duration }

func (d denyLimiter) Check(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: false, RetryAfter: d.retryAfter}, nil
}

type brokenLimiter struct{}

func (brokenLimiter) Check(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true}, errors.New("redis down")
}

var (
	companyID = uuid.MustParse("7f1c2a9e-0000-4000-8000-000000000007")
	userID    = uuid.MustParse("7f1c2a9e-0000-4000-8000-000000000001")
)

func completeData() domain.ParsedQuoteData {
	return domain.ParsedQuoteData{
		Customer:    domain.Customer{Name: "Dana Reyes", Email: "dana@example.com"},
		ProjectType: domain.ProjectResidential,
		Surfaces: []domain.Surface{
			{Type: domain.Walls, Area: 400, Coats: 2, Condition: domain.ConditionGood},
		},
	}
}

type fixture struct {
	svc   *Service
	repo  *fakeRepo
	store *conversation.MemoryStore
	bus   *fakeBus
}

func newFixture(t *testing.T, extractor Extractor, mutate ...func(*Deps)) fixture {
	t.Helper()
	f := fixture{
		repo:  &fakeRepo{rates: domain.ChargeRates{domain.Walls: 3.50}},
		store: conversation.NewMemoryStore(time.Hour),
		bus:   &fakeBus{},
	}
	deps := Deps{
		Repo:      f.repo,
		Store:     f.store,
		Extractor: extractor,
		Numbers:   numbering.NewGenerator(numbering.NewMemoryCounter()),
		Bus:       f.bus,
	}
	for _, m := range mutate {
		m(&deps)
	}
	f.svc = New(deps)
	return f
}

func message(sessionID, text string) MessageInput {
	return MessageInput{CompanyID: companyID, UserID: userID, SessionID: sessionID, Text: text}
}

func TestHandleMessage_AsksForMissingDetails(t *testing.T) {
	data := domain.ParsedQuoteData{Surfaces: []domain.Surface{{Type: domain.Walls, Coats: 2}}}
	f := newFixture(t, staticExtractor(data))

	res, err := f.svc.HandleMessage(context.Background(), message("s1", "I need my walls painted"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Applied {
		t.Fatal("expected result to be applied")
	}
	if res.Preview != nil {
		t.Fatal("incomplete data must not be priced")
	}
	if res.Session.Stage != domain.StageCollecting {
		t.Fatalf("expected collecting, got %s", res.Session.Stage)
	}
	if !strings.Contains(res.Reply, "customer's name") || !strings.Contains(res.Reply, "sq ft of walls") {
		t.Fatalf("reply should ask for name and wall area, got %q", res.Reply)
	}
	if len(res.Session.Turns) != 2 || res.Session.Turns[1].Role != domain.RoleAssistant {
		t.Fatalf("expected user turn and assistant reply, got %+v", res.Session.Turns)
	}
}

func TestHandleMessage_ReadyDataIsPreviewed(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()))

	res, err := f.svc.HandleMessage(context.Background(), message("s1", "Dana, 400 sq ft of walls, two coats"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Preview == nil || res.Preview.Total != 2800 {
		t.Fatalf("expected preview total 2800, got %+v", res.Preview)
	}
	if res.Session.Stage != domain.StageReadyToPrice {
		t.Fatalf("expected ready_to_price, got %s", res.Session.Stage)
	}
	if !strings.Contains(res.Reply, "$2800.00") {
		t.Fatalf("reply should carry the priced total, got %q", res.Reply)
	}
	if res.Session.Data.Confidence.Score != 100 {
		t.Fatalf("expected full score, got %d", res.Session.Data.Confidence.Score)
	}
}

func TestHandleMessage_ReadyButUnpriceableNamesSetting(t *testing.T) {
	data := completeData()
	tax := 150.0
	data.Settings = &domain.SettingsOverride{TaxRatePercent: &tax}
	f := newFixture(t, staticExtractor(data))

	res, err := f.svc.HandleMessage(context.Background(), message("s1", "Dana, 400 sq ft of walls, tax is 150%"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Preview != nil {
		t.Fatalf("out-of-range tax must not be priced, got %+v", res.Preview)
	}
	if res.Session.Stage != domain.StageReadyToPrice {
		t.Fatalf("expected ready_to_price, got %s", res.Session.Stage)
	}
	if !strings.Contains(res.Reply, "taxRatePercent must not exceed 100 (got 150)") {
		t.Fatalf("reply should name the offending setting, got %q", res.Reply)
	}
	if strings.Contains(res.Reply, "Tell me about the surfaces") || strings.Contains(res.Reply, "$") {
		t.Fatalf("reply must not ask for surfaces again or quote amounts, got %q", res.Reply)
	}
}

func TestHandleMessage_ReadyButPricingInputsUnavailable(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()))
	f.repo.err = errors.New("connection refused")

	res, err := f.svc.HandleMessage(context.Background(), message("s1", "Dana, 400 sq ft of walls"))
	if err != nil {
		t.Fatalf("chat turn must survive a preview failure: %v", err)
	}
	if res.Preview != nil {
		t.Fatal("expected no preview")
	}
	if !strings.Contains(res.Reply, "couldn't calculate a price") || strings.Contains(res.Reply, "Tell me about the surfaces") {
		t.Fatalf("reply should explain pricing is unavailable, got %q", res.Reply)
	}
}

func TestHandleMessage_ExtractionFailureAsksToRephrase(t *testing.T) {
	failing := extractorFunc(func(context.Context, []domain.ConversationTurn) (domain.ParsedQuoteData, error) {
		return domain.ParsedQuoteData{}, domain.ErrExtractionFailure
	})
	f := newFixture(t, failing)

	_, err := f.svc.HandleMessage(context.Background(), message("s1", "asdf"))
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if !strings.Contains(err.Error(), "rephrase") {
		t.Fatalf("expected rephrase hint, got %q", err.Error())
	}
}

func TestHandleMessage_RejectsEmptyText(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()))
	_, err := f.svc.HandleMessage(context.Background(), message("s1", " \x00\t "))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleMessage_RateLimited(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()), func(d *Deps) {
		d.ChatLimiter = denyLimiter{retryAfter: 90 * time.Second}
	})

	_, err := f.svc.HandleMessage(context.Background(), message("s1", "hello"))
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindTooManyRequests {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	details, ok := appErr.Details.(apperr.RetryAfterDetails)
	if !ok || details.RetryAfterSeconds != 90 {
		t.Fatalf("expected retry after 90s, got %+v", appErr.Details)
	}
	if f.store.Len() != 0 {
		t.Fatal("a limited message must not be stored")
	}
}

func TestHandleMessage_LimiterFailureFailsOpen(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()), func(d *Deps) {
		d.ChatLimiter = brokenLimiter{}
	})
	if _, err := f.svc.HandleMessage(context.Background(), message("s1", "hello")); err != nil {
		t.Fatalf("limiter failure must not block the user: %v", err)
	}
}

func TestHandleMessage_StaleExtractionIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	extractor := extractorFunc(func(_ context.Context, turns []domain.ConversationTurn) (domain.ParsedQuoteData, error) {
		if len(turns) == 1 {
			close(entered)
			<-release
			return domain.ParsedQuoteData{Customer: domain.Customer{Name: "Stale"}}, nil
		}
		return domain.ParsedQuoteData{Customer: domain.Customer{Name: "Fresh"}}, nil
	})
	f := newFixture(t, extractor)

	type outcome struct {
		res TurnResult
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := f.svc.HandleMessage(context.Background(), message("s1", "first"))
		first <- outcome{res, err}
	}()

	<-entered
	second, err := f.svc.HandleMessage(context.Background(), message("s1", "second"))
	if err != nil || !second.Applied {
		t.Fatalf("second message should apply, got %+v, %v", second, err)
	}
	close(release)

	got := <-first
	if got.err != nil {
		t.Fatalf("unexpected error: %v", got.err)
	}
	if got.res.Applied || got.res.Reply != "" {
		t.Fatalf("overtaken message must not apply, got %+v", got.res)
	}
	if name := got.res.Session.Data.Customer.Name; name != "Fresh" {
		t.Fatalf("expected newest extraction to win, got %q", name)
	}
}

func TestGetSession_OtherCompanyGetsNotFound(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()))
	if _, err := f.svc.HandleMessage(context.Background(), message("s1", "hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.GetSession(context.Background(), uuid.New(), userID, "s1"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.svc.EvictSession(context.Background(), uuid.New(), userID, "s1"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	other := MessageInput{CompanyID: uuid.New(), UserID: userID, SessionID: "s1", Text: "hi"}
	if _, err := f.svc.HandleMessage(context.Background(), other); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := f.svc.EvictSession(context.Background(), companyID, userID, "s1"); err != nil {
		t.Fatalf("owner should evict: %v", err)
	}
	if _, err := f.svc.GetSession(context.Background(), companyID, userID, "s1"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected evicted session to be gone, got %v", err)
	}
}

func TestFinalize_CreatesNumberedDraft(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()))
	f.repo.settings = domain.QuoteSettings{OverheadPercent: 10, ProfitMarginPercent: 20, TaxRatePercent: 5}
	ctx := context.Background()

	if _, err := f.svc.HandleMessage(ctx, message("s1", "Dana, 400 sq ft walls")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := f.svc.Finalize(ctx, FinalizeInput{CompanyID: companyID, UserID: userID, SessionID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := res.Quote
	if !strings.HasPrefix(q.QuoteNumber, "Q-") || !strings.HasSuffix(q.QuoteNumber, "-00001") {
		t.Fatalf("unexpected quote number %q", q.QuoteNumber)
	}
	if q.Status != domain.QuoteStatusDraft || q.Forced {
		t.Fatalf("unexpected quote state %+v", q)
	}
	// 2800 * 1.10 * 1.20 * 1.05
	if q.Breakdown.Total != 3880.8 {
		t.Fatalf("expected total 3880.8, got %v", q.Breakdown.Total)
	}
	if len(f.repo.quotes) != 1 {
		t.Fatalf("expected one persisted quote, got %d", len(f.repo.quotes))
	}

	sess, _ := f.svc.GetSession(ctx, companyID, userID, "s1")
	if sess.Stage != domain.StagePriced || sess.Quote == nil || sess.Quote.Number != q.QuoteNumber {
		t.Fatalf("session should be priced with quote ref, got %+v", sess)
	}

	if len(f.bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.bus.events))
	}
	created, ok := f.bus.events[0].(events.QuoteCreated)
	if !ok || created.QuoteNumber != q.QuoteNumber || created.SessionID != "s1" {
		t.Fatalf("unexpected event %+v", f.bus.events[0])
	}

	if _, err := f.svc.Finalize(ctx, FinalizeInput{CompanyID: companyID, UserID: userID, SessionID: "s1"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second finalize should conflict, got %v", err)
	}
	if _, err := f.svc.HandleMessage(ctx, message("s1", "one more thing")); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("chatting on a priced session should conflict, got %v", err)
	}
}

func TestFinalize_ReadinessGateAppliesEvenWhenForced(t *testing.T) {
	data := completeData()
	data.Surfaces[0].Area = 0
	f := newFixture(t, staticExtractor(data))
	ctx := context.Background()
	_, _ = f.svc.HandleMessage(ctx, message("s1", "walls"))

	_, err := f.svc.Finalize(ctx, FinalizeInput{CompanyID: companyID, UserID: userID, SessionID: "s1", Force: true})
	if !errors.Is(err, domain.ErrNotReady) || !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected not-ready validation error, got %v", err)
	}
	var appErr *apperr.Error
	errors.As(err, &appErr)
	details, ok := appErr.Details.(NotReadyDetails)
	if !ok || len(details.Questions) == 0 || !strings.Contains(details.Questions[0], "sq ft") {
		t.Fatalf("expected clarification questions in details, got %+v", appErr.Details)
	}
	if len(f.repo.quotes) != 0 {
		t.Fatal("no quote may be created for unready data")
	}
}

func TestFinalize_ForceSkipsMissingContact(t *testing.T) {
	data := completeData()
	data.Customer.Email = ""
	f := newFixture(t, staticExtractor(data))
	ctx := context.Background()
	_, _ = f.svc.HandleMessage(ctx, message("s1", "Dana, 400 sq ft walls"))

	_, err := f.svc.Finalize(ctx, FinalizeInput{CompanyID: companyID, UserID: userID, SessionID: "s1"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without force, got %v", err)
	}

	res, err := f.svc.Finalize(ctx, FinalizeInput{CompanyID: companyID, UserID: userID, SessionID: "s1", Force: true})
	if err != nil {
		t.Fatalf("forced finalize failed: %v", err)
	}
	if !res.Quote.Forced {
		t.Fatal("forced quote should be flagged")
	}
}

func TestFinalize_DisclosesDroppedSurfaces(t *testing.T) {
	data := completeData()
	data.Confidence.Assumptions = []string{`Dropped unrecognized surface "deck"`}
	f := newFixture(t, staticExtractor(data))
	ctx := context.Background()
	_, _ = f.svc.HandleMessage(ctx, message("s1", "walls and a deck"))

	res, err := f.svc.Finalize(ctx, FinalizeInput{CompanyID: companyID, UserID: userID, SessionID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Quote.Breakdown.Assumptions) == 0 || res.Quote.Breakdown.Assumptions[0] != data.Confidence.Assumptions[0] {
		t.Fatalf("expected extraction assumptions on the quote, got %v", res.Quote.Breakdown.Assumptions)
	}
}

func TestFinalize_InvalidOverrideIsRejected(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()))
	ctx := context.Background()
	_, _ = f.svc.HandleMessage(ctx, message("s1", "Dana, 400 sq ft walls"))

	negative := -5.0
	_, err := f.svc.Finalize(ctx, FinalizeInput{
		CompanyID: companyID, UserID: userID, SessionID: "s1",
		Override: &domain.SettingsOverride{ProfitMarginPercent: &negative},
	})
	if !errors.Is(err, domain.ErrInvalidSettings) || !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected invalid settings, got %v", err)
	}
	if len(f.repo.quotes) != 0 {
		t.Fatal("invalid settings must not produce a quote")
	}
}

func TestFinalize_RateLimited(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()), func(d *Deps) {
		d.QuoteLimiter = denyLimiter{retryAfter: time.Minute}
	})
	_, err := f.svc.Finalize(context.Background(), FinalizeInput{CompanyID: companyID, UserID: userID, SessionID: "s1"})
	if !apperr.Is(err, apperr.KindTooManyRequests) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestFinalize_DegradedNumbering(t *testing.T) {
	broken := numbering.CounterFunc(func(context.Context, uuid.UUID) (int64, error) {
		return 0, errors.New("counter down")
	})
	f := newFixture(t, staticExtractor(completeData()), func(d *Deps) {
		d.Numbers = numbering.NewGenerator(broken)
	})
	ctx := context.Background()
	_, _ = f.svc.HandleMessage(ctx, message("s1", "Dana, 400 sq ft walls"))

	res, err := f.svc.Finalize(ctx, FinalizeInput{CompanyID: companyID, UserID: userID, SessionID: "s1"})
	if err != nil {
		t.Fatalf("degraded numbering must not fail quote creation: %v", err)
	}
	if !res.DegradedNumber {
		t.Fatal("expected degraded number")
	}
}

func TestPreview(t *testing.T) {
	f := newFixture(t, staticExtractor(completeData()))
	ctx := context.Background()

	got, err := f.svc.Preview(ctx, companyID, completeData().Surfaces, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 2800 || got.LaborCost != 1120 || got.MaterialsCost != 1680 {
		t.Fatalf("unexpected breakdown %+v", got)
	}

	if _, err := f.svc.Preview(ctx, companyID, nil, nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for no surfaces, got %v", err)
	}

	tax := 150.0
	if _, err := f.svc.Preview(ctx, companyID, completeData().Surfaces, &domain.SettingsOverride{TaxRatePercent: &tax}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for tax above 100, got %v", err)
	}
	if len(f.repo.quotes) != 0 {
		t.Fatal("preview must not persist")
	}
}

func TestComposeReplyNeverInventsNumbers(t *testing.T) {
	reply := composeReply(domain.ParsedQuoteData{}, []string{"What is the customer's name?"}, nil, nil)
	if strings.Contains(reply, "$") {
		t.Fatalf("reply without a preview must not contain amounts: %q", reply)
	}
}
