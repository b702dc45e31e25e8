package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mhradil/flatbot/internal/models"
	"github.com/mhradil/flatbot/internal/notifier"
)

// --- Mock implementations ---

type mockAggregator struct {
	offers []models.Offer
}

func (m *mockAggregator) FetchAll(_ context.Context) []models.Offer {
	return m.offers
}

type mockStore struct {
	firstTime   bool
	seen        map[string]bool
	containsErr error
	saveErr     error
	saved       []models.Offer
}

func newMockStore(firstTime bool) *mockStore {
	return &mockStore{firstTime: firstTime, seen: make(map[string]bool)}
}

func (m *mockStore) FirstTime() bool { return m.firstTime }

func (m *mockStore) Contains(_ context.Context, offer models.Offer) (bool, error) {
	if m.containsErr != nil {
		return false, m.containsErr
	}
	return m.seen[offer.ID()], nil
}

func (m *mockStore) SaveOffers(_ context.Context, batch []models.Offer) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, offer := range batch {
		m.seen[offer.ID()] = true
	}
	m.saved = append(m.saved, batch...)
	m.firstTime = false
	return nil
}

type mockNotifier struct {
	announced   []models.Offer
	announceErr error
	markerCalls int
}

func (m *mockNotifier) Announce(_ context.Context, offer models.Offer, _ notifier.SourceMeta) error {
	if m.announceErr != nil {
		return m.announceErr
	}
	m.announced = append(m.announced, offer)
	return nil
}

func (m *mockNotifier) UpdateMarker(_ context.Context, _ time.Time) error {
	m.markerCalls++
	return nil
}

// --- Helpers ---

func offer(title string, price models.Price) models.Offer {
	return models.Offer{
		SourceID: "sreality",
		Title:    title,
		Link:     "https://www.sreality.cz/detail/" + title,
		Price:    price,
	}
}

func newProcessor(agg *mockAggregator, store *mockStore, n *mockNotifier) *OfferProcessor {
	metas := map[string]notifier.SourceMeta{"sreality": {Name: "Sreality"}}
	return New(agg, store, n, metas, 15000, zerolog.Nop(), nil)
}

// --- Tests ---

func TestFirstRunSeedsWithoutNotifying(t *testing.T) {
	agg := &mockAggregator{offers: []models.Offer{
		offer("a", models.NumericPrice(10000)),
		offer("b", models.NumericPrice(12000)),
	}}
	store := newMockStore(true)
	n := &mockNotifier{}

	if err := newProcessor(agg, store, n).ProcessOffers(context.Background()); err != nil {
		t.Fatalf("ProcessOffers() returned error: %v", err)
	}
	if len(store.saved) != 2 {
		t.Errorf("saved %d offers, want 2", len(store.saved))
	}
	if len(n.announced) != 0 {
		t.Errorf("announced %d offers on first run, want 0", len(n.announced))
	}
	if n.markerCalls != 1 {
		t.Errorf("marker updated %d times, want 1", n.markerCalls)
	}
}

func TestSecondTickAnnouncesOnlyNewOffers(t *testing.T) {
	known := offer("a", models.NumericPrice(10000))
	agg := &mockAggregator{offers: []models.Offer{known}}
	store := newMockStore(true)
	n := &mockNotifier{}
	proc := newProcessor(agg, store, n)

	if err := proc.ProcessOffers(context.Background()); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	fresh := offer("b", models.NumericPrice(12000))
	agg.offers = []models.Offer{known, fresh}

	if err := proc.ProcessOffers(context.Background()); err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if len(n.announced) != 1 || n.announced[0].Title != "b" {
		t.Fatalf("announced = %+v, want only the fresh offer", n.announced)
	}
	if len(store.saved) != 2 {
		t.Errorf("saved %d offers across both ticks, want 2", len(store.saved))
	}
}

func TestPriceCeilingAppliesToNotificationsOnly(t *testing.T) {
	agg := &mockAggregator{offers: []models.Offer{
		offer("at-ceiling", models.NumericPrice(15000)),
		offer("above-ceiling", models.NumericPrice(15001)),
		offer("on-request", models.ParsePrice("dohodou")),
	}}
	store := newMockStore(false)
	n := &mockNotifier{}

	if err := newProcessor(agg, store, n).ProcessOffers(context.Background()); err != nil {
		t.Fatalf("ProcessOffers() returned error: %v", err)
	}
	if len(store.saved) != 3 {
		t.Errorf("saved %d offers, want all 3 regardless of price", len(store.saved))
	}
	if len(n.announced) != 1 || n.announced[0].Title != "at-ceiling" {
		t.Fatalf("announced = %+v, want only the offer at the ceiling", n.announced)
	}
}

func TestNotifyFailureDoesNotFailTick(t *testing.T) {
	agg := &mockAggregator{offers: []models.Offer{offer("a", models.NumericPrice(10000))}}
	store := newMockStore(false)
	n := &mockNotifier{announceErr: errors.New("webhook down")}

	if err := newProcessor(agg, store, n).ProcessOffers(context.Background()); err != nil {
		t.Fatalf("ProcessOffers() should tolerate notify failures, got %v", err)
	}
	if len(store.saved) != 1 {
		t.Errorf("saved %d offers, want 1 even when notification fails", len(store.saved))
	}
	if n.markerCalls != 1 {
		t.Errorf("marker updated %d times, want 1", n.markerCalls)
	}
}

func TestSaveErrorFailsTick(t *testing.T) {
	agg := &mockAggregator{offers: []models.Offer{offer("a", models.NumericPrice(10000))}}
	store := newMockStore(false)
	store.saveErr = errors.New("disk full")
	n := &mockNotifier{}

	if err := newProcessor(agg, store, n).ProcessOffers(context.Background()); err == nil {
		t.Fatal("ProcessOffers() should fail when the batch cannot be saved")
	}
	if len(n.announced) != 0 {
		t.Errorf("announced %d offers despite failed save, want 0", len(n.announced))
	}
}

func TestContainsErrorSkipsOffer(t *testing.T) {
	agg := &mockAggregator{offers: []models.Offer{offer("a", models.NumericPrice(10000))}}
	store := newMockStore(false)
	store.containsErr = errors.New("db locked")
	n := &mockNotifier{}

	if err := newProcessor(agg, store, n).ProcessOffers(context.Background()); err != nil {
		t.Fatalf("ProcessOffers() returned error: %v", err)
	}
	if len(store.saved) != 0 {
		t.Errorf("saved %d offers whose dedup check failed, want 0", len(store.saved))
	}
	if len(n.announced) != 0 {
		t.Errorf("announced %d offers whose dedup check failed, want 0", len(n.announced))
	}
}
