package processor

import (
	"context"
	"time"

	"github.com/mhradil/flatbot/internal/models"
	"github.com/mhradil/flatbot/internal/notifier"
)

// OfferAggregator abstracts the fan-out fetch over all sources.
type OfferAggregator interface {
	FetchAll(ctx context.Context) []models.Offer
}

// OfferStore abstracts the dedup storage layer.
type OfferStore interface {
	FirstTime() bool
	Contains(ctx context.Context, offer models.Offer) (bool, error)
	SaveOffers(ctx context.Context, batch []models.Offer) error
}

// OfferNotifier abstracts the notification layer.
type OfferNotifier interface {
	Announce(ctx context.Context, offer models.Offer, meta notifier.SourceMeta) error
	UpdateMarker(ctx context.Context, at time.Time) error
}
