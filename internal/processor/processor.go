// Package processor drives one tick of the offer pipeline:
// aggregate, dedup, persist, filter, notify.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mhradil/flatbot/internal/filter"
	"github.com/mhradil/flatbot/internal/metrics"
	"github.com/mhradil/flatbot/internal/models"
	"github.com/mhradil/flatbot/internal/notifier"
)

type OfferProcessor struct {
	aggregator OfferAggregator
	store      OfferStore
	notifier   OfferNotifier
	metas      map[string]notifier.SourceMeta
	maxPrice   int
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

func New(agg OfferAggregator, store OfferStore, n OfferNotifier, metas map[string]notifier.SourceMeta, maxPrice int, log zerolog.Logger, m *metrics.Metrics) *OfferProcessor {
	return &OfferProcessor{
		aggregator: agg,
		store:      store,
		notifier:   n,
		metas:      metas,
		maxPrice:   maxPrice,
		log:        log,
		metrics:    m,
	}
}

// ProcessOffers runs one full tick. Offers never seen before are saved
// in one batch; the ones within the price ceiling are announced, except
// on the very first run against an empty store, which only seeds the
// dedup table.
func (p *OfferProcessor) ProcessOffers(ctx context.Context) error {
	start := time.Now()

	offers := p.aggregator.FetchAll(ctx)
	p.log.Info().Int("offers", len(offers)).Msg("sources aggregated")

	// Snapshot before saving: the flag flips as soon as the first batch lands.
	firstTime := p.store.FirstTime()

	var fresh []models.Offer
	for _, offer := range offers {
		seen, err := p.store.Contains(ctx, offer)
		if err != nil {
			p.log.Warn().Err(err).Str("link", offer.Link).Msg("dedup check failed, skipping offer")
			continue
		}
		if !seen {
			fresh = append(fresh, offer)
		}
	}

	if err := p.store.SaveOffers(ctx, fresh); err != nil {
		return fmt.Errorf("saving offers: %w", err)
	}
	p.metrics.AddNew(len(fresh))

	if firstTime {
		p.log.Info().Int("seeded", len(fresh)).Msg("first run, seeding dedup table without notifying")
	} else {
		p.announce(ctx, fresh)
	}

	if err := p.notifier.UpdateMarker(ctx, time.Now()); err != nil {
		p.log.Warn().Err(err).Msg("channel marker update failed")
	}

	p.metrics.ObserveTick(time.Since(start))
	return nil
}

func (p *OfferProcessor) announce(ctx context.Context, fresh []models.Offer) {
	for _, offer := range fresh {
		if !filter.InRange(offer, p.maxPrice) {
			p.log.Debug().Str("link", offer.Link).Str("price", offer.Price.Format()).Msg("offer out of price range")
			continue
		}
		if err := p.notifier.Announce(ctx, offer, p.metas[offer.SourceID]); err != nil {
			p.log.Error().Err(err).Str("link", offer.Link).Msg("offer notification failed")
			p.metrics.IncNotifyError()
			continue
		}
		p.metrics.IncSent()
		p.log.Info().Str("source", offer.SourceID).Str("link", offer.Link).Msg("offer announced")
	}
}
