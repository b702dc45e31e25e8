// Package aggregator fans fetches out to all configured sources and
// merges their results into one batch.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mhradil/flatbot/internal/metrics"
	"github.com/mhradil/flatbot/internal/models"
	"github.com/mhradil/flatbot/internal/source"
)

const maxConcurrentFetches = 4

// Aggregator runs the configured sources concurrently. A failing source
// never affects the others; it contributes zero offers for the tick.
type Aggregator struct {
	sources []source.Source
	timeout time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func New(sources []source.Source, timeout time.Duration, log zerolog.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		sources: sources,
		timeout: timeout,
		log:     log,
		metrics: m,
	}
}

// FetchAll collects offers from every source. Results keep the
// registration order of the sources regardless of which finished first.
func (a *Aggregator) FetchAll(ctx context.Context) []models.Offer {
	results := make([][]models.Offer, len(a.sources))

	var group errgroup.Group
	group.SetLimit(maxConcurrentFetches)

	for i, src := range a.sources {
		i, src := i, src
		group.Go(func() error {
			offers, err := a.fetchOne(ctx, src)
			if err != nil {
				a.log.Error().Err(err).Str("source", src.Name()).Msg("source fetch failed")
				a.metrics.IncSourceError(src.Name())
				return nil
			}
			results[i] = offers
			return nil
		})
	}
	// goroutines log their own failures and never return an error
	_ = group.Wait()

	var merged []models.Offer
	for i, offers := range results {
		merged = append(merged, offers...)
		a.log.Debug().Str("source", a.sources[i].Name()).Int("offers", len(offers)).Msg("source fetched")
	}
	a.metrics.AddFetched(len(merged))
	return merged
}

func (a *Aggregator) fetchOne(ctx context.Context, src source.Source) (offers []models.Offer, err error) {
	defer func() {
		if r := recover(); r != nil {
			offers, err = nil, fmt.Errorf("source %s panicked: %v", src.Name(), r)
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	fetched, err := src.Fetch(fetchCtx)
	if err != nil {
		return nil, err
	}

	valid := fetched[:0]
	for _, offer := range fetched {
		if verr := offer.Validate(); verr != nil {
			a.log.Warn().Err(verr).Str("source", src.Name()).Str("title", offer.Title).Msg("dropping malformed offer")
			continue
		}
		valid = append(valid, offer)
	}
	return valid, nil
}
