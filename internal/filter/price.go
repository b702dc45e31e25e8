// Package filter classifies offers against the configured price ceiling.
package filter

import "github.com/mhradil/flatbot/internal/models"

// InRange reports whether the offer's price is a known numeric amount not
// exceeding ceiling. Opaque prices ("dohodou", ranges, malformed text) are
// never in range; the function is total and never fails.
func InRange(offer models.Offer, ceiling int) bool {
	return offer.Price.Numeric && offer.Price.Amount <= ceiling
}
