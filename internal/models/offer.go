package models

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-playground/validator/v10"
)

// Offer is one rental listing, normalized away from its source's markup.
//
// The Link is the offer's identity: two offers are the same listing iff
// their links are equal. Title, price and location may change between
// fetches without creating a new listing. Sources are required to produce
// links that are unique across all configured sources; the dedup store
// relies on that and does not disambiguate colliding links.
type Offer struct {
	SourceID string `validate:"required"`
	Title    string `validate:"required"`
	Link     string `validate:"required,url"`
	Location string
	Price    Price
	ImageURL string
}

// ID returns the stable identity of the offer used by the dedup store.
func (o Offer) ID() string {
	hash := sha256.Sum256([]byte(o.Link))
	return hex.EncodeToString(hash[:])
}

var validate = validator.New()

// Validate reports whether the offer carries the minimum required fields.
func (o Offer) Validate() error {
	return validate.Struct(o)
}
