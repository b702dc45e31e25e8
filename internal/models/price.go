package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Price keeps the advertised price either as a parsed non-negative amount
// in CZK or as the original opaque text ("dohodou", ranges, empty, ...).
// Opaque prices never compare against a ceiling; they are simply not
// numeric.
type Price struct {
	Amount  int
	Raw     string
	Numeric bool
}

// digitGroupSeparators are stripped before deciding whether a price is
// numeric. Listing sites format "12 500" with regular, non-breaking or
// narrow spaces.
var digitGroupSeparators = strings.NewReplacer(" ", "", " ", "", " ", "")

var numericPriceRegex = regexp.MustCompile(`^[0-9]+$`)

// ParsePrice classifies a raw price string. Anything that is not a plain
// non-negative integer after removing digit group separators stays opaque.
func ParsePrice(raw string) Price {
	cleaned := digitGroupSeparators.Replace(strings.TrimSpace(raw))
	if !numericPriceRegex.MatchString(cleaned) {
		return Price{Raw: raw}
	}
	amount, err := strconv.Atoi(cleaned)
	if err != nil {
		// Out of int range; keep it opaque rather than truncating.
		return Price{Raw: raw}
	}
	return Price{Amount: amount, Raw: raw, Numeric: true}
}

// NumericPrice builds a Price from an amount a source already parsed.
func NumericPrice(amount int) Price {
	if amount < 0 {
		return Price{Raw: strconv.Itoa(amount)}
	}
	return Price{Amount: amount, Raw: strconv.Itoa(amount), Numeric: true}
}

// Format renders the price for display, with the currency suffix when the
// amount is known.
func (p Price) Format() string {
	if !p.Numeric {
		if strings.TrimSpace(p.Raw) == "" {
			return "neuvedena"
		}
		return p.Raw
	}
	return fmt.Sprintf("%d Kč", p.Amount)
}
