// Package source holds the pluggable listing providers. The set of
// supported sources is closed and fully known at startup; configuration
// only selects which of them are active.
package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mhradil/flatbot/internal/models"
)

// Source is one listings provider. Fetch returns offers in the order the
// site lists them and must not be called before the registry is built.
// Links returned by a source must be unique across all sources; the dedup
// store treats the link as the offer's global identity.
type Source interface {
	// Name is the human-facing display name used in notifications.
	Name() string
	// Color is the accent color (decimal RGB) for this source's embeds.
	Color() int
	// LogoURL points at the source's logo for the attribution header.
	LogoURL() string
	// Fetch downloads and parses the current listing page. Transport and
	// parse errors are returned to the caller; the aggregator isolates
	// them per source.
	Fetch(ctx context.Context) ([]models.Offer, error)
}

type factory func(client *http.Client) Source

// factories is the closed set of known sources, keyed by config name.
var factories = map[string]factory{
	"sreality":    func(c *http.Client) Source { return newSreality(c) },
	"bezrealitky": func(c *http.Client) Source { return newBezrealitky(c) },
	"ulovdomov":   func(c *http.Client) Source { return newUlovDomov(c) },
	"bravis":      func(c *http.Client) Source { return newBravis(c) },
}

// CreateSources builds the active sources from configured names, in the
// configured order. Construction performs no network I/O. An unknown name
// is a configuration error and fails startup.
func CreateSources(names []string, client *http.Client) ([]Source, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		build, ok := factories[key]
		if !ok {
			return nil, fmt.Errorf("unknown source %q (known: %s)", name, strings.Join(knownNames(), ", "))
		}
		sources = append(sources, build(client))
	}
	return sources, nil
}

func knownNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
