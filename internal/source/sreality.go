package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mhradil/flatbot/internal/models"
)

const (
	srealityBaseURL = "https://www.sreality.cz"
	// Rental flats in the Brno region, newest first.
	srealityListPath = "/api/cs/v2/estates?category_main_cb=1&category_type_cb=2&locality_region_id=14&per_page=40&sort=0"
)

// sreality reads the public JSON API behind www.sreality.cz.
type sreality struct {
	client  *http.Client
	baseURL string
}

func newSreality(client *http.Client) *sreality {
	return &sreality{client: client, baseURL: srealityBaseURL}
}

func (s *sreality) Name() string    { return "Sreality" }
func (s *sreality) Color() int      { return 0xCC0000 }
func (s *sreality) LogoURL() string { return "https://www.sreality.cz/img/sreality-logo.png" }

type srealityEstate struct {
	HashID int64  `json:"hash_id"`
	Name   string `json:"name"`
	Price  int    `json:"price"`
	Locality struct {
		Value string `json:"value"`
	} `json:"locality"`
	Seo struct {
		Locality string `json:"locality"`
	} `json:"seo"`
	Links struct {
		Images []struct {
			Href string `json:"href"`
		} `json:"images"`
	} `json:"_links"`
}

type srealityResponse struct {
	Embedded struct {
		Estates []srealityEstate `json:"estates"`
	} `json:"_embedded"`
}

func (s *sreality) Fetch(ctx context.Context) ([]models.Offer, error) {
	var resp srealityResponse
	if err := getJSON(ctx, s.client, s.baseURL+srealityListPath, &resp); err != nil {
		return nil, err
	}

	offers := make([]models.Offer, 0, len(resp.Embedded.Estates))
	for _, estate := range resp.Embedded.Estates {
		if estate.HashID == 0 {
			continue
		}

		// Zero price means the landlord hid it behind "by agreement".
		price := models.Price{Raw: "dohodou"}
		if estate.Price > 0 {
			price = models.NumericPrice(estate.Price)
		}

		var image string
		if len(estate.Links.Images) > 0 {
			image = estate.Links.Images[0].Href
		}

		offers = append(offers, models.Offer{
			SourceID: "sreality",
			Title:    estate.Name,
			Link:     fmt.Sprintf("https://www.sreality.cz/detail/pronajem/byt/%s/%d", estate.Seo.Locality, estate.HashID),
			Location: estate.Locality.Value,
			Price:    price,
			ImageURL: image,
		})
	}
	return offers, nil
}
