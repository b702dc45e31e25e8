package source

import (
	"context"
	"net/http"

	"github.com/mhradil/flatbot/internal/models"
)

const ulovdomovFindURL = "https://www.ulovdomov.cz/fe-api/find"

// ulovDomov queries the search API used by the site's frontend. The search
// is bounded to the Brno area with a fixed viewport.
type ulovDomov struct {
	client  *http.Client
	findURL string
}

func newUlovDomov(client *http.Client) *ulovDomov {
	return &ulovDomov{client: client, findURL: ulovdomovFindURL}
}

func (u *ulovDomov) Name() string    { return "UlovDomov" }
func (u *ulovDomov) Color() int      { return 0x5B37B7 }
func (u *ulovDomov) LogoURL() string { return "https://www.ulovdomov.cz/favicon-96x96.png" }

type ulovDomovQuery struct {
	OfferTypeID int            `json:"offer_type_id"`
	Limit       int            `json:"limit"`
	Page        int            `json:"page"`
	Bounds      ulovDomovBound `json:"bounds"`
}

type ulovDomovBound struct {
	NorthEast ulovDomovPoint `json:"north_east"`
	SouthWest ulovDomovPoint `json:"south_west"`
}

type ulovDomovPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ulovDomovOffer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	AbsoluteURL string `json:"absolute_url"`
	PriceRental int    `json:"price_rental"`
	Village     struct {
		Name string `json:"name"`
	} `json:"village"`
	Photos []struct {
		Path string `json:"path"`
	} `json:"photos"`
}

type ulovDomovResponse struct {
	Offers []ulovDomovOffer `json:"offers"`
}

func (u *ulovDomov) Fetch(ctx context.Context) ([]models.Offer, error) {
	query := ulovDomovQuery{
		OfferTypeID: 1, // rentals
		Limit:       40,
		Page:        1,
		Bounds: ulovDomovBound{
			NorthEast: ulovDomovPoint{Lat: 49.294485, Lng: 16.727853},
			SouthWest: ulovDomovPoint{Lat: 49.109655, Lng: 16.428068},
		},
	}

	var resp ulovDomovResponse
	if err := postJSON(ctx, u.client, u.findURL, query, &resp); err != nil {
		return nil, err
	}

	offers := make([]models.Offer, 0, len(resp.Offers))
	for _, item := range resp.Offers {
		if item.AbsoluteURL == "" {
			continue
		}

		price := models.Price{Raw: "dohodou"}
		if item.PriceRental > 0 {
			price = models.NumericPrice(item.PriceRental)
		}

		var image string
		if len(item.Photos) > 0 {
			image = item.Photos[0].Path
		}

		offers = append(offers, models.Offer{
			SourceID: "ulovdomov",
			Title:    item.Name,
			Link:     item.AbsoluteURL,
			Location: item.Village.Name,
			Price:    price,
			ImageURL: image,
		})
	}
	return offers, nil
}
