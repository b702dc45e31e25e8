package source

import (
	"context"
	"net/http"

	"github.com/mhradil/flatbot/internal/models"
)

const (
	bezrealitkyAPIURL    = "https://api.bezrealitky.cz/graphql/"
	bezrealitkyDetailURL = "https://www.bezrealitky.cz/nemovitosti-byty-domy/"
)

// Adverts are listed directly by owners; the GraphQL API is the same one
// the public frontend uses.
const bezrealitkyQuery = `query AdvertList {
  listAdverts(offerType: PRONAJEM, estateType: BYT, regionOsmIds: ["R438171"], limit: 40) {
    list {
      id
      uri
      imageAltText
      address(locale: CS)
      price
      charges
      mainImage { url }
    }
  }
}`

type bezrealitky struct {
	client *http.Client
	apiURL string
}

func newBezrealitky(client *http.Client) *bezrealitky {
	return &bezrealitky{client: client, apiURL: bezrealitkyAPIURL}
}

func (b *bezrealitky) Name() string    { return "Bezrealitky" }
func (b *bezrealitky) Color() int      { return 0x2FAC66 }
func (b *bezrealitky) LogoURL() string { return "https://www.bezrealitky.cz/favicon-96.png" }

type bezrealitkyAdvert struct {
	ID           string `json:"id"`
	URI          string `json:"uri"`
	ImageAltText string `json:"imageAltText"`
	Address      string `json:"address"`
	Price        int    `json:"price"`
	Charges      int    `json:"charges"`
	MainImage    struct {
		URL string `json:"url"`
	} `json:"mainImage"`
}

type bezrealitkyResponse struct {
	Data struct {
		ListAdverts struct {
			List []bezrealitkyAdvert `json:"list"`
		} `json:"listAdverts"`
	} `json:"data"`
}

func (b *bezrealitky) Fetch(ctx context.Context) ([]models.Offer, error) {
	body := map[string]string{"query": bezrealitkyQuery}

	var resp bezrealitkyResponse
	if err := postJSON(ctx, b.client, b.apiURL, body, &resp); err != nil {
		return nil, err
	}

	adverts := resp.Data.ListAdverts.List
	offers := make([]models.Offer, 0, len(adverts))
	for _, advert := range adverts {
		if advert.URI == "" {
			continue
		}

		title := advert.ImageAltText
		if title == "" {
			title = "Nabídka " + advert.ID
		}

		// The advertised rent excludes utilities; show the full monthly cost.
		price := models.Price{Raw: "dohodou"}
		if advert.Price > 0 {
			price = models.NumericPrice(advert.Price + advert.Charges)
		}

		offers = append(offers, models.Offer{
			SourceID: "bezrealitky",
			Title:    title,
			Link:     bezrealitkyDetailURL + advert.URI,
			Location: advert.Address,
			Price:    price,
			ImageURL: advert.MainImage.URL,
		})
	}
	return offers, nil
}
