package source

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mhradil/flatbot/internal/models"
	"github.com/mhradil/flatbot/internal/util"
)

const (
	bravisBaseURL  = "https://www.bravis.cz"
	bravisListPath = "/en/looking-for-apartment?mesto=brno&action=search"
)

// bravis has no data API; the listing page is scraped with goquery.
type bravis struct {
	client  *http.Client
	baseURL string
}

func newBravis(client *http.Client) *bravis {
	return &bravis{client: client, baseURL: bravisBaseURL}
}

func (b *bravis) Name() string    { return "Bravis" }
func (b *bravis) Color() int      { return 0xF7A600 }
func (b *bravis) LogoURL() string { return "https://www.bravis.cz/images/logo.png" }

func (b *bravis) Fetch(ctx context.Context) ([]models.Offer, error) {
	doc, err := getDocument(ctx, b.client, b.baseURL+bravisListPath)
	if err != nil {
		return nil, err
	}

	var offers []models.Offer
	doc.Find(".itemslist li.item").Each(func(_ int, item *goquery.Selection) {
		titleLink := item.Find("h2 a").First()
		href, ok := titleLink.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		offer := models.Offer{
			SourceID: "bravis",
			Title:    strings.TrimSpace(titleLink.Text()),
			Link:     util.AbsoluteURL(b.baseURL, href),
			Location: strings.TrimSpace(item.Find(".location").First().Text()),
			Price:    parseBravisPrice(item.Find(".price").First().Text()),
		}

		if src, ok := item.Find(".image img").First().Attr("src"); ok {
			offer.ImageURL = util.AbsoluteURL(b.baseURL, src)
		}

		offers = append(offers, offer)
	})
	return offers, nil
}

// parseBravisPrice strips the currency suffix the listing page appends,
// e.g. "12 500 CZK". Anything else (ranges, "by agreement") stays opaque.
func parseBravisPrice(text string) models.Price {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimSuffix(cleaned, ",-")
	cleaned = strings.TrimSuffix(cleaned, "CZK")
	cleaned = strings.TrimSuffix(cleaned, "Kč")
	price := models.ParsePrice(strings.TrimSpace(cleaned))
	price.Raw = strings.TrimSpace(text)
	return price
}
