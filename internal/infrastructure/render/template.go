package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/Rhymond/go-money"
	"github.com/flyerkit/backend/internal/domain"
	"github.com/shopspring/decimal"
)

//go:embed templates/flyer.html.tmpl
var templateFS embed.FS

var flyerTemplate = template.Must(template.ParseFS(templateFS, "templates/flyer.html.tmpl"))

// flyerData is the view model handed to the flyer template
type flyerData struct {
	Campaign      *domain.Campaign
	Items         []flyerItem
	Width         int
	Height        int
	AssetBaseURL  string
	HeroURL       template.URL
	BackgroundURL template.URL
}

type flyerItem struct {
	Name     string
	Variant  string
	Price    string
	ImageURL template.URL
}

// renderHTML executes the flyer template for one chunk of items.
// Image paths go through assets so the browser can load them from a local file.
func renderHTML(campaign *domain.Campaign, chunk []domain.CampaignItem, cfg Config, assets assetResolver) ([]byte, error) {
	data := flyerData{
		Campaign:      campaign,
		Items:         make([]flyerItem, 0, len(chunk)),
		Width:         cfg.Width,
		Height:        cfg.Height,
		AssetBaseURL:  cfg.AssetBaseURL,
		HeroURL:       assets(campaign.Theme.HeroPath),
		BackgroundURL: assets(campaign.Theme.BackgroundPath),
	}

	for _, item := range chunk {
		fi := flyerItem{
			Variant: item.VariantLabel,
			Price:   FormatPrice(item.Price, cfg.Currency),
		}
		if item.Product != nil {
			fi.Name = item.Product.Name
			fi.ImageURL = assets(item.Product.ImagePath)
		}
		data.Items = append(data.Items, fi)
	}

	var buf bytes.Buffer
	if err := flyerTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute flyer template: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatPrice renders a decimal amount in the currency's local display format, e.g. "R$9,99".
// Unknown currency codes fall back to BRL.
func FormatPrice(amount decimal.Decimal, currencyCode string) string {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(money.BRL)
	}

	multiplier := decimal.New(1, int32(currency.Fraction))
	cents := amount.Mul(multiplier).Round(0).IntPart()

	return money.New(cents, currency.Code).Display()
}
