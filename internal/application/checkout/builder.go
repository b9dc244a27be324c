package checkout

import (
	"strconv"
	"strings"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USD"

// OrderBuilder prices a cart from the catalog and assembles the create-order payload.
type OrderBuilder struct {
	catalog  Catalog
	currency string
}

func NewOrderBuilder(c Catalog, currency string) *OrderBuilder {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return &OrderBuilder{catalog: c, currency: currency}
}

func (b *OrderBuilder) Currency() string { return b.currency }

// BuildCreatePayload resolves every line against the catalog and computes the total
// itself. The amount, the item_total breakdown and the line items are all formatted
// from the same cent-exact decimals, so they always agree.
func (b *OrderBuilder) BuildCreatePayload(req domain.OrderRequest) (*gateway.OrderPayload, error) {
	if len(req.Items) == 0 {
		return nil, domain.EmptyCart()
	}

	total := decimal.Zero
	items := make([]gateway.LineItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, domain.InvalidQuantity(line.ItemID, line.Quantity)
		}
		item, err := b.catalog.Lookup(line.ItemID)
		if err != nil {
			return nil, err
		}

		unit := item.UnitPrice.Round(2)
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, gateway.LineItem{
			Name:       item.Name,
			UnitAmount: b.money(unit),
			Quantity:   strconv.Itoa(line.Quantity),
		})
	}

	amount := b.money(total)
	return &gateway.OrderPayload{
		Intent: gateway.IntentCapture,
		PurchaseUnits: []gateway.PurchaseUnit{{
			Amount: gateway.Amount{
				Money:     amount,
				Breakdown: gateway.Breakdown{ItemTotal: amount},
			},
			Items:    items,
			Shipping: shippingFor(req.Person, req.Address),
		}},
		Payer: payerFor(req.Person),
	}, nil
}

func (b *OrderBuilder) money(d decimal.Decimal) gateway.Money {
	return gateway.Money{CurrencyCode: b.currency, Value: d.StringFixed(2)}
}

func shippingFor(person domain.BuyerInfo, addr domain.ShippingAddress) *gateway.Shipping {
	return &gateway.Shipping{
		Type: gateway.ShippingType,
		Name: gateway.ShippingName{FullName: person.FullName()},
		Address: gateway.Address{
			AddressLine1: addr.Line1,
			AddressLine2: addr.Line2,
			AdminArea1:   addr.State,
			AdminArea2:   addr.City,
			PostalCode:   addr.ZipCode,
			CountryCode:  addr.CountryCode,
		},
	}
}

func payerFor(person domain.BuyerInfo) *gateway.Payer {
	if person.Email == "" && person.FirstName == "" && person.LastName == "" {
		return nil
	}
	p := &gateway.Payer{EmailAddress: person.Email}
	if person.FirstName != "" || person.LastName != "" {
		p.Name = &gateway.PayerName{GivenName: person.FirstName, Surname: person.LastName}
	}
	return p
}
