// Package gateway describes the payment gateway's order contract: the
// create-order payload, the uniform Result, access tokens and the ports the
// application depends on.
package gateway

const (
	IntentCapture = "CAPTURE"
	ShippingType  = "SHIPPING"
)

// Money is a currency amount already formatted to the currency's subunit.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type Breakdown struct {
	ItemTotal Money `json:"item_total"`
}

type Amount struct {
	Money
	Breakdown Breakdown `json:"breakdown"`
}

type LineItem struct {
	Name       string `json:"name"`
	UnitAmount Money  `json:"unit_amount"`
	Quantity   string `json:"quantity"`
}

type ShippingName struct {
	FullName string `json:"full_name"`
}

type Address struct {
	AddressLine1 string `json:"address_line_1,omitempty"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	AdminArea1   string `json:"admin_area_1,omitempty"`
	AdminArea2   string `json:"admin_area_2,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	CountryCode  string `json:"country_code"`
}

type Shipping struct {
	Type    string       `json:"type"`
	Name    ShippingName `json:"name"`
	Address Address      `json:"address"`
}

type PurchaseUnit struct {
	Amount   Amount     `json:"amount"`
	Items    []LineItem `json:"items"`
	Shipping *Shipping  `json:"shipping,omitempty"`
}

type PayerName struct {
	GivenName string `json:"given_name,omitempty"`
	Surname   string `json:"surname,omitempty"`
}

type Payer struct {
	EmailAddress string     `json:"email_address,omitempty"`
	Name         *PayerName `json:"name,omitempty"`
}

// OrderPayload is the body of the order-creation call.
type OrderPayload struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
	Payer         *Payer         `json:"payer,omitempty"`
}
