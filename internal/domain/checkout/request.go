// Package checkout models one checkout attempt: the untrusted request a
// storefront sends, the error taxonomy, and the logical stage machine.
package checkout

// CartLine is one item/quantity pair from the caller. It deliberately carries no price.
type CartLine struct {
	ItemID   int `json:"id"`
	Quantity int `json:"quantity"`
}

type BuyerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// FullName joins first and last name, skipping whichever is empty.
func (b BuyerInfo) FullName() string {
	switch {
	case b.FirstName == "":
		return b.LastName
	case b.LastName == "":
		return b.FirstName
	default:
		return b.FirstName + " " + b.LastName
	}
}

type ShippingAddress struct {
	Line1       string `json:"address_line_1"`
	Line2       string `json:"address_line_2"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
	CountryCode string `json:"country"`
}

// OrderRequest is the full body accepted from the storefront.
type OrderRequest struct {
	Items   []CartLine      `json:"items"`
	Person  BuyerInfo       `json:"person"`
	Address ShippingAddress `json:"address"`
}
