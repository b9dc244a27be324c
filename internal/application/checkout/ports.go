package checkout

import (
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
)

// Catalog is the pricing source the builder trusts.
type Catalog interface {
	Lookup(id int) (catalog.Item, error)
}

// GatewayPort is the outbound port for the gateway's order API.
type GatewayPort interface {
	gateway.Orders
}
