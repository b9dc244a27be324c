package checkout

import (
	"errors"
	"fmt"
)

// Kind tags an Error so callers branch on it instead of parsing messages.
type Kind string

const (
	KindMissingCredentials     Kind = "MISSING_CREDENTIALS"
	KindUnknownItem            Kind = "UNKNOWN_ITEM"
	KindEmptyCart              Kind = "EMPTY_CART"
	KindInvalidQuantity        Kind = "INVALID_QUANTITY"
	KindInvalidOrderID         Kind = "INVALID_ORDER_ID"
	KindTokenAcquisitionFailed Kind = "TOKEN_ACQUISITION_FAILED"
	KindGatewayUnreachable     Kind = "GATEWAY_UNREACHABLE"
	KindResponseParseFailed    Kind = "RESPONSE_PARSE_FAILED"
)

const maxBodyExcerpt = 2 << 10

// Error is the single error type of the checkout flow.
// Status, Body and DebugID describe the upstream response when there was one.
type Error struct {
	Kind    Kind
	Message string
	ItemID  int
	Status  int
	Body    string
	DebugID string
	Err     error
}

func (e *Error) Error() string {
	msg := "checkout: " + e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (upstream status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// UpstreamStatus returns the gateway HTTP status carried by err, or 0.
func UpstreamStatus(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Status
	}
	return 0
}

// IsValidation reports whether err is a problem with the caller's request,
// as opposed to a server or upstream fault.
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindUnknownItem, KindEmptyCart, KindInvalidQuantity, KindInvalidOrderID:
		return true
	default:
		return false
	}
}

func UnknownItem(itemID int) *Error {
	return &Error{Kind: KindUnknownItem, ItemID: itemID, Message: fmt.Sprintf("unknown item %d", itemID)}
}

func EmptyCart() *Error {
	return &Error{Kind: KindEmptyCart, Message: "cart is empty"}
}

func InvalidQuantity(itemID, quantity int) *Error {
	return &Error{
		Kind:    KindInvalidQuantity,
		ItemID:  itemID,
		Message: fmt.Sprintf("item %d: quantity must be at least 1, got %d", itemID, quantity),
	}
}

func InvalidOrderID() *Error {
	return &Error{Kind: KindInvalidOrderID, Message: "order id is required"}
}

func MissingCredentials() *Error {
	return &Error{Kind: KindMissingCredentials, Message: "gateway client id and secret must both be configured"}
}

func TokenAcquisitionFailed(status int, body string, err error) *Error {
	return &Error{Kind: KindTokenAcquisitionFailed, Message: "access token acquisition failed", Status: status, Body: excerpt(body), Err: err}
}

func GatewayUnreachable(endpoint string, err error) *Error {
	return &Error{Kind: KindGatewayUnreachable, Message: "gateway unreachable at " + endpoint, Err: err}
}

func ResponseParseFailed(status int, body string, err error) *Error {
	return &Error{Kind: KindResponseParseFailed, Message: "gateway response is not valid JSON", Status: status, Body: excerpt(body), Err: err}
}

func excerpt(body string) string {
	if len(body) <= maxBodyExcerpt {
		return body
	}
	return body[:maxBodyExcerpt] + "..."
}
