package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Zhima-Mochi/minishop-checkout/internal/application"
	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
)

// Service is the storefront-facing entry point. It turns validation failures
// into a 400 response and leaves gateway-side failures to the caller.
type Service struct {
	create  application.UseCase[domain.OrderRequest, *Response]
	capture application.UseCase[string, *Response]
}

func NewService(
	create application.UseCase[domain.OrderRequest, *Response],
	capture application.UseCase[string, *Response],
) *Service {
	return &Service{create: create, capture: capture}
}

func (s *Service) CreateOrder(ctx context.Context, req domain.OrderRequest) (*Response, error) {
	resp, err := s.create.Execute(ctx, req)
	if err != nil {
		return rejectValidation(err)
	}
	return resp, nil
}

func (s *Service) CaptureOrder(ctx context.Context, orderID string) (*Response, error) {
	resp, err := s.capture.Execute(ctx, orderID)
	if err != nil {
		return rejectValidation(err)
	}
	return resp, nil
}

type errorBody struct {
	Error  string      `json:"error"`
	Kind   domain.Kind `json:"kind"`
	ItemID int         `json:"item_id,omitempty"`
}

func rejectValidation(err error) (*Response, error) {
	var ce *domain.Error
	if !errors.As(err, &ce) || !domain.IsValidation(ce) {
		return nil, err
	}
	body, mErr := json.Marshal(errorBody{Error: ce.Message, Kind: ce.Kind, ItemID: ce.ItemID})
	if mErr != nil {
		return nil, err
	}
	return &Response{Body: body, Status: http.StatusBadRequest, Stage: domain.StageError}, nil
}
