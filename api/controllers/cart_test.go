package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarhq/bazaar-backend/api/middleware"
	cartsvc "github.com/bazaarhq/bazaar-backend/internal/cart"
	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/types"
)

type stubCartService struct {
	line    *models.CartItem
	view    *cartsvc.View
	err     error
	removed []uuid.UUID
}

func (s *stubCartService) AddToCart(ctx context.Context, userID uuid.UUID, input cartsvc.AddInput) (*models.CartItem, error) {
	return s.line, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartItem, error) {
	return s.line, s.err
}

func (s *stubCartService) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, lineID)
	return nil
}

func (s *stubCartService) ListCart(ctx context.Context, userID uuid.UUID) (*cartsvc.View, error) {
	return s.view, s.err
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCartAddSuccess(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	line := &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  3,
		Status:    enums.CartItemStatusInCart,
		Metadata:  types.JSONMap{"selected_size": "M"},
	}
	handler := CartAdd(&stubCartService{line: line}, nil)

	body := `{"product_id":"` + productID.String() + `","quantity":3,"metadata":{"selected_size":"M"}}`
	req := authedRequest(http.MethodPost, "/api/v1/cart/add", body, userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data cartItemResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != line.ID {
		t.Fatalf("unexpected line id: %s", envelope.Data.ID)
	}
	if envelope.Data.Quantity != 3 {
		t.Fatalf("expected quantity 3 got %d", envelope.Data.Quantity)
	}
}

func TestCartAddRejectsBadBody(t *testing.T) {
	handler := CartAdd(&stubCartService{}, nil)
	req := authedRequest(http.MethodPost, "/api/v1/cart/add", `{"quantity":0}`, uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAddMissingUserContext(t *testing.T) {
	handler := CartAdd(&stubCartService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartListReturnsTotals(t *testing.T) {
	userID := uuid.New()
	view := &cartsvc.View{
		Items: []cartsvc.LineView{
			{ID: uuid.New(), Quantity: 2, UnitPrice: decimal.NewFromInt(100), LineTotal: decimal.NewFromInt(200)},
		},
		ItemCount: 2,
		Total:     decimal.NewFromInt(200),
	}
	handler := CartList(&stubCartService{view: view}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/cart", "", userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ItemCount != 2 {
		t.Fatalf("expected item count 2 got %d", envelope.Data.ItemCount)
	}
	if !envelope.Data.Total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected total 200 got %s", envelope.Data.Total)
	}
}

func TestCartUpdateItemRejectsBadID(t *testing.T) {
	handler := CartUpdateItem(&stubCartService{}, nil)
	req := authedRequest(http.MethodPut, "/api/v1/cart/update/nope", `{"quantity":2}`, uuid.New())
	req = withURLParam(req, "itemId", "nope")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveItemSuccess(t *testing.T) {
	svc := &stubCartService{}
	handler := CartRemoveItem(svc, nil)
	lineID := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/v1/cart/remove/"+lineID.String(), "", uuid.New())
	req = withURLParam(req, "itemId", lineID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.removed) != 1 || svc.removed[0] != lineID {
		t.Fatalf("expected line %s removed, got %v", lineID, svc.removed)
	}
}

func TestCartRemoveItemNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}
	handler := CartRemoveItem(svc, nil)
	lineID := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/v1/cart/remove/"+lineID.String(), "", uuid.New())
	req = withURLParam(req, "itemId", lineID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
