package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/ariefcatur/storefront-orders/internal/auth"
	"github.com/ariefcatur/storefront-orders/internal/checkout"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/pricing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	maxBody           = 1 << 20
	idemSettleTimeout = 2 * time.Second
)

type Checkout interface {
	PlaceOrder(ctx context.Context, caller auth.Identity, in checkout.PlaceOrderInput) (*orders.Order, error)
}

type Fulfillment interface {
	UpdateOrder(ctx context.Context, caller auth.Identity, id string, u orders.StatusUpdate) (*orders.Order, error)
	ListOrders(ctx context.Context, caller auth.Identity) ([]orders.Order, error)
	MyOrders(ctx context.Context, caller auth.Identity) ([]orders.Order, error)
	GetOrder(ctx context.Context, caller auth.Identity, id string) (*orders.Order, error)
	OrderStatus(ctx context.Context, caller auth.Identity, id string) (orders.StatusView, error)
}

type Idempotency interface {
	Claim(ctx context.Context, userID, key string) (string, error)
	Complete(ctx context.Context, userID, key, orderID string) error
	Release(ctx context.Context, userID, key string) error
}

type OrdersHandler struct {
	Checkout    Checkout
	Fulfillment Fulfillment
	Idempotency Idempotency
	Log         zerolog.Logger
}

// Line fields other than productId and quantity (price, name, subtotal)
// are accepted and ignored; prices always come from the catalog.
type lineReq struct {
	ProductID string      `json:"productId"`
	Quantity  json.Number `json:"quantity"`
}

type createOrderReq struct {
	Products        []lineReq              `json:"products"`
	ShippingAddress orders.ShippingAddress `json:"shippingAddress"`
	ShippingFee     decimal.Decimal        `json:"shippingFee"`
	BankUsed        orders.BankAccount     `json:"bankUsed"`
	Note            string                 `json:"note"`
}

func (req createOrderReq) input() (checkout.PlaceOrderInput, error) {
	lines := make([]checkout.LineRequest, 0, len(req.Products))
	for i, l := range req.Products {
		qty, err := pricing.ParseQuantity(l.Quantity.String())
		if err != nil {
			return checkout.PlaceOrderInput{}, fmt.Errorf("products[%d]: %w", i, err)
		}
		lines = append(lines, checkout.LineRequest{ProductID: strings.TrimSpace(l.ProductID), Quantity: qty})
	}
	return checkout.PlaceOrderInput{
		Lines:           lines,
		ShippingAddress: req.ShippingAddress,
		ShippingFee:     req.ShippingFee,
		BankUsed:        req.BankUsed,
		Note:            req.Note,
	}, nil
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/my", h.myOrders)
	r.Get("/{id}", h.getOrder)
	r.Put("/{id}", h.updateOrder)
	r.Get("/{id}/status", h.orderStatus)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json: %v", apperr.ErrValidation, err)
	}
	return nil
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())
	var req createOrderReq
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" && h.Idempotency != nil {
		prev, err := h.Idempotency.Claim(ctx, caller.UserID, idemKey)
		if err != nil {
			writeError(w, r, h.Log, err)
			return
		}
		if prev != "" {
			// replay: kembalikan order yang sudah dibuat
			o, err := h.Fulfillment.GetOrder(ctx, caller, prev)
			if err != nil {
				writeError(w, r, h.Log, err)
				return
			}
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, http.StatusOK, o)
			return
		}
	}

	o, err := h.Checkout.PlaceOrder(ctx, caller, in)
	if idemKey != "" && h.Idempotency != nil {
		h.settleIdempotency(ctx, caller.UserID, idemKey, o, err)
	}
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// settleIdempotency runs even when the request context has expired, so a
// timed-out checkout still frees its key.
func (h *OrdersHandler) settleIdempotency(ctx context.Context, userID, key string, o *orders.Order, placeErr error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), idemSettleTimeout)
	defer cancel()

	var err error
	if placeErr != nil {
		err = h.Idempotency.Release(ctx, userID, key)
	} else {
		err = h.Idempotency.Complete(ctx, userID, key, o.ID)
	}
	if err != nil {
		h.Log.Warn().Err(err).Str("user_id", userID).Str("idempotency_key", key).Msg("idempotency bookkeeping")
	}
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Fulfillment.ListOrders(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Fulfillment.MyOrders(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Fulfillment.GetOrder(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	v, err := h.Fulfillment.OrderStatus(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())
	// cek role dulu, body customer tidak perlu divalidasi
	if err := auth.Authorize(caller, "", auth.RoleAdmin); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var u orders.StatusUpdate
	if err := decode(w, r, &u); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	o, err := h.Fulfillment.UpdateOrder(r.Context(), caller, chi.URLParam(r, "id"), u)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
