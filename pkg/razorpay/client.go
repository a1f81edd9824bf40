package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	rzpsdk "github.com/razorpay/razorpay-go"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/bazaarhq/bazaar-backend/pkg/config"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
)

const defaultCurrency = "INR"

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
)

// Order is the gateway order handle returned on checkout preparation.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// Gateway is the surface the checkout flow needs from the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]any) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// Client wraps the Razorpay SDK with centralized logging, retries, and error
// mapping.
type Client struct {
	sdk        *rzpsdk.Client
	keyID      string
	keySecret  string
	currency   string
	timeout    time.Duration
	maxRetries uint64
	logger     *logger.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	c := &Client{
		sdk:        rzpsdk.NewClient(keyID, keySecret),
		keyID:      keyID,
		keySecret:  keySecret,
		currency:   currency,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		logger:     logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the public key the frontend needs to open the payment widget.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// NewReceiptID returns a unique receipt for gateway order creation.
func NewReceiptID(prefix string) string {
	p := strings.TrimSpace(prefix)
	if p == "" {
		p = "rcpt"
	}
	return fmt.Sprintf("%s_%s", p, uuid.NewString())
}

// CreateOrder registers the grand total with the gateway in minor currency
// units and returns the order handle the client completes payment against.
// Notes travel with the gateway order and show up in the Razorpay dashboard
// for reconciliation. Transient gateway failures are retried with exponential
// backoff; the configured timeout bounds the whole call including retries.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]any) (*Order, error) {
	if amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}

	paise := amount.Shift(2).IntPart()
	data := map[string]interface{}{
		"amount":   paise,
		"currency": c.currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	c.log(ctx, "request", "create_order", map[string]any{
		"amount_paise": paise,
		"currency":     c.currency,
		"receipt":      receipt,
	})

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var raw map[string]interface{}
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(callCtx, backoff, func(ctx context.Context) error {
		resp, err := c.sdk.Order.Create(data, nil)
		if err != nil {
			return retry.RetryableError(err)
		}
		raw = resp
		return nil
	})
	if err != nil {
		c.logger.Error(ctx, "razorpay create order failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment gateway order")
	}

	order := orderFromResponse(raw)
	if order.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned no order id")
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"razorpay_order_id": order.ID,
		"status":            order.Status,
	})
	return order, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	c.logger.Info(ctx, fmt.Sprintf("razorpay %s", op))
}

// VerifySignature checks the payment signature Razorpay sends back to the
// client: hex(HMAC-SHA256(key_secret, order_id + "|" + payment_id)). This is
// the sole trust anchor for web payments, a mismatch means the payment event
// cannot be attributed to us.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func orderFromResponse(raw map[string]interface{}) *Order {
	order := &Order{}
	if raw == nil {
		return order
	}
	if id, ok := raw["id"].(string); ok {
		order.ID = id
	}
	switch v := raw["amount"].(type) {
	case float64:
		order.Amount = int64(v)
	case int64:
		order.Amount = v
	}
	if currency, ok := raw["currency"].(string); ok {
		order.Currency = currency
	}
	if receipt, ok := raw["receipt"].(string); ok {
		order.Receipt = receipt
	}
	if status, ok := raw["status"].(string); ok {
		order.Status = status
	}
	return order
}
