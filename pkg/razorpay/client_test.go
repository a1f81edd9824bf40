package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bazaarhq/bazaar-backend/pkg/config"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logg := logger.New(logger.Options{Level: zerolog.ErrorLevel})
	client, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "test_secret",
		Currency:  "inr",
	}, logg)
	require.NoError(t, err)
	return client
}

func signWith(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestNewClient_Validation(t *testing.T) {
	logg := logger.New(logger.Options{Level: zerolog.ErrorLevel})

	_, err := NewClient(context.Background(), config.RazorpayConfig{KeySecret: "s"}, logg)
	require.ErrorIs(t, err, errKeyIDRequired)

	_, err = NewClient(context.Background(), config.RazorpayConfig{KeyID: "k"}, logg)
	require.ErrorIs(t, err, errKeySecretRequired)

	_, err = NewClient(context.Background(), config.RazorpayConfig{KeyID: "k", KeySecret: "s"}, nil)
	require.ErrorIs(t, err, errLoggerRequired)
}

func TestVerifySignature(t *testing.T) {
	client := newTestClient(t)

	orderID := "order_LxQ7a1b2c3d4e5"
	paymentID := "pay_LxQ8f6g7h8i9j0"
	valid := signWith("test_secret", orderID, paymentID)

	require.True(t, client.VerifySignature(orderID, paymentID, valid))

	// tampered signature
	require.False(t, client.VerifySignature(orderID, paymentID, strings.Repeat("0", len(valid))))
	// signature computed with another secret
	require.False(t, client.VerifySignature(orderID, paymentID, signWith("other", orderID, paymentID)))
	// swapped ids
	require.False(t, client.VerifySignature(paymentID, orderID, valid))
	// blanks never verify
	require.False(t, client.VerifySignature("", paymentID, valid))
	require.False(t, client.VerifySignature(orderID, "", valid))
	require.False(t, client.VerifySignature(orderID, paymentID, ""))
}

func TestCreateOrder_RejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(t)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, err := client.CreateOrder(context.Background(), amount, "rcpt_x", nil)
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}
}

func TestNewReceiptID(t *testing.T) {
	first := NewReceiptID("checkout")
	second := NewReceiptID("checkout")
	require.True(t, strings.HasPrefix(first, "checkout_"))
	require.NotEqual(t, first, second)

	require.True(t, strings.HasPrefix(NewReceiptID("  "), "rcpt_"))
}

func TestOrderFromResponse(t *testing.T) {
	order := orderFromResponse(map[string]interface{}{
		"id":       "order_abc",
		"amount":   float64(35000),
		"currency": "INR",
		"receipt":  "rcpt_1",
		"status":   "created",
	})
	require.Equal(t, "order_abc", order.ID)
	require.Equal(t, int64(35000), order.Amount)
	require.Equal(t, "INR", order.Currency)
	require.Equal(t, "created", order.Status)

	empty := orderFromResponse(nil)
	require.Empty(t, empty.ID)
}
