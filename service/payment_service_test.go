package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"aurex/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Credit(ctx context.Context, userID string, amount int64, description, reference string) (*models.Movement, error) {
	args := m.Called(ctx, userID, amount, description, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movement), args.Error(1)
}

func (m *MockLedgerService) Debit(ctx context.Context, userID string, amount int64, description, reference string) (*models.Movement, error) {
	args := m.Called(ctx, userID, amount, description, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movement), args.Error(1)
}

func (m *MockLedgerService) ListMovements(ctx context.Context, userID string, page, limit int) (int64, []*models.Movement, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(1) == nil {
		return args.Get(0).(int64), nil, args.Error(2)
	}
	return args.Get(0).(int64), args.Get(1).([]*models.Movement), args.Error(2)
}

func (m *MockLedgerService) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockLedgerService) AdminCredit(ctx context.Context, userID string, amount int64, reason, adminID string) (*models.Movement, error) {
	args := m.Called(ctx, userID, amount, reason, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movement), args.Error(1)
}

func (m *MockLedgerService) AdminDebit(ctx context.Context, userID string, amount int64, reason, adminID string) (*models.Movement, error) {
	args := m.Called(ctx, userID, amount, reason, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movement), args.Error(1)
}

func signClaim(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaymentService_VerifySignature(t *testing.T) {
	service := NewPaymentService(nil, "test-secret")

	t.Run("valid signature", func(t *testing.T) {
		sig := signClaim("test-secret", "order_1", "pay_1")
		assert.True(t, service.VerifySignature("order_1", "pay_1", sig))
	})

	t.Run("wrong secret", func(t *testing.T) {
		sig := signClaim("other-secret", "order_1", "pay_1")
		assert.False(t, service.VerifySignature("order_1", "pay_1", sig))
	})

	t.Run("tampered payment id", func(t *testing.T) {
		sig := signClaim("test-secret", "order_1", "pay_1")
		assert.False(t, service.VerifySignature("order_1", "pay_2", sig))
	})

	t.Run("garbage signature", func(t *testing.T) {
		assert.False(t, service.VerifySignature("order_1", "pay_1", "not-hex"))
	})
}

func TestPaymentService_ConfirmPurchase_Success(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockLedgerService)
	service := NewPaymentService(mockLedger, "test-secret")

	movement := &models.Movement{ID: 42, UserID: "user-1", Amount: 1000}
	sig := signClaim("test-secret", "order_1", "pay_1")

	// Payment id doubles as the idempotency reference
	mockLedger.On("Credit", ctx, "user-1", int64(1000), "Coin purchase (order order_1)", "pay_1").
		Return(movement, nil)

	result, err := service.ConfirmPurchase(ctx, "user-1", 1000, "order_1", "pay_1", sig)

	assert.NoError(t, err)
	assert.Equal(t, movement, result)
	mockLedger.AssertExpectations(t)
}

func TestPaymentService_ConfirmPurchase_InvalidSignature(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockLedgerService)
	service := NewPaymentService(mockLedger, "test-secret")

	result, err := service.ConfirmPurchase(ctx, "user-1", 1000, "order_1", "pay_1", "bogus")

	assert.Nil(t, result)
	var invalidErr *InvalidInputError
	assert.ErrorAs(t, err, &invalidErr)
	mockLedger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_ConfirmPurchase_BadInput(t *testing.T) {
	ctx := context.Background()

	mockLedger := new(MockLedgerService)
	service := NewPaymentService(mockLedger, "test-secret")

	cases := []struct {
		name      string
		coins     int64
		orderID   string
		paymentID string
	}{
		{"zero coins", 0, "order_1", "pay_1"},
		{"negative coins", -5, "order_1", "pay_1"},
		{"empty order id", 100, "", "pay_1"},
		{"empty payment id", 100, "order_1", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := signClaim("test-secret", tc.orderID, tc.paymentID)
			result, err := service.ConfirmPurchase(ctx, "user-1", tc.coins, tc.orderID, tc.paymentID, sig)
			assert.Nil(t, result)
			var invalidErr *InvalidInputError
			assert.ErrorAs(t, err, &invalidErr)
		})
	}

	mockLedger.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
