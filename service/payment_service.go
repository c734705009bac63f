package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"aurex/models"

	log "github.com/sirupsen/logrus"
)

type paymentService struct {
	ledger LedgerService
	secret []byte
}

// NewPaymentService creates a payment service that verifies gateway-signed
// purchase claims and converts them into ledger credits
func NewPaymentService(ledger LedgerService, gatewaySecret string) PaymentService {
	return &paymentService{
		ledger: ledger,
		secret: []byte(gatewaySecret),
	}
}

// VerifySignature checks the gateway's HMAC-SHA256 signature over the order
// and payment id pair. Comparison is constant-time.
func (s *paymentService) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ConfirmPurchase credits purchased coins after signature verification. The
// payment id doubles as the credit reference, so a replayed confirmation
// returns the original movement without crediting twice.
func (s *paymentService) ConfirmPurchase(ctx context.Context, userID string, coins int64, orderID, paymentID, signature string) (*models.Movement, error) {
	if coins <= 0 {
		return nil, &InvalidInputError{Reason: "coin amount must be positive"}
	}
	if orderID == "" || paymentID == "" {
		return nil, &InvalidInputError{Reason: "order id and payment id must not be empty"}
	}
	if !s.VerifySignature(orderID, paymentID, signature) {
		log.WithFields(log.Fields{
			"userID":  userID,
			"orderID": orderID,
		}).Warn("Payment signature verification failed")
		return nil, &InvalidInputError{Reason: "invalid payment signature"}
	}

	description := fmt.Sprintf("Coin purchase (order %s)", orderID)
	movement, err := s.ledger.Credit(ctx, userID, coins, description, paymentID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"orderID":   orderID,
		"paymentID": paymentID,
		"coins":     coins,
	}).Info("Purchase confirmed")

	return movement, nil
}
