package web

import (
	"net/http"
	"strconv"
	"time"

	"aurex/models"

	"github.com/gin-gonic/gin"
)

type walletResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

func (s *Server) getWallet(c *gin.Context) {
	userID := c.GetString("userID")
	key := walletKey(userID)

	var cached walletResponse
	if s.cache.Get(c.Request.Context(), key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	wallet, err := s.ledger.GetOrCreateWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := walletResponse{UserID: wallet.UserID, Balance: wallet.Balance}
	s.cache.Set(c.Request.Context(), key, resp)
	c.JSON(http.StatusOK, resp)
}

type movementView struct {
	ID          int64     `json:"id"`
	Direction   string    `json:"direction"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Reference   *string   `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) listMovements(c *gin.Context) {
	userID := c.GetString("userID")
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	total, movements, err := s.ledger.ListMovements(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]movementView, 0, len(movements))
	for _, m := range movements {
		views = append(views, movementView{
			ID:          m.ID,
			Direction:   string(m.Direction),
			Amount:      m.Amount,
			Description: m.Description,
			Reference:   m.Reference,
			CreatedAt:   m.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"limit":     limit,
		"movements": views,
	})
}

type verifyPaymentRequest struct {
	Coins     int64  `json:"coins" binding:"required"`
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

func (s *Server) verifyPayment(c *gin.Context) {
	userID := c.GetString("userID")

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	movement, err := s.payments.ConfirmPurchase(c.Request.Context(), userID, req.Coins, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movement_id": movement.ID,
		"amount":      movement.Amount,
		"status":      string(models.MovementStatusCompleted),
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
