package web

import (
	"context"
	"net/http"
	"time"

	"aurex/models"
	"aurex/service"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	Name       string    `json:"name" binding:"required"`
	EntryFee   int64     `json:"entry_fee"`
	Capacity   int       `json:"capacity" binding:"required"`
	AccessCode string    `json:"access_code"`
	StartsAt   time.Time `json:"starts_at"`
}

func (s *Server) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	room, err := s.admission.CreateRoom(c.Request.Context(), service.CreateRoomParams{
		Name:       req.Name,
		EntryFee:   req.EntryFee,
		Capacity:   req.Capacity,
		AccessCode: req.AccessCode,
		StartsAt:   req.StartsAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, roomToView(room, true))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) updateRoomStatus(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	room, err := s.admission.UpdateStatus(c.Request.Context(), roomID, models.RoomStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, roomToView(room, true))
}

type settleRequest struct {
	Entries []models.SettlementEntry `json:"entries" binding:"required"`
}

func (s *Server) settleRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	summary, err := s.settlement.Settle(c.Request.Context(), roomID, req.Entries)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) listRoomMembers(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	members, err := s.admission.ListMembers(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	type memberView struct {
		UserID       string    `json:"user_id"`
		PlayerName   string    `json:"player_name"`
		JoinedAt     time.Time `json:"joined_at"`
		Standing     *int      `json:"standing,omitempty"`
		Eliminations *int      `json:"eliminations,omitempty"`
	}

	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{
			UserID:       m.UserID,
			PlayerName:   m.PlayerName,
			JoinedAt:     m.JoinedAt,
			Standing:     m.Standing,
			Eliminations: m.Eliminations,
		})
	}

	c.JSON(http.StatusOK, gin.H{"members": views})
}

type adminAdjustRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) adminCredit(c *gin.Context) {
	s.adminAdjust(c, s.ledger.AdminCredit)
}

func (s *Server) adminDebit(c *gin.Context) {
	s.adminAdjust(c, s.ledger.AdminDebit)
}

func (s *Server) adminAdjust(c *gin.Context, apply func(ctx context.Context, userID string, amount int64, reason, adminID string) (*models.Movement, error)) {
	adminID := c.GetString("userID")

	var req adminAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	movement, err := apply(c.Request.Context(), req.UserID, req.Amount, req.Reason, adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movement_id": movement.ID,
		"user_id":     req.UserID,
		"direction":   string(movement.Direction),
		"amount":      movement.Amount,
	})
}
