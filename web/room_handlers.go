package web

import (
	"net/http"
	"strconv"
	"time"

	"aurex/models"

	"github.com/gin-gonic/gin"
)

type roomView struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	EntryFee         int64     `json:"entry_fee"`
	Capacity         int       `json:"capacity"`
	CurrentOccupancy int       `json:"current_occupancy"`
	Status           string    `json:"status"`
	StartsAt         time.Time `json:"starts_at"`
	// AccessCode is only filled for confirmed members
	AccessCode *string `json:"access_code,omitempty"`
}

func roomToView(room *models.Room, includeCode bool) roomView {
	view := roomView{
		ID:               room.ID,
		Name:             room.Name,
		EntryFee:         room.EntryFee,
		Capacity:         room.Capacity,
		CurrentOccupancy: room.CurrentOccupancy,
		Status:           string(room.Status),
		StartsAt:         room.StartsAt,
	}
	if includeCode {
		view.AccessCode = room.AccessCode
	}
	return view
}

func roomIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return 0, false
	}
	return id, true
}

func (s *Server) listRooms(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	var statusFilter *models.RoomStatus
	if v := c.Query("status"); v != "" {
		status := models.RoomStatus(v)
		statusFilter = &status
	}

	// Only the default open-rooms listing is cached
	cacheable := statusFilter == nil && page == 1 && limit == 20
	if cacheable {
		var cached []roomView
		if s.cache.Get(c.Request.Context(), roomListKey, &cached) {
			c.JSON(http.StatusOK, gin.H{"rooms": cached})
			return
		}
	}

	rooms, err := s.admission.ListRooms(c.Request.Context(), statusFilter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]roomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, roomToView(room, false))
	}

	if cacheable {
		s.cache.Set(c.Request.Context(), roomListKey, views)
	}
	c.JSON(http.StatusOK, gin.H{"rooms": views})
}

func (s *Server) getRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID := c.GetString("userID")

	room, err := s.admission.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	// The access code is the room-private datum: only members see it
	isMember, err := s.admission.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, roomToView(room, isMember))
}

type joinRoomRequest struct {
	PlayerName string `json:"player_name" binding:"required"`
}

func (s *Server) joinRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID := c.GetString("userID")

	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	room, err := s.admission.Join(c.Request.Context(), roomID, userID, req.PlayerName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, roomToView(room, true))
}

func (s *Server) leaveRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	userID := c.GetString("userID")

	result, err := s.admission.Leave(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type matchView struct {
	ID           int64     `json:"id"`
	RoomID       int64     `json:"room_id"`
	RoomName     string    `json:"room_name"`
	Outcome      string    `json:"outcome"`
	Payout       int64     `json:"payout"`
	Standing     *int      `json:"standing,omitempty"`
	Eliminations int       `json:"eliminations"`
	PlayedAt     time.Time `json:"played_at"`
}

func (s *Server) listMatches(c *gin.Context) {
	userID := c.GetString("userID")
	limit := queryInt(c, "limit", 20)

	matches, err := s.settlement.ListMatches(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]matchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, matchView{
			ID:           m.ID,
			RoomID:       m.RoomID,
			RoomName:     m.RoomName,
			Outcome:      string(m.Outcome),
			Payout:       m.Payout,
			Standing:     m.Standing,
			Eliminations: m.Eliminations,
			PlayedAt:     m.PlayedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"matches": views})
}
