package web

import (
	"errors"
	"net/http"

	"aurex/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondError maps service errors onto stable HTTP statuses. Unknown errors
// are logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		notFound     *service.NotFoundError
		conflict     *service.ConflictError
		roomFull     *service.RoomFullError
		insufficient *service.InsufficientFundsError
		notOpen      *service.RoomNotOpenError
		invalid      *service.InvalidInputError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflict), errors.As(err, &roomFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.As(err, &notOpen), errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithFields(log.Fields{
			"path":  c.Request.URL.Path,
			"error": err,
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
