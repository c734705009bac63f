package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"aurex/config"
	"aurex/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Server exposes the economy over HTTP. Auth tokens from the upstream
// identity provider are verified here and trusted as-is.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server

	ledger     service.LedgerService
	admission  service.AdmissionService
	settlement service.SettlementService
	payments   service.PaymentService
	cache      *Cache
}

// NewServer wires the HTTP surface over the core services
func NewServer(cfg *config.Config, ledger service.LedgerService, admission service.AdmissionService, settlement service.SettlementService, payments service.PaymentService, cache *Cache) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		ledger:     ledger,
		admission:  admission,
		settlement: settlement,
		payments:   payments,
		cache:      cache,
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	authed := router.Group("/", JWTAuth(cfg.JWTSecret))
	{
		authed.GET("/wallet", s.getWallet)
		authed.GET("/wallet/movements", s.listMovements)
		authed.POST("/wallet/payment/verify", s.verifyPayment)

		authed.GET("/rooms", s.listRooms)
		authed.GET("/rooms/:id", s.getRoom)
		authed.POST("/rooms/:id/join", s.joinRoom)
		authed.POST("/rooms/:id/leave", s.leaveRoom)

		authed.GET("/matches", s.listMatches)
	}

	admin := authed.Group("/admin", RequireAdmin())
	{
		admin.POST("/rooms", s.createRoom)
		admin.PATCH("/rooms/:id/status", s.updateRoomStatus)
		admin.POST("/rooms/:id/settle", s.settleRoom)
		admin.GET("/rooms/:id/members", s.listRoomMembers)
		admin.POST("/wallet/credit", s.adminCredit)
		admin.POST("/wallet/debit", s.adminDebit)
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start runs the HTTP server until it is shut down
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
