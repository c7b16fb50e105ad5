package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mankeu/models"
	"mankeu/pkg/apperr"
	"mankeu/pkg/auth"
	"mankeu/pkg/config"
	"mankeu/pkg/debt"
	"mankeu/pkg/ledger"
	"mankeu/pkg/receipt"
	"mankeu/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ctxUserID    = "user_id"
	ctxRequestID = "request_id"
)

// Server carries the dependencies of every handler. One instance serves all
// requests; each request derives its own database session from db.
type Server struct {
	cfg     *config.Config
	db      *gorm.DB
	logger  *slog.Logger
	tokens  *auth.Tokens
	refresh *auth.RefreshTokens
	google  *auth.GoogleVerifier
	ledger  *ledger.Service
	debts   *debt.Service
	scanner *receipt.Scanner
}

func NewServer(cfg *config.Config, db *gorm.DB, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		db:      db,
		logger:  logger,
		tokens:  auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL),
		refresh: auth.NewRefreshTokens(db, cfg.RefreshTokenTTL),
		google:  auth.NewGoogleVerifier(cfg.GoogleTokenInfoURL, cfg.GoogleClientIDs, nil),
		ledger:  ledger.New(db, logger),
		debts:   debt.New(db, logger),
		scanner: receipt.NewScanner(logger),
	}
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.Use(s.requestLogger(), s.cors())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to Mankeu API"})
	})

	api := r.Group(s.cfg.APIPrefix)
	api.GET("/health", s.healthHandler)
	api.GET("/health/connection", s.healthConnectionHandler)

	api.POST("/auth/login", s.loginHandler)
	api.POST("/auth/login/google", s.googleLoginHandler)
	api.POST("/auth/refresh", s.refreshHandler)
	api.POST("/auth/revoke", s.revokeRefreshHandler)
	api.POST("/users/register", s.registerHandler)

	api.GET("/categories", s.listCategoriesHandler)
	api.GET("/categories/:id", s.getCategoryHandler)

	authGroup := api.Group("")
	authGroup.Use(s.jwtAuthMiddleware())
	authGroup.GET("/users/me", s.meHandler)
	authGroup.PUT("/users/me", s.updateMeHandler)

	authGroup.POST("/categories", s.createCategoryHandler)
	authGroup.PUT("/categories/:id", s.updateCategoryHandler)
	authGroup.DELETE("/categories/:id", s.deleteCategoryHandler)

	tx := authGroup.Group("/transactions")
	tx.POST("", s.createTransactionHandler)
	tx.GET("", s.listTransactionsHandler)
	tx.POST("/bulk-delete", s.bulkDeleteTransactionsHandler)
	tx.POST("/scan", s.scanReceiptHandler)
	tx.GET("/:id", s.getTransactionHandler)
	tx.PUT("/:id", s.updateTransactionHandler)
	tx.DELETE("/:id", s.deleteTransactionHandler)

	sv := authGroup.Group("/savings")
	mount(sv, s, savings)
	sv.POST("/:id/deposit", s.depositHandler)
	sv.POST("/:id/withdraw", s.withdrawHandler)
	sv.GET("/:id/transactions", s.goalHistoryHandler)

	mount(authGroup.Group("/budgets"), s, budgets)
	mount(authGroup.Group("/fixed-expenses"), s, fixedExpenses)

	dg := authGroup.Group("/debts")
	mount(dg, s, debts)
	dg.PATCH("/:id/toggle-paid", s.toggleDebtPaidHandler)
	dg.POST("/:id/payments", s.addDebtPaymentHandler)
	dg.GET("/:id/payments", s.listDebtPaymentsHandler)
	dg.DELETE("/:id/payments/:paymentId", s.deleteDebtPaymentHandler)
	mount(authGroup.Group("/incomes"), s, incomes)
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestID, rid)
		c.Header("X-Request-ID", rid)
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(c.Request.Context(), level, "request",
			"request_id", rid,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func (s *Server) cors() gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range s.cfg.CORSOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (s.cfg.CORSAllowAll || allowed[origin]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			h.Set("Access-Control-Expose-Headers", "X-New-Token, X-Request-ID")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			s.abort(c, apperr.Auth("not authenticated"))
			return
		}
		userID, err := s.tokens.Parse(strings.TrimSpace(authHeader[7:]))
		if err != nil {
			s.abort(c, apperr.Auth("could not validate credentials"))
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// currentUser loads the authenticated user. A token for a deleted account
// yields not found.
func (s *Server) currentUser(c *gin.Context) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(c.Request.Context()).First(&user, currentUserID(c)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, store.Classify(err)
	}
	return &user, nil
}

// fail writes err as a JSON error response. Internal errors are logged with
// the request id and their cause never reaches the client.
func (s *Server) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		s.logger.ErrorContext(c.Request.Context(), "request failed",
			"request_id", c.GetString(ctxRequestID),
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.JSON(apperr.Status(kind), gin.H{"error": apperr.Message(err), "kind": kind})
}

func (s *Server) abort(c *gin.Context, err error) {
	s.fail(c, err)
	c.Abort()
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "invalid request body: %s", bindMessage(err))
	}
	return nil
}

func bindMessage(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i > 0 {
		msg = msg[:i]
	}
	return msg
}

func idParam(c *gin.Context) (uint, error) {
	return uintParam(c, "id")
}

func uintParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s %q", name, c.Param(name))
	}
	return uint(id), nil
}

func pageParams(c *gin.Context) (store.Page, error) {
	return store.ParsePage(c.Query("skip"), c.Query("limit"))
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) healthConnectionHandler(c *gin.Context) {
	if err := store.Ping(c.Request.Context(), s.db); err != nil {
		s.logger.ErrorContext(c.Request.Context(), "database ping failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "database": "disconnected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "connected"})
}
