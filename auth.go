package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mankeu/models"
	"mankeu/pkg/apperr"
	"mankeu/pkg/auth"
	"mankeu/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type registerRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Name     string  `json:"name" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Locale   *string `json:"locale"`
	Currency *string `json:"currency"`
}

// registerUser creates a password account. Email addresses are unique.
func (s *Server) registerUser(ctx context.Context, req registerRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if len(req.Password) < auth.MinPasswordLen {
		return nil, apperr.Validation("password too short (min %d)", auth.MinPasswordLen)
	}
	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, store.Classify(err)
	}
	if n > 0 {
		return nil, apperr.Conflict("the user with this email already exists in the system")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user := models.User{
		Email:          email,
		Name:           name,
		HashedPassword: hash,
		Locale:         orDefault(req.Locale, "id"),
		Currency:       orDefault(req.Currency, "IDR"),
	}
	if err := db.Create(&user).Error; err != nil {
		if store.IsUniqueViolation(err) {
			return nil, apperr.Conflict("the user with this email already exists in the system")
		}
		return nil, store.Classify(err)
	}
	return &user, nil
}

// authenticate checks an email and password pair.
func (s *Server) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.Classify(err)
	}
	if err != nil || !auth.CheckPassword(user.HashedPassword, password) {
		return nil, apperr.Validation("incorrect email or password")
	}
	return &user, nil
}

// provisionGoogleUser finds the account for a verified Google identity,
// creating it on first login and refreshing its profile fields afterwards.
func (s *Server) provisionGoogleUser(ctx context.Context, id *auth.GoogleIdentity) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			random, err := auth.RandomToken(16)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(random)
			if err != nil {
				return err
			}
			user = models.User{
				Email:          email,
				Name:           id.DisplayName(),
				HashedPassword: hash,
				Picture:        nonEmpty(id.Picture),
				GivenName:      nonEmpty(id.GivenName),
				FamilyName:     nonEmpty(id.FamilyName),
				Locale:         nonEmpty(id.Locale),
			}
			return tx.Create(&user).Error
		case err != nil:
			return err
		}
		user.Name = id.DisplayName()
		user.Picture = nonEmpty(id.Picture)
		user.GivenName = nonEmpty(id.GivenName)
		user.FamilyName = nonEmpty(id.FamilyName)
		if id.Locale != "" {
			user.Locale = nonEmpty(id.Locale)
		}
		return tx.Model(&user).Select("name", "picture", "given_name", "family_name", "locale").Updates(&user).Error
	})
	if err != nil {
		return nil, store.Classify(err)
	}
	return &user, nil
}

func (s *Server) issueTokens(ctx context.Context, userID uint) (*tokenResponse, error) {
	access, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, err := s.refresh.Create(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &tokenResponse{AccessToken: access, TokenType: "bearer", RefreshToken: refresh}, nil
}

// loginHandler accepts the OAuth2 password form (username, password) or the
// same fields as JSON. The username is the account email.
func (s *Server) loginHandler(c *gin.Context) {
	var req struct {
		Username string `form:"username" json:"username" binding:"required"`
		Password string `form:"password" json:"password" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, apperr.Wrap(apperr.KindValidation, err, "username and password are required"))
		return
	}
	user, err := s.authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.issueTokens(c.Request.Context(), user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) googleLoginHandler(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	id, err := s.google.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidGoogleToken) {
			s.fail(c, apperr.Validation("invalid Google token"))
			return
		}
		s.fail(c, apperr.Internal(err))
		return
	}
	user, err := s.provisionGoogleUser(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.issueTokens(c.Request.Context(), user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// refreshHandler exchanges a refresh token for a new access token and rotates
// the refresh token.
func (s *Server) refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	userID, next, err := s.refresh.Rotate(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, auth.ErrInvalidRefreshToken) {
		s.fail(c, apperr.Auth("invalid or expired refresh token"))
		return
	}
	if err != nil {
		s.fail(c, store.Classify(err))
		return
	}
	access, err := s.tokens.Issue(userID)
	if err != nil {
		s.fail(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, TokenType: "bearer", RefreshToken: next})
}

// revokeRefreshHandler revokes a refresh token, typically on logout.
func (s *Server) revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	err := s.refresh.Revoke(c.Request.Context(), req.RefreshToken)
	if errors.Is(err, auth.ErrInvalidRefreshToken) {
		s.fail(c, apperr.NotFound("refresh token not found"))
		return
	}
	if err != nil {
		s.fail(c, store.Classify(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

func (s *Server) registerHandler(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	user, err := s.registerUser(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// meHandler returns the current user and slides the session: a fresh access
// token is sent in the X-New-Token header.
func (s *Server) meHandler(c *gin.Context) {
	user, err := s.currentUser(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if tok, err := s.tokens.Issue(user.ID); err == nil {
		c.Header("X-New-Token", tok)
	} else {
		s.logger.WarnContext(c.Request.Context(), "sliding token not issued", "user_id", user.ID, "error", err)
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateMeHandler(c *gin.Context) {
	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email" binding:"omitempty,email"`
		Password *string `json:"password"`
		Locale   *string `json:"locale"`
		Currency *string `json:"currency"`
	}
	if err := bindJSON(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	user, err := s.currentUser(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var cols []string
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			s.fail(c, apperr.Validation("name must not be empty"))
			return
		}
		user.Name = name
		cols = append(cols, "name")
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		cols = append(cols, "email")
	}
	if req.Password != nil {
		if len(*req.Password) < auth.MinPasswordLen {
			s.fail(c, apperr.Validation("password too short (min %d)", auth.MinPasswordLen))
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.fail(c, apperr.Internal(err))
			return
		}
		user.HashedPassword = hash
		cols = append(cols, "hashed_password")
	}
	if req.Locale != nil {
		user.Locale = req.Locale
		cols = append(cols, "locale")
	}
	if req.Currency != nil {
		user.Currency = req.Currency
		cols = append(cols, "currency")
	}
	if len(cols) > 0 {
		if err := s.db.WithContext(c.Request.Context()).Model(user).Select(cols).Updates(user).Error; err != nil {
			if store.IsUniqueViolation(err) {
				s.fail(c, apperr.Conflict("email already in use"))
				return
			}
			s.fail(c, store.Classify(err))
			return
		}
	}
	c.JSON(http.StatusOK, user)
}

func orDefault(v *string, def string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return &def
	}
	t := strings.TrimSpace(*v)
	return &t
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
