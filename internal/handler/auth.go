package handler

import (
	"database/sql" // SQL database interactions
	"net/http"     // HTTP status codes and primitives
	"strconv"      // string-to-int conversion
	"strings"      // string manipulation utilities
	"time"         // token expiry values in responses

	"github.com/golang-jwt/jwt/v5" // JSON Web Token library for parsing access tokens
	"github.com/labstack/echo/v4"  // Echo framework for HTTP routing

	"github.com/iliyamo/qso-logbook/internal/config"     // app configuration
	"github.com/iliyamo/qso-logbook/internal/repository" // DB repositories
	"github.com/iliyamo/qso-logbook/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Operators *repository.OperatorRepo
	Tokens    *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, o *repository.OperatorRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Operators: o, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	CallSign          string `json:"call_sign"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	DefaultGridSquare string `json:"default_grid_square"`
}
type loginReq struct {
	CallSign string `json:"call_sign"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type operatorPart struct {
	ID       uint64 `json:"id"`
	CallSign string `json:"call_sign"`
	Role     string `json:"role"`
}
type authResp struct {
	Operator operatorPart `json:"operator"`
	Access   tokenPart    `json:"access"`
	Refresh  tokenPart    `json:"refresh"`
}

// Register creates a new operator account pending administrator review.
// Unlike login, no tokens are issued: the account cannot do anything
// until an admin approves it, so handing out credentials here would only
// produce confusing 403s.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.CallSign = repository.NormalizeCallSign(req.CallSign)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.CallSign == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "call_sign/email/password required"})
	}
	if !repository.ValidCallSign(req.CallSign) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "call sign must be 3-10 letters and digits"})
	}
	if req.DefaultGridSquare != "" && !repository.ValidGridSquare(repository.NormalizeGridSquare(req.DefaultGridSquare)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "grid square must match AA00AA"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Operators.Create(ctx, req.CallSign, req.Email, req.Password, req.DefaultGridSquare, h.Cfg.BcryptCost)
	if err != nil {
		switch err {
		case repository.ErrCallSignExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "call sign already registered"})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create operator failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":        id,
		"call_sign": req.CallSign,
		"status":    "pending approval",
	})
}

// Login verifies call sign and password and returns a token pair.
// Accounts that have not been approved, or have been deactivated, are
// rejected with 403 rather than 401 so clients can distinguish "wrong
// credentials" from "not allowed in yet".
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.CallSign = repository.NormalizeCallSign(req.CallSign)
	if req.CallSign == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "call_sign/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Operators.GetByCallSign(ctx, req.CallSign)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(o.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !o.IsApproved {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account pending approval"})
	}
	if !o.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, o.ID, o.CallSign, o.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, o.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		Operator: operatorPart{ID: o.ID, CallSign: o.CallSign, Role: o.Role},
		Access:   tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:  tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	operatorID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	o, err := h.Operators.GetByID(ctx, operatorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load operator failed"})
	}
	if !o.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, o.ID, o.CallSign, o.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, o.ID, utils.HashRefreshRaw(newRef.Raw), newRef.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		Operator: operatorPart{ID: o.ID, CallSign: o.CallSign, Role: o.Role},
		Access:   tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:  tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
	})
}

// RefreshAccess validates a refresh token and returns a new access token
// WITHOUT rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	operatorID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	o, err := h.Operators.GetByID(ctx, operatorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load operator failed"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, o.ID, o.CallSign, o.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes refresh tokens. Two modes: with a bearer token and no
// body, every session of the operator is revoked; with a refresh_token
// in the body, only that session is. The bearer is parsed here so the
// route can live outside the JWT middleware.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	hasBearer := false
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		tok, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.ErrUnauthorized
			}
			return []byte(h.Cfg.JWTSecret), nil
		})
		if err == nil && tok.Valid {
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				switch subVal := claims["sub"].(type) {
				case float64:
					uid = uint64(subVal)
					hasBearer = true
				case string:
					if parsed, err := strconv.ParseUint(subVal, 10, 64); err == nil {
						uid = parsed
						hasBearer = true
					}
				}
			}
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if hasBearer && refreshToken == "" {
		if uid == 0 {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		if err := h.Tokens.RevokeAllForOperator(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":   c.Get("user_id"),
		"call_sign": c.Get("call_sign"),
		"role":      c.Get("role"),
	})
}
