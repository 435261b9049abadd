package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qso-logbook/internal/config"
	"github.com/iliyamo/qso-logbook/internal/repository"
	"github.com/iliyamo/qso-logbook/internal/utils"
)

// ProfileHandler serves the authenticated operator's own account:
// profile read/update, password change and the call-sign typeahead used
// when filling in a log entry.
type ProfileHandler struct {
	Cfg       config.Config
	Operators *repository.OperatorRepo
	Tokens    *repository.TokenRepo
}

func NewProfileHandler(cfg config.Config, o *repository.OperatorRepo, t *repository.TokenRepo) *ProfileHandler {
	return &ProfileHandler{Cfg: cfg, Operators: o, Tokens: t}
}

type profileResp struct {
	ID                uint64 `json:"id"`
	CallSign          string `json:"call_sign"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	DefaultGridSquare string `json:"default_grid_square"`
	IsApproved        bool   `json:"is_approved"`
}

type updateProfileReq struct {
	Email             string `json:"email"`
	DefaultGridSquare string `json:"default_grid_square"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Get returns the caller's profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Operators.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "operator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load operator failed"})
	}
	return c.JSON(http.StatusOK, profileResp{
		ID:                o.ID,
		CallSign:          o.CallSign,
		Email:             o.Email,
		Role:              o.Role,
		DefaultGridSquare: o.DefaultGridSquare,
		IsApproved:        o.IsApproved,
	})
}

// Update changes the caller's email and default grid square. The call
// sign is fixed at registration; operators who change call signs
// register the new one as a separate account so past contacts keep
// pointing at the sign that was actually on the air.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	grid := repository.NormalizeGridSquare(req.DefaultGridSquare)
	if grid != "" && !repository.ValidGridSquare(grid) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "grid square must match AA00AA"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Operators.UpdateProfile(ctx, uid, req.Email, grid); err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every refresh token so stolen sessions die with the old
// password.
func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_password/new_password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Operators.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load operator failed"})
	}
	if !utils.VerifyPassword(o.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Operators.UpdatePassword(ctx, uid, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	_ = h.Tokens.RevokeAllForOperator(ctx, uid)
	return c.NoContent(http.StatusNoContent)
}

// SearchCallSigns is the typeahead behind the recipient field of the log
// form. Requires at least two characters, excludes the caller's own
// call sign and caps the result at ten suggestions.
func (h *ProfileHandler) SearchCallSigns(c echo.Context) error {
	callSign, ok := getCallSign(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	q := repository.NormalizeCallSign(c.QueryParam("q"))
	if len(q) < 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query must be at least 2 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Operators.SearchCallSigns(ctx, q, callSign, 10)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"call_signs": out})
}
