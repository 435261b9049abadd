package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qso-logbook/internal/model"
	"github.com/iliyamo/qso-logbook/internal/repository"
)

// AdminHandler serves the approval queue. Routes using it must sit
// behind RequireRole("ADMIN").
type AdminHandler struct {
	Operators *repository.OperatorRepo
}

func NewAdminHandler(o *repository.OperatorRepo) *AdminHandler {
	return &AdminHandler{Operators: o}
}

type pendingOperator struct {
	ID                uint64 `json:"id"`
	CallSign          string `json:"call_sign"`
	Email             string `json:"email"`
	DefaultGridSquare string `json:"default_grid_square"`
	RegisteredAt      string `json:"registered_at"`
}

func toPending(o model.Operator) pendingOperator {
	return pendingOperator{
		ID:                o.ID,
		CallSign:          o.CallSign,
		Email:             o.Email,
		DefaultGridSquare: o.DefaultGridSquare,
		RegisteredAt:      o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ListPending returns operators awaiting approval, oldest first.
func (h *AdminHandler) ListPending(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ops, err := h.Operators.ListPending(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list pending failed"})
	}
	out := make([]pendingOperator, 0, len(ops))
	for _, o := range ops {
		out = append(out, toPending(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"pending": out})
}

// Approve activates an operator account. Idempotent: approving an
// already-approved account succeeds without change.
func (h *AdminHandler) Approve(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid operator id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Operators.Approve(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "operator not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": "approved"})
}
