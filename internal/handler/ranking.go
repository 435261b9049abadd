package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qso-logbook/internal/repository"
)

// RankingHandler serves the public leaderboard. No authentication: the
// rankings are the club's shop window.
type RankingHandler struct {
	Contacts *repository.ContactRepo
}

func NewRankingHandler(ct *repository.ContactRepo) *RankingHandler {
	return &RankingHandler{Contacts: ct}
}

// GetRankings returns every registered operator with their confirmed and
// total initiated contact counts, most confirmed first. Operators with
// no contacts still appear with zeros. The route sits behind the Redis
// response cache, so the aggregate query runs at most once per TTL.
func (h *RankingHandler) GetRankings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Contacts.Rankings(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load rankings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rankings": out})
}
