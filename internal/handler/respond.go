package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

func newPagination(page, limit, total int) Pagination {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return Pagination{Current: page, Pages: pages, Total: total}
}

// pageParams reads ?page and ?limit with sane bounds.
func pageParams(c echo.Context, defaultLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}

// validationFailed renders the field-validation error envelope.
func validationFailed(c echo.Context, errs []string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
}

// internal logs the real error and returns the generic 500; no internal
// detail leaks to the caller.
func (h *Handler) internal(c echo.Context, err error, op string) error {
	h.log.Error().Err(err).Str("op", op).Msg("internal error")
	return echo.NewHTTPError(http.StatusInternalServerError, "Server error")
}

// parseDate accepts a bare day or a full RFC 3339 timestamp and keeps
// the calendar day as written, whatever the timestamp's offset;
// appointment slots are identified by (date, time string).
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
