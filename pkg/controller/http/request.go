package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/usecase"
)

// parseDate reads a YYYY-MM-DD value; empty means the date is missing
func parseDate(name, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, goerr.Wrap(usecase.ErrDateRequired, "date parameter is missing", goerr.V("param", name))
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, goerr.Wrap(usecase.ErrInvalidInput, "date must be YYYY-MM-DD",
			goerr.V("param", name),
			goerr.V("value", raw),
		)
	}
	return d, nil
}

func dateParam(r *http.Request) (time.Time, error) {
	return parseDate("date", chi.URLParam(r, "date"))
}

// intQuery returns the query value as an int, or 0 when absent
func intQuery(r *http.Request, name string) (int, error) {
	v, err := optionalIntQuery(r, name)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func optionalIntQuery(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, goerr.Wrap(usecase.ErrInvalidInput, "query parameter must be a non-negative integer",
			goerr.V("param", name),
			goerr.V("value", raw),
		)
	}
	return &v, nil
}

func dayQuery(r *http.Request) (usecase.DayQuery, error) {
	q := usecase.DayQuery{Search: strings.TrimSpace(r.URL.Query().Get("search"))}

	var err error
	if q.Limit, err = intQuery(r, "limit"); err != nil {
		return q, err
	}
	if q.MinDuration, err = optionalIntQuery(r, "min"); err != nil {
		return q, err
	}
	if q.MaxDuration, err = optionalIntQuery(r, "max"); err != nil {
		return q, err
	}
	return q, nil
}

func pageQuery(r *http.Request) (page, limit int, err error) {
	if page, err = intQuery(r, "page"); err != nil {
		return 0, 0, err
	}
	if limit, err = intQuery(r, "limit"); err != nil {
		return 0, 0, err
	}
	if page < 1 {
		page = 1
	}
	return page, limit, nil
}
