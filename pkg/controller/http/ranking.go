package http

import (
	"fmt"
	"net/http"

	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/service/report"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/secmon-lab/studyhall/pkg/utils/errutil"
	"github.com/secmon-lab/studyhall/pkg/utils/safe"
)

func (s *Server) listRankingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, err := pageQuery(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	days, total, err := s.uc.Ranking.ListDays(ctx, page, limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if days == nil {
		days = []usecase.DaySummary{}
	}
	limit = s.uc.PageSize(limit)

	errutil.WriteJSON(ctx, w, http.StatusOK, pageResponse[usecase.DaySummary]{
		Items: days,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (s *Server) rangeRankingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, err := parseDate("from", r.URL.Query().Get("from"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	to, err := parseDate("to", r.URL.Query().Get("to"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	views, err := s.uc.Ranking.ListRange(ctx, from, to)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	for i := range views {
		normalizeView(&views[i])
	}
	if views == nil {
		views = []model.RankingView{}
	}

	errutil.WriteJSON(ctx, w, http.StatusOK, map[string]any{
		"from":     model.DateKey(from),
		"to":       model.DateKey(to),
		"rankings": views,
	})
}

func (s *Server) getRankingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := s.dayView(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, view)
}

func (s *Server) statisticsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := dateParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	stats, err := s.uc.Ranking.Statistics(ctx, date)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, stats)
}

func (s *Server) exportPDFHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := s.dayView(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	data, err := report.RenderRanking(*view)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ranking-%s.pdf"`, view.Date))
	w.WriteHeader(http.StatusOK)
	safe.Write(ctx, w, data)
}

func (s *Server) dayView(r *http.Request) (*model.RankingView, error) {
	date, err := dateParam(r)
	if err != nil {
		return nil, err
	}
	q, err := dayQuery(r)
	if err != nil {
		return nil, err
	}

	view, err := s.uc.Ranking.GetDay(r.Context(), date, q)
	if err != nil {
		return nil, err
	}
	normalizeView(view)
	return view, nil
}

// normalizeView makes an empty list encode as [] instead of null
func normalizeView(v *model.RankingView) {
	if v.Rankings == nil {
		v.Rankings = []model.RankingEntry{}
	}
}
