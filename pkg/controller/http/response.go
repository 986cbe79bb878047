package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/secmon-lab/studyhall/pkg/utils/errutil"
)

// Error codes of the JSON error body
const (
	codeUnsupportedFile = "unsupported_file"
	codeParseFailed     = "parse_failed"
	codeNoValidEntries  = "no_valid_entries"
	codeNotFound        = "not_found"
	codeDateRequired    = "date_required"
	codeInvalidInput    = "invalid_input"
	codeUnauthorized    = "unauthorized"
	codeForbidden       = "forbidden"
	codeInternal        = "internal"
)

// handleError maps use case errors onto status codes and error codes
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := classify(ctx, err)
	errutil.HandleHTTPWithCode(ctx, w, err, status, code)
}

func classify(ctx context.Context, err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType, codeUnsupportedFile
	case errors.Is(err, usecase.ErrParseFailed):
		return http.StatusUnprocessableEntity, codeParseFailed
	case errors.Is(err, usecase.ErrNoValidEntries):
		return http.StatusUnprocessableEntity, codeNoValidEntries
	case errors.Is(err, usecase.ErrNoData):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, usecase.ErrDateRequired):
		return http.StatusBadRequest, codeDateRequired
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput
	case errors.Is(err, usecase.ErrAuthRequired):
		return http.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, usecase.ErrAdminRequired):
		// anonymous callers may still authenticate; known subjects lack the role
		if model.ViewerFromContext(ctx).Subject == "" {
			return http.StatusUnauthorized, codeUnauthorized
		}
		return http.StatusForbidden, codeForbidden
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

type uploadResponse struct {
	RecordID          model.AttendanceRecordID `json:"recordId"`
	Date              string                   `json:"date"`
	TotalEntries      int                      `json:"totalEntries"`
	TotalParticipants int                      `json:"totalParticipants"`
	Status            string                   `json:"status"`
	Rankings          []model.RankingEntry     `json:"rankings"`
}

func toUploadResponse(r *usecase.UploadResult) uploadResponse {
	rankings := r.Preview
	if rankings == nil {
		rankings = []model.RankingEntry{}
	}
	return uploadResponse{
		RecordID:          r.RecordID,
		Date:              model.DateKey(r.Date),
		TotalEntries:      r.TotalEntries,
		TotalParticipants: r.TotalParticipants,
		Status:            r.Status.String(),
		Rankings:          rankings,
	}
}

type deleteResponse struct {
	Date    string `json:"date"`
	Deleted struct {
		AttendanceRecord bool `json:"attendanceRecord"`
		DailyRanking     bool `json:"dailyRanking"`
	} `json:"deleted"`
}

func toDeleteResponse(r *usecase.DeleteResult) deleteResponse {
	var resp deleteResponse
	resp.Date = model.DateKey(r.Date)
	resp.Deleted.AttendanceRecord = r.AttendanceRecord
	resp.Deleted.DailyRanking = r.DailyRanking
	return resp
}

type entryResponse struct {
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email,omitempty"`
	Duration   int        `json:"duration"`
	TimeJoined *time.Time `json:"timeJoined,omitempty"`
	TimeExited *time.Time `json:"timeExited,omitempty"`
}

type recordResponse struct {
	ID           model.AttendanceRecordID `json:"id"`
	Date         string                   `json:"date"`
	FileName     string                   `json:"fileName"`
	FileType     string                   `json:"fileType"`
	SourceURI    string                   `json:"sourceUri,omitempty"`
	Status       string                   `json:"status"`
	ErrorMessage string                   `json:"errorMessage,omitempty"`
	TotalEntries int                      `json:"totalEntries"`
	Entries      []entryResponse          `json:"entries,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
	UpdatedAt    time.Time                `json:"updatedAt"`
}

func toRecordResponse(r *model.AttendanceRecord, withEntries bool) recordResponse {
	resp := recordResponse{
		ID:           r.ID,
		Date:         model.DateKey(r.Date),
		FileName:     r.FileName,
		FileType:     r.FileType.String(),
		SourceURI:    r.SourceURI,
		Status:       r.Status.String(),
		ErrorMessage: r.ErrorMessage,
		TotalEntries: len(r.Entries),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if withEntries {
		resp.Entries = make([]entryResponse, 0, len(r.Entries))
		for _, e := range r.Entries {
			resp.Entries = append(resp.Entries, entryResponse{
				FirstName:  e.FirstName,
				LastName:   e.LastName,
				Email:      e.Email,
				Duration:   e.Duration,
				TimeJoined: timePtr(e.TimeJoined),
				TimeExited: timePtr(e.TimeExited),
			})
		}
	}
	return resp
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type pageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type recomputeResponse struct {
	Date               string                   `json:"date"`
	TotalParticipants  int                      `json:"totalParticipants"`
	ComputedAt         time.Time                `json:"computedAt"`
	AttendanceRecordID model.AttendanceRecordID `json:"attendanceRecordId"`
}
