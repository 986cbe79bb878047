package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/domain/types"
	"github.com/secmon-lab/studyhall/pkg/service/extract"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/secmon-lab/studyhall/pkg/utils/errutil"
	"github.com/secmon-lab/studyhall/pkg/utils/safe"
)

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)

	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errutil.HandleHTTPWithCode(ctx, w, goerr.Wrap(err, "upload is too large", goerr.V("limit", s.maxUploadSize)),
				http.StatusRequestEntityTooLarge, codeInvalidInput)
			return
		}
		handleError(ctx, w, goerr.Wrap(usecase.ErrInvalidInput, "multipart form expected", goerr.V("cause", err.Error())))
		return
	}

	date, err := parseDate("date", r.FormValue("date"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(ctx, w, goerr.Wrap(usecase.ErrInvalidInput, "file field is missing", goerr.V("cause", err.Error())))
		return
	}
	defer safe.Close(ctx, file)

	data, err := io.ReadAll(file)
	if err != nil {
		handleError(ctx, w, goerr.Wrap(err, "failed to read uploaded file", goerr.V(usecase.FileNameKey, header.Filename)))
		return
	}

	contentType := header.Header.Get("Content-Type")
	result, err := s.uc.Attendance.Upload(ctx, usecase.UploadInput{
		Date:        date,
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})

	fileType := "unknown"
	if ft, ok := extract.DetectFileType(data, contentType); ok {
		fileType = ft.String()
	}
	s.metrics.observeUpload(uploadOutcome(err), fileType)

	if err != nil {
		handleError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusCreated, toUploadResponse(result))
}

func uploadOutcome(err error) string {
	switch {
	case err == nil:
		return UploadOutcomeProcessed
	case errors.Is(err, usecase.ErrUnsupportedFile):
		return UploadOutcomeUnsupported
	case errors.Is(err, usecase.ErrParseFailed):
		return UploadOutcomeParseFailed
	case errors.Is(err, usecase.ErrNoValidEntries):
		return UploadOutcomeNoEntries
	default:
		return UploadOutcomeError
	}
}

func (s *Server) listRecordsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit, err := pageQuery(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	var status *types.RecordStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st := types.RecordStatus(strings.ToLower(raw))
		status = &st
	}

	records, total, err := s.uc.Attendance.ListRecords(ctx, status, page, limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	limit = s.uc.PageSize(limit)

	items := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toRecordResponse(rec, false))
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, pageResponse[recordResponse]{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (s *Server) getRecordHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := dateParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	record, err := s.uc.Attendance.GetRecord(ctx, date)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, toRecordResponse(record, true))
}

func (s *Server) recomputeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := dateParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	ranking, err := s.uc.Attendance.Recompute(ctx, date)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, recomputeResponse{
		Date:               model.DateKey(ranking.Date),
		TotalParticipants:  ranking.TotalParticipants,
		ComputedAt:         ranking.ComputedAt,
		AttendanceRecordID: ranking.AttendanceRecordID,
	})
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := dateParam(r)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Attendance.DeleteByDate(ctx, date)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	errutil.WriteJSON(ctx, w, http.StatusOK, toDeleteResponse(result))
}
