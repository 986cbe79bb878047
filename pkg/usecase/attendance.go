package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/domain/model/config"
	"github.com/secmon-lab/studyhall/pkg/domain/types"
	"github.com/secmon-lab/studyhall/pkg/service/extract"
	"github.com/secmon-lab/studyhall/pkg/utils/async"
	"github.com/secmon-lab/studyhall/pkg/utils/errutil"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// AttendanceUseCase owns the per-date upload lifecycle:
// no record -> pending -> processed | failed. A re-upload overwrites the record of the date.
type AttendanceUseCase struct {
	repo     interfaces.Repository
	cfg      *config.RankingConfig
	archive  interfaces.FileArchive
	notifier interfaces.Notifier
	clock    func() time.Time
}

type attendanceOption func(*AttendanceUseCase)

func withArchive(a interfaces.FileArchive) attendanceOption {
	return func(uc *AttendanceUseCase) { uc.archive = a }
}

func withNotifier(n interfaces.Notifier) attendanceOption {
	return func(uc *AttendanceUseCase) { uc.notifier = n }
}

func withClock(c func() time.Time) attendanceOption {
	return func(uc *AttendanceUseCase) { uc.clock = c }
}

func NewAttendanceUseCase(repo interfaces.Repository, cfg *config.RankingConfig, opts ...attendanceOption) *AttendanceUseCase {
	uc := &AttendanceUseCase{
		repo:  repo,
		cfg:   cfg,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// UploadInput is one attendance export for one day
type UploadInput struct {
	Date        time.Time
	FileName    string
	ContentType string
	Data        []byte
}

// UploadResult summarizes a processed upload
type UploadResult struct {
	RecordID          model.AttendanceRecordID
	Date              time.Time
	TotalEntries      int
	TotalParticipants int
	Status            types.RecordStatus
	Preview           []model.RankingEntry
}

// Upload stores the file as the attendance record of its date and recomputes the
// ranking. An unsupported file is rejected before anything is stored. A parse
// failure or an empty result leaves the record failed with its error message and
// removes the stale ranking of the date.
func (uc *AttendanceUseCase) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, goerr.Wrap(ErrDateRequired, "upload needs a date", goerr.V(FileNameKey, in.FileName))
	}
	date := model.TruncateDay(in.Date)
	logger := logging.From(ctx).With("date", model.DateKey(date), "file_name", in.FileName)

	fileType, ok := extract.DetectFileType(in.Data, in.ContentType)
	if !ok {
		return nil, goerr.Wrap(ErrUnsupportedFile, "file is neither pdf nor xlsx",
			goerr.V(FileNameKey, in.FileName),
			goerr.V("content_type", in.ContentType),
		)
	}

	record := &model.AttendanceRecord{
		Date:     date,
		FileName: in.FileName,
		FileType: fileType,
		Status:   types.RecordStatusPending,
	}
	if uc.archive != nil {
		uri, err := uc.archive.Save(ctx, date, in.FileName, fileType.ContentType(), in.Data)
		if err != nil {
			errutil.Handle(ctx, err, "failed to archive upload")
		} else {
			record.SourceURI = uri
		}
	}

	record, err := uc.repo.AttendanceRecord().Put(ctx, record)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store pending record", goerr.V(DateKey, model.DateKey(date)))
	}
	logger.Info("attendance upload pending", "record_id", record.ID, "file_type", fileType)

	entries, err := extract.Extract(ctx, in.Data, fileType, date)
	if err != nil {
		return nil, uc.fail(ctx, record, err)
	}
	if len(entries) == 0 {
		return nil, uc.fail(ctx, record, goerr.Wrap(ErrNoValidEntries, "file contains no usable rows",
			goerr.V(FileNameKey, in.FileName),
		))
	}

	ranking := ComputeRanking(date, entries, uc.cfg, uc.clock())
	ranking.AttendanceRecordID = record.ID

	record.Entries = entries
	record.Status = types.RecordStatusProcessed
	record.ErrorMessage = ""
	if _, err := uc.repo.AttendanceRecord().Put(ctx, record); err != nil {
		return nil, goerr.Wrap(err, "failed to store processed record", goerr.V(RecordIDKey, record.ID))
	}
	if _, err := uc.repo.DailyRanking().Put(ctx, ranking); err != nil {
		return nil, goerr.Wrap(err, "failed to store ranking", goerr.V(RecordIDKey, record.ID))
	}

	logger.Info("attendance upload processed",
		"record_id", record.ID,
		"entries", len(entries),
		"participants", ranking.TotalParticipants,
	)
	uc.notify(ctx, ranking)

	return &UploadResult{
		RecordID:          record.ID,
		Date:              date,
		TotalEntries:      len(entries),
		TotalParticipants: ranking.TotalParticipants,
		Status:            record.Status,
		Preview:           preview(ranking.Rankings),
	}, nil
}

// fail marks the record failed and returns cause. Storage errors while doing so are
// logged so the caller still sees the original cause.
func (uc *AttendanceUseCase) fail(ctx context.Context, record *model.AttendanceRecord, cause error) error {
	record.Status = types.RecordStatusFailed
	record.ErrorMessage = cause.Error()
	record.Entries = nil

	if _, err := uc.repo.AttendanceRecord().Put(ctx, record); err != nil {
		errutil.Handle(ctx, err, "failed to mark record failed")
	}
	if err := uc.repo.DailyRanking().DeleteByDate(ctx, record.Date); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		errutil.Handle(ctx, err, "failed to remove stale ranking")
	}

	logging.From(ctx).Warn("attendance upload failed",
		"date", model.DateKey(record.Date),
		"record_id", record.ID,
		"error", cause.Error(),
	)
	return cause
}

func (uc *AttendanceUseCase) notify(ctx context.Context, ranking *model.DailyRanking) {
	if uc.notifier == nil {
		return
	}
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.notifier.NotifyRanking(ctx, ranking)
	})
}

func preview(rankings []model.RankingEntry) []model.RankingEntry {
	if len(rankings) > config.DefaultPreviewSize {
		rankings = rankings[:config.DefaultPreviewSize]
	}
	return model.CopyRankings(rankings)
}

// Recompute rebuilds the ranking of a processed record from its stored entries with
// the current configuration, e.g. after the excluded names changed
func (uc *AttendanceUseCase) Recompute(ctx context.Context, date time.Time) (*model.DailyRanking, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	record, err := uc.GetRecord(ctx, date)
	if err != nil {
		return nil, err
	}
	if record.Status != types.RecordStatusProcessed || len(record.Entries) == 0 {
		return nil, goerr.Wrap(ErrNoValidEntries, "record has no processed entries",
			goerr.V(DateKey, model.DateKey(date)),
			goerr.V("status", record.Status),
		)
	}

	ranking := ComputeRanking(record.Date, record.Entries, uc.cfg, uc.clock())
	ranking.AttendanceRecordID = record.ID

	stored, err := uc.repo.DailyRanking().Put(ctx, ranking)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store ranking", goerr.V(DateKey, model.DateKey(date)))
	}

	logging.From(ctx).Info("ranking recomputed",
		"date", model.DateKey(date),
		"participants", stored.TotalParticipants,
	)
	return stored, nil
}

// DeleteResult reports which of the two documents of a date were removed
type DeleteResult struct {
	Date             time.Time
	AttendanceRecord bool
	DailyRanking     bool
}

// DeleteByDate removes the record and the ranking of the date. Both deletes are
// attempted. When only one of them fails, the failure is logged and visible through
// the flags. ErrNoData is returned when neither existed.
func (uc *AttendanceUseCase) DeleteByDate(ctx context.Context, date time.Time) (*DeleteResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, goerr.Wrap(ErrDateRequired, "delete needs a date")
	}
	result := &DeleteResult{Date: model.TruncateDay(date)}

	var recordErr, rankingErr error
	var eg errgroup.Group
	eg.Go(func() error {
		result.AttendanceRecord, recordErr = deleted(uc.repo.AttendanceRecord().DeleteByDate(ctx, date))
		return nil
	})
	eg.Go(func() error {
		result.DailyRanking, rankingErr = deleted(uc.repo.DailyRanking().DeleteByDate(ctx, date))
		return nil
	})
	_ = eg.Wait()

	switch {
	case recordErr != nil && rankingErr != nil:
		errutil.Handle(ctx, rankingErr, "failed to delete ranking")
		return nil, goerr.Wrap(recordErr, "failed to delete attendance data", goerr.V(DateKey, model.DateKey(date)))
	case recordErr != nil:
		errutil.Handle(ctx, recordErr, "failed to delete attendance record")
	case rankingErr != nil:
		errutil.Handle(ctx, rankingErr, "failed to delete ranking")
	}

	if !result.AttendanceRecord && !result.DailyRanking {
		if recordErr != nil {
			return nil, goerr.Wrap(recordErr, "failed to delete attendance record", goerr.V(DateKey, model.DateKey(date)))
		}
		if rankingErr != nil {
			return nil, goerr.Wrap(rankingErr, "failed to delete ranking", goerr.V(DateKey, model.DateKey(date)))
		}
		return nil, goerr.Wrap(ErrNoData, "nothing stored for date", goerr.V(DateKey, model.DateKey(date)))
	}

	logging.From(ctx).Info("attendance data deleted",
		"date", model.DateKey(date),
		"attendance_record", result.AttendanceRecord,
		"daily_ranking", result.DailyRanking,
	)
	return result, nil
}

// deleted converts a delete error into a removed flag, treating not-found as a clean miss
func deleted(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, interfaces.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// GetRecord returns the attendance record of the date
func (uc *AttendanceUseCase) GetRecord(ctx context.Context, date time.Time) (*model.AttendanceRecord, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, goerr.Wrap(ErrDateRequired, "record lookup needs a date")
	}

	record, err := uc.repo.AttendanceRecord().GetByDate(ctx, date)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNoData, "no attendance record", goerr.V(DateKey, model.DateKey(date)))
		}
		return nil, goerr.Wrap(err, "failed to get attendance record", goerr.V(DateKey, model.DateKey(date)))
	}
	return record, nil
}

// ListRecords returns a page of records, newest first, optionally only those in status
func (uc *AttendanceUseCase) ListRecords(ctx context.Context, status *types.RecordStatus, page, limit int) ([]*model.AttendanceRecord, int, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	var opts []interfaces.ListRecordOption
	if status != nil {
		if !status.IsValid() {
			return nil, 0, goerr.Wrap(ErrInvalidInput, "invalid record status", goerr.V("status", *status))
		}
		opts = append(opts, interfaces.WithStatus(*status))
	}

	offset, size := pageWindow(page, limit, uc.cfg.DefaultLimit)
	records, total, err := uc.repo.AttendanceRecord().List(ctx, offset, size, opts...)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list attendance records")
	}
	return records, total, nil
}
