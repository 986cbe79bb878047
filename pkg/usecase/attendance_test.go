package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/domain/model/config"
	"github.com/secmon-lab/studyhall/pkg/domain/types"
	"github.com/secmon-lab/studyhall/pkg/repository/memory"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/secmon-lab/studyhall/pkg/utils/async"
)

func sampleUpload(t *testing.T) usecase.UploadInput {
	return usecase.UploadInput{
		Date:     testDate.Add(15 * time.Hour),
		FileName: "meet-2024-03-01.xlsx",
		Data: workbook(t,
			[]string{"Ravi", "", "", "30 min", "6:00 AM", "6:30 AM"},
			[]string{"ravi", "", "", "45 min", "7:00 AM", "7:45 AM"},
			[]string{"Meera", "Iyer", "MEERA@x.org", "1 hr 5 min", "6:00 AM", "7:05 AM"},
			[]string{"Study Space", "Admin", "", "10 hr", "5:00 AM", "3:00 PM"},
			[]string{"Broken", "Row", "", "soon", "6:00 AM", "6:10 AM"},
		),
	}
}

func TestAttendanceUseCase_Upload(t *testing.T) {
	t.Run("processes a spreadsheet", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithClock(fixedClock))

		result, err := uc.Attendance.Upload(adminCtx(), sampleUpload(t))
		gt.NoError(t, err).Required()

		gt.Value(t, result.Status).Equal(types.RecordStatusProcessed)
		gt.Value(t, result.Date).Equal(testDate)
		gt.Value(t, result.TotalEntries).Equal(4)
		gt.Value(t, result.TotalParticipants).Equal(2)
		gt.Array(t, result.Preview).Length(2).Required()
		gt.Value(t, result.Preview[0].FullName).Equal("Ravi")
		gt.Value(t, result.Preview[0].TotalDuration).Equal(75)
		gt.Value(t, result.Preview[0].SessionCount).Equal(2)
		gt.Value(t, result.Preview[1].FullName).Equal("Meera Iyer")
		gt.Value(t, result.Preview[1].Email).Equal("meera@x.org")

		record, err := repo.AttendanceRecord().GetByDate(context.Background(), testDate)
		gt.NoError(t, err).Required()
		gt.Value(t, record.ID).Equal(result.RecordID)
		gt.Value(t, record.Status).Equal(types.RecordStatusProcessed)
		gt.Value(t, record.FileType).Equal(types.FileTypeXLSX)
		gt.Array(t, record.Entries).Length(4)

		ranking, err := repo.DailyRanking().GetByDate(context.Background(), testDate)
		gt.NoError(t, err).Required()
		gt.Value(t, ranking.AttendanceRecordID).Equal(result.RecordID)
		gt.Value(t, ranking.TotalParticipants).Equal(2)
		gt.Value(t, ranking.ComputedAt).Equal(testNow)
	})

	t.Run("requires admin", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Attendance.Upload(publicCtx(), sampleUpload(t))
		gt.Error(t, err).Is(usecase.ErrAdminRequired)
	})

	t.Run("requires a date", func(t *testing.T) {
		uc := usecase.New(memory.New())
		in := sampleUpload(t)
		in.Date = time.Time{}
		_, err := uc.Attendance.Upload(adminCtx(), in)
		gt.Error(t, err).Is(usecase.ErrDateRequired)
	})

	t.Run("rejects unsupported files without storing anything", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		_, err := uc.Attendance.Upload(adminCtx(), usecase.UploadInput{
			Date:        testDate,
			FileName:    "notes.txt",
			ContentType: "text/plain",
			Data:        []byte("hello"),
		})
		gt.Error(t, err).Is(usecase.ErrUnsupportedFile)

		_, total, err := repo.AttendanceRecord().List(context.Background(), 0, 10)
		gt.NoError(t, err).Required()
		gt.Value(t, total).Equal(0)
	})

	t.Run("corrupt file marks the record failed", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		_, err := uc.Attendance.Upload(adminCtx(), usecase.UploadInput{
			Date:     testDate,
			FileName: "broken.xlsx",
			Data:     []byte("PK\x03\x04garbage"),
		})
		gt.Error(t, err).Is(usecase.ErrParseFailed)

		record, err := repo.AttendanceRecord().GetByDate(context.Background(), testDate)
		gt.NoError(t, err).Required()
		gt.Value(t, record.Status).Equal(types.RecordStatusFailed)
		gt.String(t, record.ErrorMessage).NotEqual("")
		gt.Array(t, record.Entries).Length(0)
	})

	t.Run("no usable rows is a distinct failure and drops the stale ranking", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		first, err := uc.Attendance.Upload(adminCtx(), sampleUpload(t))
		gt.NoError(t, err).Required()

		_, err = uc.Attendance.Upload(adminCtx(), usecase.UploadInput{
			Date:     testDate,
			FileName: "empty.xlsx",
			Data:     workbook(t, []string{"", "", "", "", "", ""}),
		})
		gt.Error(t, err).Is(usecase.ErrNoValidEntries)

		record, err := repo.AttendanceRecord().GetByDate(context.Background(), testDate)
		gt.NoError(t, err).Required()
		gt.Value(t, record.ID).Equal(first.RecordID)
		gt.Value(t, record.Status).Equal(types.RecordStatusFailed)
		gt.String(t, record.ErrorMessage).Contains("no valid entries")

		_, err = uc.Ranking.GetDay(adminCtx(), testDate, usecase.DayQuery{})
		gt.Error(t, err).Is(usecase.ErrNoData)
	})

	t.Run("re-upload overwrites the record of the date", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		first, err := uc.Attendance.Upload(adminCtx(), sampleUpload(t))
		gt.NoError(t, err).Required()

		second, err := uc.Attendance.Upload(adminCtx(), usecase.UploadInput{
			Date:     testDate,
			FileName: "second.xlsx",
			Data:     workbook(t, []string{"Zoe", "", "", "20 min", "6:00 AM", "6:20 AM"}),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, second.RecordID).Equal(first.RecordID)

		records, total, err := uc.Attendance.ListRecords(adminCtx(), nil, 1, 10)
		gt.NoError(t, err).Required()
		gt.Value(t, total).Equal(1)
		gt.Value(t, records[0].FileName).Equal("second.xlsx")

		view, err := uc.Ranking.GetDay(adminCtx(), testDate, usecase.DayQuery{})
		gt.NoError(t, err).Required()
		gt.Array(t, view.Rankings).Length(1).Required()
		gt.Value(t, view.Rankings[0].FullName).Equal("Zoe")
	})

	t.Run("notifies and archives", func(t *testing.T) {
		notifier := &mockNotifier{}
		archive := &mockArchive{}
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithNotifier(notifier), usecase.WithArchive(archive))

		_, err := uc.Attendance.Upload(adminCtx(), sampleUpload(t))
		gt.NoError(t, err).Required()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		gt.NoError(t, async.Wait(ctx)).Required()

		calls := notifier.calls()
		gt.Array(t, calls).Length(1).Required()
		gt.Value(t, calls[0].TotalParticipants).Equal(2)

		record, err := repo.AttendanceRecord().GetByDate(context.Background(), testDate)
		gt.NoError(t, err).Required()
		gt.Value(t, record.SourceURI).Equal("gs://attendance/2024-03-01/meet-2024-03-01.xlsx")
		gt.Array(t, archive.saved["2024-03-01/meet-2024-03-01.xlsx"]).Length(len(sampleUpload(t).Data))
	})

	t.Run("archive failure does not abort the upload", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithArchive(&mockArchive{fail: true}))

		result, err := uc.Attendance.Upload(adminCtx(), sampleUpload(t))
		gt.NoError(t, err).Required()
		gt.Value(t, result.Status).Equal(types.RecordStatusProcessed)
	})
}

func TestAttendanceUseCase_Recompute(t *testing.T) {
	cfg := config.DefaultRankingConfig()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithRankingConfig(cfg))

	_, err := uc.Attendance.Upload(adminCtx(), sampleUpload(t))
	gt.NoError(t, err).Required()

	cfg.ExcludedNames = append(cfg.ExcludedNames, "Meera")
	ranking, err := uc.Attendance.Recompute(adminCtx(), testDate)
	gt.NoError(t, err).Required()
	gt.Value(t, ranking.TotalParticipants).Equal(1)
	gt.Array(t, ranking.Rankings).Length(1)

	_, err = uc.Attendance.Recompute(adminCtx(), testDate.AddDate(0, 0, 1))
	gt.Error(t, err).Is(usecase.ErrNoData)

	_, err = uc.Attendance.Recompute(publicCtx(), testDate)
	gt.Error(t, err).Is(usecase.ErrAdminRequired)
}

func TestAttendanceUseCase_DeleteByDate(t *testing.T) {
	t.Run("removes both documents", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		_, err := uc.Attendance.Upload(adminCtx(), sampleUpload(t))
		gt.NoError(t, err).Required()

		result, err := uc.Attendance.DeleteByDate(adminCtx(), testDate)
		gt.NoError(t, err).Required()
		gt.Bool(t, result.AttendanceRecord).True()
		gt.Bool(t, result.DailyRanking).True()

		_, err = uc.Attendance.GetRecord(adminCtx(), testDate)
		gt.Error(t, err).Is(usecase.ErrNoData)
	})

	t.Run("reports a record without ranking", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		_, err := uc.Attendance.Upload(adminCtx(), usecase.UploadInput{
			Date:     testDate,
			FileName: "broken.xlsx",
			Data:     []byte("PK\x03\x04garbage"),
		})
		gt.Error(t, err).Is(usecase.ErrParseFailed)

		result, err := uc.Attendance.DeleteByDate(adminCtx(), testDate)
		gt.NoError(t, err).Required()
		gt.Bool(t, result.AttendanceRecord).True()
		gt.Bool(t, result.DailyRanking).False()
	})

	t.Run("nothing stored", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Attendance.DeleteByDate(adminCtx(), testDate)
		gt.Error(t, err).Is(usecase.ErrNoData)
	})
}

func TestAttendanceUseCase_ListRecords(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)

	for i := 0; i < 3; i++ {
		in := sampleUpload(t)
		in.Date = testDate.AddDate(0, 0, i)
		_, err := uc.Attendance.Upload(adminCtx(), in)
		gt.NoError(t, err).Required()
	}
	_, err := uc.Attendance.Upload(adminCtx(), usecase.UploadInput{
		Date:     testDate.AddDate(0, 0, 3),
		FileName: "broken.pdf",
		Data:     []byte("%PDF-1.4 broken"),
	})
	gt.Error(t, err).Is(usecase.ErrParseFailed)

	records, total, err := uc.Attendance.ListRecords(adminCtx(), nil, 1, 2)
	gt.NoError(t, err).Required()
	gt.Value(t, total).Equal(4)
	gt.Array(t, records).Length(2).Required()
	gt.Value(t, model.DateKey(records[0].Date)).Equal("2024-03-04")

	failed := types.RecordStatusFailed
	records, total, err = uc.Attendance.ListRecords(adminCtx(), &failed, 1, 10)
	gt.NoError(t, err).Required()
	gt.Value(t, total).Equal(1)
	gt.Value(t, records[0].FileType).Equal(types.FileTypePDF)

	bogus := types.RecordStatus("bogus")
	_, _, err = uc.Attendance.ListRecords(adminCtx(), &bogus, 1, 10)
	gt.Error(t, err).Is(usecase.ErrInvalidInput)
}
