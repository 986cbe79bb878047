package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/xuri/excelize/v2"
)

var (
	testDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	testNow  = time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
)

func adminCtx() context.Context {
	return model.ContextWithViewer(context.Background(), model.Viewer{Subject: "admin", Privileged: true})
}

func publicCtx() context.Context {
	return context.Background()
}

func fixedClock() time.Time { return testNow }

// workbook builds an xlsx export with the standard header followed by rows
func workbook(t *testing.T, rows ...[]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	all := append([][]string{{"First name", "Last name", "Email", "Duration", "Time joined", "Time exited"}}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		gt.NoError(t, err).Required()
		gt.NoError(t, f.SetSheetRow(sheet, cell, &row)).Required()
	}
	buf, err := f.WriteToBuffer()
	gt.NoError(t, err).Required()
	return buf.Bytes()
}

type mockNotifier struct {
	mu       sync.Mutex
	rankings []*model.DailyRanking
	err      error
}

func (m *mockNotifier) NotifyRanking(ctx context.Context, ranking *model.DailyRanking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rankings = append(m.rankings, ranking)
	return m.err
}

func (m *mockNotifier) calls() []*model.DailyRanking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.DailyRanking(nil), m.rankings...)
}

type mockArchive struct {
	saved map[string][]byte
	fail  bool
}

func (m *mockArchive) Save(ctx context.Context, date time.Time, fileName, contentType string, data []byte) (string, error) {
	if m.fail {
		return "", goerr.New("bucket unavailable")
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	key := model.DateKey(date) + "/" + fileName
	m.saved[key] = data
	return "gs://attendance/" + key, nil
}
