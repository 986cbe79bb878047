package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/studyhall/pkg/controller/http"
	"github.com/secmon-lab/studyhall/pkg/domain/model/config"
	"github.com/secmon-lab/studyhall/pkg/repository/memory"
	"github.com/secmon-lab/studyhall/pkg/usecase"
	"github.com/xuri/excelize/v2"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testServer struct {
	handler http.Handler
	metrics *httpctrl.Metrics
}

func newServer(t *testing.T, opts ...usecase.Option) *testServer {
	t.Helper()
	cfg := config.DefaultRankingConfig()
	cfg.MaxDisplayableDuration = 720

	opts = append([]usecase.Option{
		usecase.WithAuth(usecase.NewNoAuthnUseCase()),
		usecase.WithRankingConfig(cfg),
		usecase.WithClock(func() time.Time { return time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC) }),
	}, opts...)
	uc := usecase.New(memory.New(), opts...)

	m := httpctrl.NewMetrics()
	return &testServer{
		handler: httpctrl.New(uc, httpctrl.WithMetrics(m)),
		metrics: m,
	}
}

func newJWTServer(t *testing.T) *testServer {
	return newServer(t, usecase.WithAuth(usecase.NewJWTAuthUseCase(testSecret)))
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject("user-1").
		Expiration(time.Now().Add(time.Hour)).
		Claim("role", role).
		Build()
	gt.NoError(t, err).Required()
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, testSecret))
	gt.NoError(t, err).Required()
	return string(signed)
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(t *testing.T, path, bearer string) *httptest.ResponseRecorder {
	return s.do(t, http.MethodGet, path, bearer, nil, "")
}

func (s *testServer) upload(t *testing.T, bearer, date, fileName string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if date != "" {
		gt.NoError(t, mw.WriteField("date", date)).Required()
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(h)
	gt.NoError(t, err).Required()
	_, err = part.Write(data)
	gt.NoError(t, err).Required()
	gt.NoError(t, mw.Close()).Required()

	return s.do(t, http.MethodPost, "/api/admin/attendance", bearer, &body, mw.FormDataContentType())
}

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

func sampleWorkbook(t *testing.T) []byte {
	return workbook(t,
		[]string{"Ravi", "Kumar", "ravi@example.com", "1 hr 15 min", "6:00 AM", "7:15 AM"},
		[]string{"meera", "iyer", "", "45 min", "6:10 AM", "6:55 AM"},
		[]string{"Night", "Owl", "", "33 hr 20 min", "1:00 AM", "11:00 PM"},
		[]string{"Study Space", "Admin", "", "10 hr", "5:00 AM", "3:00 PM"},
		[]string{"", "Nobody", "", "30 min", "6:00 AM", "6:30 AM"},
	)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &v)).Required()
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type dayBody struct {
	Date     string `json:"date"`
	Rankings []struct {
		Rank     int    `json:"rank"`
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	} `json:"rankings"`
	TotalParticipants int `json:"totalParticipants"`
	Statistics        struct {
		TotalParticipants int `json:"totalParticipants"`
		TopDuration       int `json:"topDuration"`
	} `json:"statistics"`
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.get(t, "/api/health", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode[map[string]string](t, w)["status"]).Equal("ok")
}

func TestUpload(t *testing.T) {
	t.Run("processes a spreadsheet", func(t *testing.T) {
		s := newServer(t)
		w := s.upload(t, "", "2024-03-01", "export.xlsx", sampleWorkbook(t))
		gt.Value(t, w.Code).Equal(http.StatusCreated)

		resp := decode[struct {
			RecordID          string `json:"recordId"`
			Date              string `json:"date"`
			TotalEntries      int    `json:"totalEntries"`
			TotalParticipants int    `json:"totalParticipants"`
			Status            string `json:"status"`
			Rankings          []struct {
				Rank     int    `json:"rank"`
				FullName string `json:"fullName"`
			} `json:"rankings"`
		}](t, w)
		gt.String(t, resp.RecordID).NotEqual("")
		gt.Value(t, resp.Date).Equal("2024-03-01")
		gt.Value(t, resp.TotalEntries).Equal(4)
		gt.Value(t, resp.TotalParticipants).Equal(3)
		gt.Value(t, resp.Status).Equal("processed")
		gt.Array(t, resp.Rankings).Length(3).Required()
		gt.Value(t, resp.Rankings[0].FullName).Equal("Night Owl")
		gt.Value(t, resp.Rankings[2].FullName).Equal("Meera Iyer")
	})

	t.Run("rejects unsupported files", func(t *testing.T) {
		s := newServer(t)
		w := s.upload(t, "", "2024-03-01", "notes.txt", []byte("plain text"))
		gt.Value(t, w.Code).Equal(http.StatusUnsupportedMediaType)
		gt.Value(t, decode[errorBody](t, w).Code).Equal("unsupported_file")
	})

	t.Run("corrupt spreadsheet is a parse failure", func(t *testing.T) {
		s := newServer(t)
		w := s.upload(t, "", "2024-03-01", "broken.xlsx", []byte("PK\x03\x04 definitely not a zip"))
		gt.Value(t, w.Code).Equal(http.StatusUnprocessableEntity)
		gt.Value(t, decode[errorBody](t, w).Code).Equal("parse_failed")

		rec := s.get(t, "/api/admin/attendance/2024-03-01", "")
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		body := decode[struct {
			Status       string `json:"status"`
			ErrorMessage string `json:"errorMessage"`
		}](t, rec)
		gt.Value(t, body.Status).Equal("failed")
		gt.String(t, body.ErrorMessage).NotEqual("")
	})

	t.Run("no valid rows has its own code", func(t *testing.T) {
		s := newServer(t)
		w := s.upload(t, "", "2024-03-01", "empty.xlsx", workbook(t))
		gt.Value(t, w.Code).Equal(http.StatusUnprocessableEntity)
		gt.Value(t, decode[errorBody](t, w).Code).Equal("no_valid_entries")
	})

	t.Run("date is required", func(t *testing.T) {
		s := newServer(t)
		w := s.upload(t, "", "", "export.xlsx", sampleWorkbook(t))
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		gt.Value(t, decode[errorBody](t, w).Code).Equal("date_required")
	})

	t.Run("malformed date", func(t *testing.T) {
		s := newServer(t)
		w := s.upload(t, "", "03/01/2024", "export.xlsx", sampleWorkbook(t))
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		gt.Value(t, decode[errorBody](t, w).Code).Equal("invalid_input")
	})

	t.Run("re-upload overwrites the day", func(t *testing.T) {
		s := newServer(t)
		gt.Value(t, s.upload(t, "", "2024-03-01", "first.xlsx", sampleWorkbook(t)).Code).Equal(http.StatusCreated)
		w := s.upload(t, "", "2024-03-01", "second.xlsx", workbook(t,
			[]string{"Zoe", "", "", "20 min", "6:00 AM", "6:20 AM"},
		))
		gt.Value(t, w.Code).Equal(http.StatusCreated)

		list := decode[struct {
			Items []struct {
				FileName string `json:"fileName"`
			} `json:"items"`
			Total int `json:"total"`
		}](t, s.get(t, "/api/admin/attendance", ""))
		gt.Value(t, list.Total).Equal(1)
		gt.Value(t, list.Items[0].FileName).Equal("second.xlsx")
	})
}

func TestRankings_PublicAndAdminViews(t *testing.T) {
	s := newJWTServer(t)
	admin := token(t, usecase.AdminRole)

	gt.Value(t, s.upload(t, admin, "2024-03-01", "export.xlsx", sampleWorkbook(t)).Code).Equal(http.StatusCreated)

	t.Run("public view hides implausible totals", func(t *testing.T) {
		w := s.get(t, "/api/rankings/2024-03-01", "")
		gt.Value(t, w.Code).Equal(http.StatusOK)
		day := decode[dayBody](t, w)
		gt.Value(t, day.Date).Equal("2024-03-01")
		gt.Array(t, day.Rankings).Length(2).Required()
		gt.Value(t, day.Rankings[0].Rank).Equal(1)
		gt.Value(t, day.Rankings[0].FullName).Equal("Ravi Kumar")
		gt.Value(t, day.TotalParticipants).Equal(2)
		gt.Value(t, day.Statistics.TopDuration).Equal(75)
	})

	t.Run("admin view keeps stored list", func(t *testing.T) {
		day := decode[dayBody](t, s.get(t, "/api/rankings/2024-03-01", admin))
		gt.Array(t, day.Rankings).Length(3).Required()
		gt.Value(t, day.Rankings[0].FullName).Equal("Night Owl")
		gt.Value(t, day.TotalParticipants).Equal(3)
	})

	t.Run("search and limit", func(t *testing.T) {
		day := decode[dayBody](t, s.get(t, "/api/rankings/2024-03-01?search=MEERA", ""))
		gt.Array(t, day.Rankings).Length(1).Required()
		gt.Value(t, day.Rankings[0].FullName).Equal("Meera Iyer")

		day = decode[dayBody](t, s.get(t, "/api/rankings/2024-03-01?limit=1", ""))
		gt.Array(t, day.Rankings).Length(1)
		gt.Value(t, day.TotalParticipants).Equal(1)
	})

	t.Run("duration bounds", func(t *testing.T) {
		day := decode[dayBody](t, s.get(t, "/api/rankings/2024-03-01?min=60&max=100", admin))
		gt.Array(t, day.Rankings).Length(1).Required()
		gt.Value(t, day.Rankings[0].Rank).Equal(2)
	})

	t.Run("invalid limit", func(t *testing.T) {
		w := s.get(t, "/api/rankings/2024-03-01?limit=abc", "")
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("statistics", func(t *testing.T) {
		w := s.get(t, "/api/rankings/2024-03-01/statistics", "")
		gt.Value(t, w.Code).Equal(http.StatusOK)
		stats := decode[struct {
			TotalParticipants int `json:"totalParticipants"`
			TotalDuration     int `json:"totalDuration"`
		}](t, w)
		gt.Value(t, stats.TotalParticipants).Equal(2)
		gt.Value(t, stats.TotalDuration).Equal(120)
	})

	t.Run("missing day", func(t *testing.T) {
		w := s.get(t, "/api/rankings/2024-03-02", "")
		gt.Value(t, w.Code).Equal(http.StatusNotFound)
		gt.Value(t, decode[errorBody](t, w).Code).Equal("not_found")
	})

	t.Run("list and range", func(t *testing.T) {
		list := decode[struct {
			Items []struct {
				Date              string `json:"date"`
				TotalParticipants int    `json:"totalParticipants"`
			} `json:"items"`
			Total int `json:"total"`
			Limit int `json:"limit"`
		}](t, s.get(t, "/api/rankings", ""))
		gt.Value(t, list.Total).Equal(1)
		gt.Value(t, list.Limit).Equal(config.DefaultLimit)
		gt.Value(t, list.Items[0].TotalParticipants).Equal(2)

		capped := decode[struct {
			Limit int `json:"limit"`
		}](t, s.get(t, "/api/rankings?limit=5000", ""))
		gt.Value(t, capped.Limit).Equal(1000)

		w := s.get(t, "/api/rankings/range?from=2024-02-28&to=2024-03-02", "")
		gt.Value(t, w.Code).Equal(http.StatusOK)
		rng := decode[struct {
			Rankings []dayBody `json:"rankings"`
		}](t, w)
		gt.Array(t, rng.Rankings).Length(1)

		w = s.get(t, "/api/rankings/range?from=2024-03-02&to=2024-03-01", "")
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("pdf export", func(t *testing.T) {
		w := s.get(t, "/api/rankings/2024-03-01/export.pdf", "")
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Header().Get("Content-Type")).Equal("application/pdf")
		gt.Bool(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF"))).True()
	})
}

func TestAdminEndpoints_Authorization(t *testing.T) {
	s := newJWTServer(t)

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		w := s.get(t, "/api/admin/attendance", "")
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		w := s.get(t, "/api/admin/attendance", token(t, "member"))
		gt.Value(t, w.Code).Equal(http.StatusForbidden)
		gt.Value(t, decode[errorBody](t, w).Code).Equal("forbidden")
	})

	t.Run("invalid token is rejected everywhere", func(t *testing.T) {
		w := s.get(t, "/api/rankings", "not-a-jwt")
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("other schemes are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/rankings", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, req)
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("upload needs admin", func(t *testing.T) {
		w := s.upload(t, token(t, "member"), "2024-03-01", "export.xlsx", sampleWorkbook(t))
		gt.Value(t, w.Code).Equal(http.StatusForbidden)
	})

	t.Run("admin is allowed", func(t *testing.T) {
		w := s.get(t, "/api/admin/attendance", token(t, usecase.AdminRole))
		gt.Value(t, w.Code).Equal(http.StatusOK)
	})
}

func TestRecordsAndDelete(t *testing.T) {
	s := newServer(t)
	gt.Value(t, s.upload(t, "", "2024-03-01", "export.xlsx", sampleWorkbook(t)).Code).Equal(http.StatusCreated)
	gt.Value(t, s.upload(t, "", "2024-03-02", "broken.xlsx", []byte("PK\x03\x04 garbage")).Code).Equal(http.StatusUnprocessableEntity)

	t.Run("filter by status", func(t *testing.T) {
		list := decode[struct {
			Items []struct {
				Date   string `json:"date"`
				Status string `json:"status"`
			} `json:"items"`
			Total int `json:"total"`
		}](t, s.get(t, "/api/admin/attendance?status=failed", ""))
		gt.Value(t, list.Total).Equal(1)
		gt.Value(t, list.Items[0].Date).Equal("2024-03-02")

		w := s.get(t, "/api/admin/attendance?status=bogus", "")
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("full record includes entries", func(t *testing.T) {
		rec := decode[struct {
			FileType     string `json:"fileType"`
			TotalEntries int    `json:"totalEntries"`
			Entries      []struct {
				FirstName string `json:"firstName"`
				Duration  int    `json:"duration"`
			} `json:"entries"`
		}](t, s.get(t, "/api/admin/attendance/2024-03-01", ""))
		gt.Value(t, rec.FileType).Equal("xlsx")
		gt.Value(t, rec.TotalEntries).Equal(4)
		gt.Array(t, rec.Entries).Length(4)
	})

	t.Run("recompute", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/admin/attendance/2024-03-01/recompute", "", nil, "")
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, decode[map[string]any](t, w)["totalParticipants"]).Equal(float64(3))

		w = s.do(t, http.MethodPost, "/api/admin/attendance/2024-03-02/recompute", "", nil, "")
		gt.Value(t, w.Code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("delete reports both flags", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, "/api/admin/attendance/2024-03-01", "", nil, "")
		gt.Value(t, w.Code).Equal(http.StatusOK)
		resp := decode[struct {
			Date    string `json:"date"`
			Deleted struct {
				AttendanceRecord bool `json:"attendanceRecord"`
				DailyRanking     bool `json:"dailyRanking"`
			} `json:"deleted"`
		}](t, w)
		gt.Value(t, resp.Date).Equal("2024-03-01")
		gt.Bool(t, resp.Deleted.AttendanceRecord).True()
		gt.Bool(t, resp.Deleted.DailyRanking).True()

		gt.Value(t, s.get(t, "/api/rankings/2024-03-01", "").Code).Equal(http.StatusNotFound)
		gt.Value(t, s.do(t, http.MethodDelete, "/api/admin/attendance/2024-03-01", "", nil, "").Code).Equal(http.StatusNotFound)
	})

	t.Run("failed day has a record but no ranking", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, "/api/admin/attendance/2024-03-02", "", nil, "")
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.String(t, w.Body.String()).Contains(`"dailyRanking":false`)
	})
}

func TestMetrics(t *testing.T) {
	s := newServer(t)
	s.upload(t, "", "2024-03-01", "export.xlsx", sampleWorkbook(t))
	s.upload(t, "", "2024-03-01", "notes.txt", []byte("hello"))
	s.get(t, "/api/health", "")

	w := s.get(t, "/metrics", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	body := w.Body.String()
	gt.String(t, body).Contains(`studyhall_uploads_total{file_type="xlsx",outcome="processed"} 1`)
	gt.String(t, body).Contains(`studyhall_uploads_total{file_type="unknown",outcome="unsupported"} 1`)
	gt.Bool(t, strings.Contains(body, `route="/api/health"`)).True()
}

func TestServer_DefaultAuthIsPublic(t *testing.T) {
	h := httpctrl.New(usecase.New(memory.New()))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/attendance", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	gt.Value(t, w.Code).Equal(http.StatusUnauthorized)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/attendance", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "admin"))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	gt.Value(t, w.Code).Equal(http.StatusUnauthorized)

	req = httptest.NewRequest(http.MethodGet, "/api/rankings", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	gt.Value(t, w.Code).Equal(http.StatusOK)
}
