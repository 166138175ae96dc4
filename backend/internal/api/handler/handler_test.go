package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"wolf-scheduler/backend/internal/dto"
	"wolf-scheduler/backend/internal/model"
	"wolf-scheduler/backend/internal/service"
	pkgerrors "wolf-scheduler/backend/pkg/errors"
	"wolf-scheduler/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ScheduleService ──

type mockScheduleService struct {
	lastQuery   *dto.CatalogQuery
	lastCourse  *dto.ScheduleCourseRequest
	catalog     *dto.CatalogResponse
	reload      *dto.CatalogReloadResponse
	reloadErr   error
	schedule    *dto.ScheduleResponse
	conflicts   []dto.ConflictResponse
	addResult   *dto.CourseRow
	addErr      error
	removeErr   error
	resetCalled bool
	title       string
	setTitleErr error
}

func (m *mockScheduleService) LoadCatalog(_ context.Context, _ string) (int, error) {
	return 0, nil
}
func (m *mockScheduleService) ReloadCatalog(_ context.Context) (*dto.CatalogReloadResponse, error) {
	return m.reload, m.reloadErr
}
func (m *mockScheduleService) ListCatalog(_ context.Context, q *dto.CatalogQuery) *dto.CatalogResponse {
	m.lastQuery = q
	return m.catalog
}
func (m *mockScheduleService) GetSchedule(_ context.Context) *dto.ScheduleResponse {
	return m.schedule
}
func (m *mockScheduleService) GetFullSchedule(_ context.Context) *dto.FullScheduleResponse {
	return &dto.FullScheduleResponse{Title: m.title, Courses: []dto.FullCourseRow{}}
}
func (m *mockScheduleService) GetCalendar(_ context.Context) *dto.CalendarResponse {
	return &dto.CalendarResponse{Title: m.title}
}
func (m *mockScheduleService) GetConflicts(_ context.Context) []dto.ConflictResponse {
	return m.conflicts
}
func (m *mockScheduleService) AddCourse(_ context.Context, req *dto.ScheduleCourseRequest) (*dto.CourseRow, error) {
	m.lastCourse = req
	return m.addResult, m.addErr
}
func (m *mockScheduleService) RemoveCourse(_ context.Context, req *dto.ScheduleCourseRequest) error {
	m.lastCourse = req
	return m.removeErr
}
func (m *mockScheduleService) ResetSchedule(_ context.Context) {
	m.resetCalled = true
}
func (m *mockScheduleService) GetTitle(_ context.Context) *dto.TitleResponse {
	return &dto.TitleResponse{Title: m.title}
}
func (m *mockScheduleService) SetTitle(_ context.Context, req *dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	if m.setTitleErr != nil {
		return nil, m.setTitleErr
	}
	if req.Title == nil {
		return nil, pkgerrors.ErrInvalidTitle
	}
	m.title = *req.Title
	return &dto.TitleResponse{Title: m.title}, nil
}
func (m *mockScheduleService) Snapshot(_ context.Context) (string, []*model.Course) {
	return m.title, nil
}
func (m *mockScheduleService) ExportSchedule(_ context.Context, _ string) (int, error) {
	return 0, nil
}

// ── Mock ExportService ──

type mockExportService struct {
	text     *dto.ExportScheduleResponse
	textErr  error
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportText(_ context.Context, filename string) (*dto.ExportScheduleResponse, error) {
	if m.textErr != nil {
		return nil, m.textErr
	}
	return &dto.ExportScheduleResponse{Path: "export/" + filename, Count: m.text.Count}, nil
}
func (m *mockExportService) ExportExcel(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportICS(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(r *gin.Engine, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()
	if w.Code != status {
		t.Errorf("期望 HTTP %d, 实际 %d (body=%s)", status, w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != code {
		t.Errorf("期望业务码 %d, 实际 %d", code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// CatalogHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCatalogHandler_ListCatalog(t *testing.T) {
	mock := &mockScheduleService{catalog: &dto.CatalogResponse{
		Total:   1,
		Courses: []dto.CourseRow{{Name: "CSC 216", Section: "001", Title: "Software Development Fundamentals"}},
	}}
	h := NewCatalogHandler(mock)
	r := gin.New()
	r.GET("/catalog", h.ListCatalog)

	w := serve(r, http.MethodGet, "/catalog?department=CSC&days=MW", nil)
	expectStatus(t, w, http.StatusOK, 0)
	if mock.lastQuery == nil || mock.lastQuery.Department != "CSC" || mock.lastQuery.Days != "MW" {
		t.Errorf("筛选参数未正确绑定: %+v", mock.lastQuery)
	}
}

func TestCatalogHandler_ListCatalog_InvalidQuery(t *testing.T) {
	h := NewCatalogHandler(&mockScheduleService{})
	r := gin.New()
	r.GET("/catalog", h.ListCatalog)

	w := serve(r, http.MethodGet, "/catalog?department=CSC1", nil)
	expectStatus(t, w, http.StatusBadRequest, codeInvalidParams)
}

func TestCatalogHandler_ReloadCatalog(t *testing.T) {
	tests := []struct {
		name   string
		mock   *mockScheduleService
		status int
		code   int
	}{
		{"成功", &mockScheduleService{reload: &dto.CatalogReloadResponse{Count: 10}}, http.StatusOK, 0},
		{"文件不可用", &mockScheduleService{reloadErr: fmt.Errorf("%w: open x", pkgerrors.ErrSourceUnavailable)}, http.StatusInternalServerError, codeSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCatalogHandler(tt.mock)
			r := gin.New()
			r.POST("/catalog/reload", h.ReloadCatalog)

			w := serve(r, http.MethodPost, "/catalog/reload", nil)
			expectStatus(t, w, tt.status, tt.code)
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleHandler Tests
// ═══════════════════════════════════════════════════════════

func setupScheduleRouter(mock *mockScheduleService) *gin.Engine {
	h := NewScheduleHandler(mock)
	r := gin.New()
	r.GET("/schedule", h.GetSchedule)
	r.GET("/schedule/full", h.GetFullSchedule)
	r.GET("/schedule/calendar", h.GetCalendar)
	r.GET("/schedule/conflicts", h.GetConflicts)
	r.POST("/schedule/courses", h.AddCourse)
	r.DELETE("/schedule/courses", h.RemoveCourse)
	r.POST("/schedule/reset", h.ResetSchedule)
	r.GET("/schedule/title", h.GetTitle)
	r.PUT("/schedule/title", h.UpdateTitle)
	return r
}

func TestScheduleHandler_Views(t *testing.T) {
	mock := &mockScheduleService{
		title:     "My Schedule",
		schedule:  &dto.ScheduleResponse{Title: "My Schedule", Courses: []dto.CourseRow{}},
		conflicts: []dto.ConflictResponse{},
	}
	r := setupScheduleRouter(mock)

	for _, path := range []string{"/schedule", "/schedule/full", "/schedule/calendar", "/schedule/conflicts", "/schedule/title"} {
		w := serve(r, http.MethodGet, path, nil)
		expectStatus(t, w, http.StatusOK, 0)
	}
}

func TestScheduleHandler_AddCourse(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		err    error
		status int
		code   int
	}{
		{"成功", dto.ScheduleCourseRequest{Name: "CSC 216", Section: "001"}, nil, http.StatusCreated, 0},
		{"缺少班级", map[string]string{"name": "CSC 216"}, nil, http.StatusBadRequest, codeInvalidParams},
		{"目录中不存在", dto.ScheduleCourseRequest{Name: "CSC 999", Section: "001"}, service.ErrCourseNotFound, http.StatusNotFound, codeCourseNotFound},
		{"重复选课", dto.ScheduleCourseRequest{Name: "CSC 216", Section: "002"},
			fmt.Errorf("%w: CSC 216", pkgerrors.ErrDuplicateEnrollment), http.StatusConflict, codeDuplicateEnrolled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockScheduleService{
				addResult: &dto.CourseRow{Name: "CSC 216", Section: "001"},
				addErr:    tt.err,
			}
			r := setupScheduleRouter(mock)

			w := serve(r, http.MethodPost, "/schedule/courses", jsonBody(tt.body))
			expectStatus(t, w, tt.status, tt.code)
		})
	}
}

func TestScheduleHandler_RemoveCourse(t *testing.T) {
	mock := &mockScheduleService{}
	r := setupScheduleRouter(mock)

	w := serve(r, http.MethodDelete, "/schedule/courses?name=CSC%20216&section=001", nil)
	expectStatus(t, w, http.StatusOK, 0)
	if mock.lastCourse == nil || mock.lastCourse.Name != "CSC 216" || mock.lastCourse.Section != "001" {
		t.Errorf("退课参数未正确绑定: %+v", mock.lastCourse)
	}

	mock.removeErr = service.ErrCourseNotEnrolled
	w = serve(r, http.MethodDelete, "/schedule/courses?name=CSC%20116&section=001", nil)
	expectStatus(t, w, http.StatusNotFound, codeCourseNotEnrolled)

	w = serve(r, http.MethodDelete, "/schedule/courses?name=CSC%20116", nil)
	expectStatus(t, w, http.StatusBadRequest, codeInvalidParams)
}

func TestScheduleHandler_ResetSchedule(t *testing.T) {
	mock := &mockScheduleService{}
	r := setupScheduleRouter(mock)

	w := serve(r, http.MethodPost, "/schedule/reset", nil)
	expectStatus(t, w, http.StatusOK, 0)
	if !mock.resetCalled {
		t.Error("期望调用 ResetSchedule")
	}
}

func TestScheduleHandler_UpdateTitle(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   int
		want   string
	}{
		{"修改成功", `{"title":"Fall 2025"}`, http.StatusOK, 0, "Fall 2025"},
		{"空标题允许", `{"title":""}`, http.StatusOK, 0, ""},
		{"null 被拒绝", `{"title":null}`, http.StatusBadRequest, codeInvalidTitle, "unchanged"},
		{"缺失被拒绝", `{}`, http.StatusBadRequest, codeInvalidTitle, "unchanged"},
		{"非法 JSON", `{`, http.StatusBadRequest, codeInvalidParams, "unchanged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockScheduleService{title: "unchanged"}
			r := setupScheduleRouter(mock)

			w := serve(r, http.MethodPut, "/schedule/title", strings.NewReader(tt.body))
			expectStatus(t, w, tt.status, tt.code)
			if mock.title != tt.want {
				t.Errorf("期望标题 %q, 实际 %q", tt.want, mock.title)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func setupExportRouter(mock *mockExportService) *gin.Engine {
	h := NewExportHandler(mock)
	r := gin.New()
	r.POST("/schedule/export", h.ExportText)
	r.GET("/schedule/export/xlsx", h.ExportExcel)
	r.GET("/schedule/export/ics", h.ExportICS)
	return r
}

func TestExportHandler_ExportText(t *testing.T) {
	mock := &mockExportService{text: &dto.ExportScheduleResponse{Count: 2}}
	r := setupExportRouter(mock)

	w := serve(r, http.MethodPost, "/schedule/export", jsonBody(dto.ExportScheduleRequest{Filename: "fall.txt"}))
	expectStatus(t, w, http.StatusOK, 0)

	w = serve(r, http.MethodPost, "/schedule/export", jsonBody(map[string]string{}))
	expectStatus(t, w, http.StatusBadRequest, codeInvalidParams)

	mock.textErr = fmt.Errorf("%w: permission denied", pkgerrors.ErrExportFailed)
	w = serve(r, http.MethodPost, "/schedule/export", jsonBody(dto.ExportScheduleRequest{Filename: "fall.txt"}))
	expectStatus(t, w, http.StatusInternalServerError, codeExportFailed)
}

func TestExportHandler_Downloads(t *testing.T) {
	tests := []struct {
		path        string
		filename    string
		contentType string
	}{
		{"/schedule/export/xlsx", "My Schedule.xlsx", contentTypeXLSX},
		{"/schedule/export/ics", "My Schedule.ics", contentTypeICS},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			mock := &mockExportService{buf: bytes.NewBufferString("payload"), filename: tt.filename}
			r := setupExportRouter(mock)

			w := serve(r, http.MethodGet, tt.path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("期望 200, 实际 %d", w.Code)
			}
			if got := w.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type 不符: %s", got)
			}
			if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "My%20Schedule") {
				t.Errorf("Content-Disposition 不符: %s", got)
			}
			if w.Body.String() != "payload" {
				t.Errorf("响应体不符: %q", w.Body.String())
			}
		})
	}
}

func TestExportHandler_DownloadError(t *testing.T) {
	r := setupExportRouter(&mockExportService{err: errors.New("boom")})

	w := serve(r, http.MethodGet, "/schedule/export/xlsx", nil)
	expectStatus(t, w, http.StatusInternalServerError, 50000)
}
