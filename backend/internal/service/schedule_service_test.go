package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"wolf-scheduler/backend/internal/dto"
	"wolf-scheduler/backend/internal/repository"
	pkgerrors "wolf-scheduler/backend/pkg/errors"
)

const testCatalogPath = "catalog.txt"

// ── 测试辅助 ──

func setupTestScheduleService(t *testing.T) (ScheduleService, *mockCourseRecordRepo) {
	t.Helper()
	recordRepo := newMockCourseRecordRepo().withCatalog(t, testCatalogPath, testCatalogRecords)
	repo := &repository.Repository{CourseRecord: recordRepo}
	svc := NewScheduleService(testCatalogPath, "", repo, zap.NewNop())

	if _, err := svc.LoadCatalog(context.Background(), testCatalogPath); err != nil {
		t.Fatalf("加载目录失败: %v", err)
	}
	return svc, recordRepo
}

func addCourse(t *testing.T, svc ScheduleService, name, section string) {
	t.Helper()
	req := &dto.ScheduleCourseRequest{Name: name, Section: section}
	if _, err := svc.AddCourse(context.Background(), req); err != nil {
		t.Fatalf("选课 %s-%s 失败: %v", name, section, err)
	}
}

// ── LoadCatalog ──

func TestScheduleService_LoadCatalog(t *testing.T) {
	svc, _ := setupTestScheduleService(t)

	resp := svc.ListCatalog(context.Background(), nil)
	if resp.Total != 10 || len(resp.Courses) != 10 {
		t.Errorf("期望目录 10 门课程, 实际 total=%d len=%d", resp.Total, len(resp.Courses))
	}
}

func TestScheduleService_LoadCatalog_MissingKeepsCurrent(t *testing.T) {
	svc, _ := setupTestScheduleService(t)
	addCourse(t, svc, "CSC 216", "001")

	_, err := svc.LoadCatalog(context.Background(), "missing.txt")
	if !errors.Is(err, pkgerrors.ErrSourceUnavailable) {
		t.Fatalf("期望 ErrSourceUnavailable，实际: %v", err)
	}

	// 加载失败不影响现有目录与课表
	if got := svc.ListCatalog(context.Background(), nil).Total; got != 10 {
		t.Errorf("期望目录仍为 10 门课程, 实际 %d", got)
	}
	if got := len(svc.GetSchedule(context.Background()).Courses); got != 1 {
		t.Errorf("期望课表仍有 1 门课程, 实际 %d", got)
	}
}

func TestScheduleService_ReloadCatalog(t *testing.T) {
	svc, recordRepo := setupTestScheduleService(t)
	_, _ = svc.SetTitle(context.Background(), &dto.UpdateTitleRequest{Title: strPtr("Fall")})
	addCourse(t, svc, "CSC 216", "001")

	recordRepo.withCatalog(t, testCatalogPath, "MA 141,Calculus I,001,4,jwilson,MWF,1000,1050\n")

	resp, err := svc.ReloadCatalog(context.Background())
	if err != nil {
		t.Fatalf("重新加载失败: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("期望加载 1 门课程, 实际 %d", resp.Count)
	}

	sched := svc.GetSchedule(context.Background())
	if len(sched.Courses) != 0 {
		t.Errorf("重新加载后课表应被清空, 实际 %d 门", len(sched.Courses))
	}
	if sched.Title != "Fall" {
		t.Errorf("重新加载后标题应保留, 实际 %q", sched.Title)
	}
}

// ── ListCatalog ──

func TestScheduleService_ListCatalog_Filters(t *testing.T) {
	svc, _ := setupTestScheduleService(t)

	tests := []struct {
		name  string
		query *dto.CatalogQuery
		want  int
	}{
		{"无筛选", &dto.CatalogQuery{}, 10},
		{"按院系", &dto.CatalogQuery{Department: "csc"}, 8},
		{"按上课日", &dto.CatalogQuery{Days: "MWF"}, 2},
		{"院系加上课日", &dto.CatalogQuery{Department: "E", Days: "A"}, 1},
		{"无匹配", &dto.CatalogQuery{Department: "PY"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := svc.ListCatalog(context.Background(), tt.query)
			if resp.Total != tt.want {
				t.Errorf("期望 %d 行, 实际 %d", tt.want, resp.Total)
			}
			if resp.Courses == nil {
				t.Error("Courses 不应为 nil")
			}
		})
	}
}

// ── AddCourse ──

func TestScheduleService_AddCourse(t *testing.T) {
	svc, _ := setupTestScheduleService(t)
	ctx := context.Background()

	row, err := svc.AddCourse(ctx, &dto.ScheduleCourseRequest{Name: "CSC 216", Section: "001"})
	if err != nil {
		t.Fatalf("选课应成功: %v", err)
	}
	if row.Title != "Software Development Fundamentals" {
		t.Errorf("返回的课程标题不符: %q", row.Title)
	}

	_, err = svc.AddCourse(ctx, &dto.ScheduleCourseRequest{Name: "CSC 216", Section: "002"})
	if !errors.Is(err, pkgerrors.ErrDuplicateEnrollment) {
		t.Errorf("期望 ErrDuplicateEnrollment，实际: %v", err)
	}

	_, err = svc.AddCourse(ctx, &dto.ScheduleCourseRequest{Name: "CSC 999", Section: "001"})
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ── RemoveCourse ──

func TestScheduleService_RemoveCourse(t *testing.T) {
	svc, _ := setupTestScheduleService(t)
	ctx := context.Background()
	addCourse(t, svc, "CSC 216", "001")

	err := svc.RemoveCourse(ctx, &dto.ScheduleCourseRequest{Name: "CSC 116", Section: "001"})
	if !errors.Is(err, ErrCourseNotEnrolled) {
		t.Errorf("期望 ErrCourseNotEnrolled，实际: %v", err)
	}

	if err := svc.RemoveCourse(ctx, &dto.ScheduleCourseRequest{Name: "CSC 216", Section: "001"}); err != nil {
		t.Fatalf("退课应成功: %v", err)
	}
	if got := len(svc.GetSchedule(ctx).Courses); got != 0 {
		t.Errorf("退课后课表应为空, 实际 %d", got)
	}
}

// ── Title ──

func TestScheduleService_Title(t *testing.T) {
	svc, _ := setupTestScheduleService(t)
	ctx := context.Background()

	if got := svc.GetTitle(ctx).Title; got != DefaultScheduleTitle {
		t.Errorf("期望默认标题 %q, 实际 %q", DefaultScheduleTitle, got)
	}

	if _, err := svc.SetTitle(ctx, &dto.UpdateTitleRequest{}); !errors.Is(err, pkgerrors.ErrInvalidTitle) {
		t.Errorf("期望 ErrInvalidTitle，实际: %v", err)
	}

	resp, err := svc.SetTitle(ctx, &dto.UpdateTitleRequest{Title: strPtr("")})
	if err != nil {
		t.Fatalf("空标题应被允许: %v", err)
	}
	if resp.Title != "" {
		t.Errorf("期望空标题, 实际 %q", resp.Title)
	}
}

func TestScheduleService_DefaultTitleFromConfig(t *testing.T) {
	repo := &repository.Repository{CourseRecord: newMockCourseRecordRepo()}
	svc := NewScheduleService(testCatalogPath, "Spring 2026", repo, zap.NewNop())

	if got := svc.GetTitle(context.Background()).Title; got != "Spring 2026" {
		t.Errorf("期望配置的默认标题, 实际 %q", got)
	}
}

// ── Reset / 视图 ──

func TestScheduleService_ResetAndViews(t *testing.T) {
	svc, _ := setupTestScheduleService(t)
	ctx := context.Background()
	addCourse(t, svc, "CSC 116", "001")
	addCourse(t, svc, "MA 141", "001")
	addCourse(t, svc, "E 115", "601")

	full := svc.GetFullSchedule(ctx)
	if len(full.Courses) != 3 || full.Courses[2].Meeting != "Arranged" {
		t.Errorf("完整视图不符: %+v", full.Courses)
	}

	cal := svc.GetCalendar(ctx)
	if len(cal.Days) != 5 || len(cal.Arranged) != 1 {
		t.Errorf("周视图不符: days=%d arranged=%d", len(cal.Days), len(cal.Arranged))
	}

	if got := svc.GetConflicts(ctx); len(got) != 1 {
		t.Errorf("期望 1 组冲突, 实际 %d", len(got))
	}

	svc.ResetSchedule(ctx)
	if got := len(svc.GetSchedule(ctx).Courses); got != 0 {
		t.Errorf("清空后课表应为空, 实际 %d", got)
	}
	if got := svc.ListCatalog(ctx, nil).Total; got != 10 {
		t.Errorf("清空课表不应影响目录, 实际 %d", got)
	}
}

// ── ExportSchedule ──

func TestScheduleService_ExportSchedule(t *testing.T) {
	svc, recordRepo := setupTestScheduleService(t)
	ctx := context.Background()
	addCourse(t, svc, "CSC 216", "002")
	addCourse(t, svc, "E 115", "601")

	n, err := svc.ExportSchedule(ctx, "out.txt")
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if n != 2 || len(recordRepo.saved["out.txt"]) != 2 {
		t.Errorf("期望导出 2 门课程, 实际 n=%d saved=%d", n, len(recordRepo.saved["out.txt"]))
	}

	recordRepo.saveErr = pkgerrors.ErrExportFailed
	if _, err := svc.ExportSchedule(ctx, "out.txt"); !errors.Is(err, pkgerrors.ErrExportFailed) {
		t.Errorf("期望 ErrExportFailed，实际: %v", err)
	}
}

// ── 并发 ──

func TestScheduleService_ConcurrentAccess(t *testing.T) {
	svc, _ := setupTestScheduleService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AddCourse(ctx, &dto.ScheduleCourseRequest{Name: "CSC 216", Section: "001"})
			_ = svc.GetSchedule(ctx)
			_ = svc.GetConflicts(ctx)
		}()
	}
	wg.Wait()

	// 同名课程只能选一次
	if got := len(svc.GetSchedule(ctx).Courses); got != 1 {
		t.Errorf("并发选课后期望 1 门课程, 实际 %d", got)
	}
}
