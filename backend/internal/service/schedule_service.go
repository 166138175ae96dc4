package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"wolf-scheduler/backend/internal/dto"
	"wolf-scheduler/backend/internal/model"
	"wolf-scheduler/backend/internal/repository"
)

// ── 课表模块业务错误 ──

var (
	ErrCourseNotFound    = errors.New("课程目录中不存在该课程")
	ErrCourseNotEnrolled = errors.New("课表中没有该课程")
)

// ScheduleService 课程目录与个人课表业务接口
//
// 设计说明：
//   - 内部持有一个 Scheduler，所有调用由同一把互斥锁串行化
//   - 目录来自 catalog.path 指向的课程记录文件，重新加载即整体替换
//   - 返回的课程指针指向不可变对象，可在锁外安全读取
type ScheduleService interface {
	// 从文件加载课程目录，返回加载的课程数
	LoadCatalog(ctx context.Context, path string) (int, error)
	// 按配置路径重新加载课程目录
	ReloadCatalog(ctx context.Context) (*dto.CatalogReloadResponse, error)
	// 课程目录（可选院系/上课日筛选）
	ListCatalog(ctx context.Context, query *dto.CatalogQuery) *dto.CatalogResponse
	// 课表简要视图
	GetSchedule(ctx context.Context) *dto.ScheduleResponse
	// 课表完整视图
	GetFullSchedule(ctx context.Context) *dto.FullScheduleResponse
	// 课表周视图
	GetCalendar(ctx context.Context) *dto.CalendarResponse
	// 课表时间冲突
	GetConflicts(ctx context.Context) []dto.ConflictResponse
	// 选课
	AddCourse(ctx context.Context, req *dto.ScheduleCourseRequest) (*dto.CourseRow, error)
	// 退课
	RemoveCourse(ctx context.Context, req *dto.ScheduleCourseRequest) error
	// 清空课表
	ResetSchedule(ctx context.Context)
	// 课表标题
	GetTitle(ctx context.Context) *dto.TitleResponse
	// 修改课表标题
	SetTitle(ctx context.Context, req *dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	// 课表快照（标题 + 课程）
	Snapshot(ctx context.Context) (string, []*model.Course)
	// 以课程记录格式导出课表到指定路径，返回导出的课程数
	ExportSchedule(ctx context.Context, path string) (int, error)
}

type scheduleService struct {
	mu          sync.Mutex
	scheduler   *Scheduler
	catalogPath string
	repo        *repository.Repository
	logger      *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例，目录为空，需调用 LoadCatalog 加载
func NewScheduleService(catalogPath, defaultTitle string, repo *repository.Repository, logger *zap.Logger) ScheduleService {
	scheduler := NewScheduler(nil)
	if defaultTitle != "" {
		_ = scheduler.SetTitle(&defaultTitle)
	}
	return &scheduleService{
		scheduler:   scheduler,
		catalogPath: catalogPath,
		repo:        repo,
		logger:      logger,
	}
}

// ═══════════════════════════════════════════════════════════
// 课程目录
// ═══════════════════════════════════════════════════════════

func (s *scheduleService) LoadCatalog(ctx context.Context, path string) (int, error) {
	// 文件读取在锁外进行，失败时不影响现有目录
	courses, err := s.repo.CourseRecord.Load(ctx, path)
	if err != nil {
		s.logger.Error("加载课程目录失败", zap.String("path", path), zap.Error(err))
		return 0, err
	}

	s.mu.Lock()
	s.scheduler.ReplaceCatalog(courses)
	s.mu.Unlock()

	s.logger.Info("课程目录已加载", zap.String("path", path), zap.Int("count", len(courses)))
	return len(courses), nil
}

func (s *scheduleService) ReloadCatalog(ctx context.Context) (*dto.CatalogReloadResponse, error) {
	n, err := s.LoadCatalog(ctx, s.catalogPath)
	if err != nil {
		return nil, err
	}
	return &dto.CatalogReloadResponse{Count: n}, nil
}

func (s *scheduleService) ListCatalog(_ context.Context, query *dto.CatalogQuery) *dto.CatalogResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []dto.CourseRow
	if query == nil || (query.Department == "" && query.Days == "") {
		rows = s.scheduler.CatalogRows()
	} else {
		rows = s.scheduler.CatalogRowsMatching(query.Department, query.Days)
	}
	return &dto.CatalogResponse{Total: len(rows), Courses: rows}
}

// ═══════════════════════════════════════════════════════════
// 课表视图
// ═══════════════════════════════════════════════════════════

func (s *scheduleService) GetSchedule(_ context.Context) *dto.ScheduleResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &dto.ScheduleResponse{
		Title:   s.scheduler.Title(),
		Courses: s.scheduler.ScheduleRows(),
	}
}

func (s *scheduleService) GetFullSchedule(_ context.Context) *dto.FullScheduleResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &dto.FullScheduleResponse{
		Title:   s.scheduler.Title(),
		Courses: s.scheduler.ScheduleFullRows(),
	}
}

func (s *scheduleService) GetCalendar(_ context.Context) *dto.CalendarResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal := s.scheduler.Calendar()
	return &cal
}

func (s *scheduleService) GetConflicts(_ context.Context) []dto.ConflictResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduler.Conflicts()
}

// ═══════════════════════════════════════════════════════════
// 选课 / 退课
// ═══════════════════════════════════════════════════════════

func (s *scheduleService) AddCourse(_ context.Context, req *dto.ScheduleCourseRequest) (*dto.CourseRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.scheduler.AddToSchedule(req.Name, req.Section)
	if err != nil {
		s.logger.Info("选课被拒绝",
			zap.String("name", req.Name),
			zap.String("section", req.Section),
			zap.Error(err),
		)
		return nil, err
	}
	if !added {
		return nil, ErrCourseNotFound
	}

	row := courseRow(s.scheduler.LookupInCatalog(req.Name, req.Section))
	s.logger.Info("选课成功", zap.String("name", req.Name), zap.String("section", req.Section))
	return &row, nil
}

func (s *scheduleService) RemoveCourse(_ context.Context, req *dto.ScheduleCourseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scheduler.RemoveFromSchedule(req.Name, req.Section) {
		return ErrCourseNotEnrolled
	}
	s.logger.Info("退课成功", zap.String("name", req.Name), zap.String("section", req.Section))
	return nil
}

func (s *scheduleService) ResetSchedule(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.ResetSchedule()
	s.logger.Info("课表已清空")
}

// ═══════════════════════════════════════════════════════════
// 标题
// ═══════════════════════════════════════════════════════════

func (s *scheduleService) GetTitle(_ context.Context) *dto.TitleResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &dto.TitleResponse{Title: s.scheduler.Title()}
}

func (s *scheduleService) SetTitle(_ context.Context, req *dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var title *string
	if req != nil {
		title = req.Title
	}
	if err := s.scheduler.SetTitle(title); err != nil {
		return nil, err
	}
	return &dto.TitleResponse{Title: s.scheduler.Title()}, nil
}

// ═══════════════════════════════════════════════════════════
// 快照与导出
// ═══════════════════════════════════════════════════════════

func (s *scheduleService) Snapshot(_ context.Context) (string, []*model.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduler.Title(), s.scheduler.Schedule()
}

func (s *scheduleService) ExportSchedule(ctx context.Context, path string) (int, error) {
	_, courses := s.Snapshot(ctx)

	if err := s.repo.CourseRecord.Save(ctx, path, courses); err != nil {
		s.logger.Error("导出课表失败", zap.String("path", path), zap.Error(err))
		return 0, err
	}

	s.logger.Info("课表已导出", zap.String("path", path), zap.Int("count", len(courses)))
	return len(courses), nil
}
