package service

import (
	"time"

	"go.uber.org/zap"

	"wolf-scheduler/backend/config"
	"wolf-scheduler/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Schedule ScheduleService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) *Service {
	schedule := NewScheduleService(cfg.Catalog.Path, cfg.Schedule.DefaultTitle, repo, logger)
	return &Service{
		Schedule: schedule,
		Export:   NewExportService(schedule, exportOptions(&cfg.Export, logger), logger),
	}
}

// exportOptions 由导出配置生成 ExportOptions；配置已在 Load 时校验，这里的错误只记录日志
func exportOptions(cfg *config.ExportConfig, logger *zap.Logger) ExportOptions {
	opts := ExportOptions{Dir: cfg.Dir, Weeks: cfg.Weeks}

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("无效的导出时区，使用本地时区", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.Local
	}
	opts.Location = loc

	start, err := cfg.TermStartDate()
	if err != nil {
		logger.Warn("无效的学期开始日期，使用当前周", zap.String("term_start", cfg.TermStart), zap.Error(err))
	} else {
		opts.TermStart = start
	}
	return opts
}
