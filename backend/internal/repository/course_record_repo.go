package repository

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"wolf-scheduler/backend/internal/model"
	pkgerrors "wolf-scheduler/backend/pkg/errors"
)

// CourseRecordRepository 课程记录文件访问接口
type CourseRecordRepository interface {
	// Load 读取课程目录文件；文件无法打开或读取时返回 ErrSourceUnavailable
	Load(ctx context.Context, path string) ([]*model.Course, error)
	// Save 覆盖写入课程记录文件；写入失败时返回 ErrExportFailed
	Save(ctx context.Context, path string, courses []*model.Course) error
}

type courseRecordRepo struct {
	logger *zap.Logger
}

// NewCourseRecordRepo 创建基于文本文件的 CourseRecordRepository
func NewCourseRecordRepo(logger *zap.Logger) CourseRecordRepository {
	return &courseRecordRepo{logger: logger}
}

func (r *courseRecordRepo) Load(ctx context.Context, path string) ([]*model.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrSourceUnavailable, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrSourceUnavailable, err)
	}
	defer f.Close()

	courses, skipped, err := readCourseRecords(f)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		r.logger.Debug("课程目录中存在被跳过的行",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	r.logger.Info("课程目录读取完成",
		zap.String("path", path),
		zap.Int("count", len(courses)),
	)
	return courses, nil
}

func (r *courseRecordRepo) Save(ctx context.Context, path string, courses []*model.Course) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrExportFailed, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrExportFailed, err)
	}
	if err := WriteCourseRecords(f, courses); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrExportFailed, err)
	}
	return nil
}
