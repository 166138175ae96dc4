package repository

import "go.uber.org/zap"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	CourseRecord CourseRecordRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(logger *zap.Logger) *Repository {
	return &Repository{
		CourseRecord: NewCourseRecordRepo(logger),
	}
}
