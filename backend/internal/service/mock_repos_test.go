package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"wolf-scheduler/backend/internal/model"
	"wolf-scheduler/backend/internal/repository"
	pkgerrors "wolf-scheduler/backend/pkg/errors"
)

// ── Mock CourseRecordRepository ──

type mockCourseRecordRepo struct {
	files   map[string][]*model.Course // path → 目录内容
	saved   map[string][]*model.Course // path → 最近一次写入
	saveErr error
}

func newMockCourseRecordRepo() *mockCourseRecordRepo {
	return &mockCourseRecordRepo{
		files: make(map[string][]*model.Course),
		saved: make(map[string][]*model.Course),
	}
}

func (m *mockCourseRecordRepo) Load(_ context.Context, path string) ([]*model.Course, error) {
	courses, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrSourceUnavailable, path)
	}
	return courses, nil
}

func (m *mockCourseRecordRepo) Save(_ context.Context, path string, courses []*model.Course) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[path] = courses
	return nil
}

// withCatalog 以课程记录文本登记一个目录文件
func (m *mockCourseRecordRepo) withCatalog(t *testing.T, path, records string) *mockCourseRecordRepo {
	t.Helper()
	courses, err := repository.ReadCourseRecords(strings.NewReader(records))
	if err != nil {
		t.Fatalf("读取测试目录失败: %v", err)
	}
	m.files[path] = courses
	return m
}
