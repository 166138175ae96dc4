package service

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"wolf-scheduler/backend/internal/dto"
	"wolf-scheduler/backend/internal/model"
	"wolf-scheduler/backend/internal/repository"
	pkgerrors "wolf-scheduler/backend/pkg/errors"
)

// DefaultScheduleTitle 课表默认标题
const DefaultScheduleTitle = "My Schedule"

// weekdays 周视图的列顺序
var weekdays = []struct {
	day     rune
	label   string
	weekday time.Weekday
	byDay   string // RRULE BYDAY 取值
}{
	{'M', "周一", time.Monday, "MO"},
	{'T', "周二", time.Tuesday, "TU"},
	{'W', "周三", time.Wednesday, "WE"},
	{'H', "周四", time.Thursday, "TH"},
	{'F', "周五", time.Friday, "FR"},
}

// ── Scheduler ──────────────────────────────────────────────
//
// 课程目录 + 个人课表 + 课表标题。
//   - 目录加载后只允许整体替换
//   - 课表保存的是目录中课程的指针，不复制课程
//   - 非并发安全：并发访问由 ScheduleService 串行化
// ─────────────────────────────────────────────────────────────

// Scheduler 课表管理器
type Scheduler struct {
	catalog  []*model.Course
	schedule []*model.Course
	title    string
}

// NewScheduler 以给定目录创建空课表，标题为 DefaultScheduleTitle
func NewScheduler(catalog []*model.Course) *Scheduler {
	if catalog == nil {
		catalog = []*model.Course{}
	}
	return &Scheduler{
		catalog:  catalog,
		schedule: []*model.Course{},
		title:    DefaultScheduleTitle,
	}
}

// ReplaceCatalog 整体替换目录；旧课表引用的课程不再属于目录，因此课表一并清空，标题保留
func (s *Scheduler) ReplaceCatalog(catalog []*model.Course) {
	if catalog == nil {
		catalog = []*model.Course{}
	}
	s.catalog = catalog
	s.schedule = s.schedule[:0]
}

// Catalog 目录快照
func (s *Scheduler) Catalog() []*model.Course {
	return slices.Clone(s.catalog)
}

// Schedule 课表快照
func (s *Scheduler) Schedule() []*model.Course {
	return slices.Clone(s.schedule)
}

// LookupInCatalog 按 (name, section) 精确匹配目录中第一条记录，未找到返回 nil
func (s *Scheduler) LookupInCatalog(name, section string) *model.Course {
	for _, c := range s.catalog {
		if c.SameOffering(name, section) {
			return c
		}
	}
	return nil
}

// AddToSchedule 选课
//
// 目录中不存在时返回 false；课表中已有同名课程（不论班级）时返回 ErrDuplicateEnrollment。
func (s *Scheduler) AddToSchedule(name, section string) (bool, error) {
	course := s.LookupInCatalog(name, section)
	if course == nil {
		return false, nil
	}
	for _, c := range s.schedule {
		if c.Name() == name {
			return false, fmt.Errorf("%w: %s", pkgerrors.ErrDuplicateEnrollment, c.Name())
		}
	}
	s.schedule = append(s.schedule, course)
	return true, nil
}

// RemoveFromSchedule 退课
//
// 只按名称判断课程是否在课表中；命中后删除与目录中 (name, section) 记录相等的第一项。
// 名称命中但班级不符时仍返回 true，课表不变。
func (s *Scheduler) RemoveFromSchedule(name, section string) bool {
	for _, c := range s.schedule {
		if c.Name() != name {
			continue
		}
		target := s.LookupInCatalog(name, section)
		if target != nil {
			if i := slices.IndexFunc(s.schedule, target.Equal); i >= 0 {
				s.schedule = slices.Delete(s.schedule, i, i+1)
			}
		}
		return true
	}
	return false
}

// ResetSchedule 清空课表，目录与标题不变
func (s *Scheduler) ResetSchedule() {
	s.schedule = s.schedule[:0]
}

// Title 课表标题
func (s *Scheduler) Title() string {
	return s.title
}

// SetTitle 修改课表标题；nil 返回 ErrInvalidTitle，空字符串允许
func (s *Scheduler) SetTitle(title *string) error {
	if title == nil {
		return pkgerrors.ErrInvalidTitle
	}
	s.title = *title
	return nil
}

// ── 只读视图 ──

// CatalogRows 目录的 (name, section, title) 行
func (s *Scheduler) CatalogRows() []dto.CourseRow {
	return courseRows(s.catalog)
}

// CatalogRowsMatching 按院系字母（不区分大小写）与上课日筛选目录，空参数表示不筛选
func (s *Scheduler) CatalogRowsMatching(department, days string) []dto.CourseRow {
	rows := make([]dto.CourseRow, 0, len(s.catalog))
	for _, c := range s.catalog {
		if department != "" && !strings.EqualFold(c.Department(), department) {
			continue
		}
		if days != "" && c.MeetingDays() != days {
			continue
		}
		rows = append(rows, courseRow(c))
	}
	return rows
}

// ScheduleRows 课表的 (name, section, title) 行
func (s *Scheduler) ScheduleRows() []dto.CourseRow {
	return courseRows(s.schedule)
}

// ScheduleFullRows 课表的完整行：名称、班级、标题、学分、教师、上课时间
func (s *Scheduler) ScheduleFullRows() []dto.FullCourseRow {
	rows := make([]dto.FullCourseRow, 0, len(s.schedule))
	for _, c := range s.schedule {
		rows = append(rows, dto.FullCourseRow{
			Name:         c.Name(),
			Section:      c.Section(),
			Title:        c.Title(),
			Credits:      strconv.Itoa(c.Credits()),
			InstructorID: c.InstructorID(),
			Meeting:      c.MeetingString(),
		})
	}
	return rows
}

// Calendar 课表周视图：每个上课日按开始时间排序
func (s *Scheduler) Calendar() dto.CalendarResponse {
	resp := dto.CalendarResponse{
		Title:    s.title,
		Days:     make([]dto.CalendarDay, 0, len(weekdays)),
		Arranged: []dto.CourseRow{},
	}

	for _, wd := range weekdays {
		var courses []*model.Course
		for _, c := range s.schedule {
			if !c.IsArranged() && strings.ContainsRune(c.MeetingDays(), wd.day) {
				courses = append(courses, c)
			}
		}
		sort.SliceStable(courses, func(i, j int) bool {
			return courses[i].StartTime() < courses[j].StartTime()
		})

		entries := make([]dto.CalendarEntry, 0, len(courses))
		for _, c := range courses {
			entries = append(entries, dto.CalendarEntry{
				Name:      c.Name(),
				Section:   c.Section(),
				Title:     c.Title(),
				StartTime: model.FormatTime(c.StartTime()),
				EndTime:   model.FormatTime(c.EndTime()),
			})
		}
		resp.Days = append(resp.Days, dto.CalendarDay{
			Day:     string(wd.day),
			Label:   wd.label,
			Entries: entries,
		})
	}

	for _, c := range s.schedule {
		if c.IsArranged() {
			resp.Arranged = append(resp.Arranged, courseRow(c))
		}
	}
	return resp
}

// Conflicts 课表中同一上课日且时间区间（闭区间）重叠的课程对
func (s *Scheduler) Conflicts() []dto.ConflictResponse {
	conflicts := []dto.ConflictResponse{}
	for i, a := range s.schedule {
		if a.IsArranged() {
			continue
		}
		for _, b := range s.schedule[i+1:] {
			if b.IsArranged() {
				continue
			}
			days := sharedDays(a.MeetingDays(), b.MeetingDays())
			if days == "" {
				continue
			}
			if a.StartTime() <= b.EndTime() && b.StartTime() <= a.EndTime() {
				conflicts = append(conflicts, dto.ConflictResponse{
					First:  courseRow(a),
					Second: courseRow(b),
					Days:   days,
				})
			}
		}
	}
	return conflicts
}

// ExportSchedule 以课程记录格式写出课表
func (s *Scheduler) ExportSchedule(w io.Writer) error {
	return repository.WriteCourseRecords(w, s.schedule)
}

// ── 辅助函数 ──

func courseRow(c *model.Course) dto.CourseRow {
	return dto.CourseRow{Name: c.Name(), Section: c.Section(), Title: c.Title()}
}

func courseRows(courses []*model.Course) []dto.CourseRow {
	rows := make([]dto.CourseRow, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, courseRow(c))
	}
	return rows
}

// sharedDays 两组上课日的交集，按 MTWHF 顺序
func sharedDays(a, b string) string {
	var sb strings.Builder
	for _, wd := range weekdays {
		if strings.ContainsRune(a, wd.day) && strings.ContainsRune(b, wd.day) {
			sb.WriteRune(wd.day)
		}
	}
	return sb.String()
}
