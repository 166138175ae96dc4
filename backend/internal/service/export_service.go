package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"wolf-scheduler/backend/internal/dto"
	pkgerrors "wolf-scheduler/backend/pkg/errors"
)

// ExportOptions 课表导出参数
type ExportOptions struct {
	Dir       string         // 文本导出目录
	TermStart time.Time      // 学期第一天；零值表示当前周的周一
	Weeks     int            // 学期周数
	Location  *time.Location // 日历时区
}

// ExportService 课表导出业务接口
//
// 设计说明：
//   - 文本导出写入 export.dir，文件名只取 base name
//   - Excel / iCalendar 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入
//   - iCalendar 中 Arranged 课程没有固定时间，不生成事件
type ExportService interface {
	// ExportText 以课程记录格式导出课表到 export.dir/filename
	ExportText(ctx context.Context, filename string) (*dto.ExportScheduleResponse, error)
	// ExportExcel 导出课表为 Excel
	ExportExcel(ctx context.Context) (*bytes.Buffer, string, error)
	// ExportICS 导出课表为 iCalendar，每门课一个按周重复的事件
	ExportICS(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	schedule ScheduleService
	opts     ExportOptions
	now      func() time.Time
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(schedule ScheduleService, opts ExportOptions, logger *zap.Logger) ExportService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Weeks <= 0 {
		opts.Weeks = 16
	}
	return &exportService{
		schedule: schedule,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportText — 课程记录格式文本
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportText(ctx context.Context, filename string) (*dto.ExportScheduleResponse, error) {
	base := filepath.Base(filepath.Clean(filename))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: 无效的文件名 %q", pkgerrors.ErrExportFailed, filename)
	}

	path := filepath.Join(s.opts.Dir, base)
	n, err := s.schedule.ExportSchedule(ctx, path)
	if err != nil {
		return nil, err
	}
	return &dto.ExportScheduleResponse{Path: path, Count: n}, nil
}

// ═══════════════════════════════════════════════════════════
// ExportExcel — 导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "课表"：标题行（合并）+ 表头 + 每门课一行
//   - Sheet "周视图"：列为周一 ~ 周五，单元格为 "课程-班级 时间"
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportExcel(ctx context.Context) (*bytes.Buffer, string, error) {
	// 两个 Sheet 取自同一份快照
	title, courses := s.schedule.Snapshot(ctx)
	view := &Scheduler{schedule: courses, title: title}
	rows := view.ScheduleFullRows()
	cal := view.Calendar()

	f := excelize.NewFile()
	defer f.Close()

	const listSheet = "课表"
	const weekSheet = "周视图"

	idx, err := f.NewSheet(listSheet)
	if err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %w", pkgerrors.ErrExportFailed, err)
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#CC0000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── 课表列表 ──
	headers := []string{"课程", "班级", "名称", "学分", "教师", "上课时间"}
	widths := []float64{10, 8, 40, 6, 12, 22}
	for i, w := range widths {
		col := colName(i + 1)
		_ = f.SetColWidth(listSheet, col, col, w)
	}

	_ = f.SetCellValue(listSheet, "A1", title)
	_ = f.MergeCell(listSheet, "A1", cell(colName(len(headers)), 1))
	_ = f.SetCellStyle(listSheet, "A1", "A1", headerStyle)

	for i, h := range headers {
		_ = f.SetCellValue(listSheet, cell(colName(i+1), 2), h)
	}
	_ = f.SetCellStyle(listSheet, "A2", cell(colName(len(headers)), 2), headerStyle)

	for i, c := range rows {
		row := i + 3
		values := []string{c.Name, c.Section, c.Title, c.Credits, c.InstructorID, c.Meeting}
		for j, v := range values {
			_ = f.SetCellValue(listSheet, cell(colName(j+1), row), v)
		}
	}

	// ── 周视图 ──
	if _, err := f.NewSheet(weekSheet); err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %w", pkgerrors.ErrExportFailed, err)
	}
	for i, day := range cal.Days {
		col := colName(i + 1)
		_ = f.SetColWidth(weekSheet, col, col, 26)
		_ = f.SetCellValue(weekSheet, cell(col, 1), day.Label)
		for j, e := range day.Entries {
			text := fmt.Sprintf("%s-%s %s-%s", e.Name, e.Section, e.StartTime, e.EndTime)
			_ = f.SetCellValue(weekSheet, cell(col, j+2), text)
		}
	}
	_ = f.SetCellStyle(weekSheet, "A1", cell(colName(len(cal.Days)), 1), headerStyle)

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %w", pkgerrors.ErrExportFailed, err)
	}

	return buf, exportFilename(title, "xlsx"), nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS — 导出课表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
//   - 首次上课为学期第一天起第一个匹配的上课日
//   - RRULE: FREQ=WEEKLY;BYDAY=..;COUNT=周数×每周上课天数
//   - UID 由课程名称与班级确定，重复导出时保持稳定

func (s *exportService) ExportICS(ctx context.Context) (*bytes.Buffer, string, error) {
	title, courses := s.schedule.Snapshot(ctx)
	termStart := s.termStart()
	stamp := s.now()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Wolf Scheduler//Course Schedule//EN")
	cal.SetXWRCalName(title)
	cal.SetXWRTimezone(s.opts.Location.String())

	events := 0
	for _, c := range courses {
		if c.IsArranged() {
			continue
		}
		first, ok := firstMeetingDate(termStart, c.MeetingDays())
		if !ok {
			continue
		}

		uid := uuid.NewSHA1(uuid.NameSpaceURL, []byte(c.Name()+"/"+c.Section())).String()
		evt := cal.AddEvent(uid)
		evt.SetDtStampTime(stamp)
		evt.SetSummary(fmt.Sprintf("%s %s", c.Name(), c.Title()))
		evt.SetDescription(fmt.Sprintf("Section %s, %s", c.Section(), c.InstructorID()))
		evt.SetStartAt(atEncodedTime(first, c.StartTime()))
		evt.SetEndAt(atEncodedTime(first, c.EndTime()))
		evt.AddRrule(fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;COUNT=%d",
			rruleByDay(c.MeetingDays()), s.opts.Weeks*len(c.MeetingDays())))
		events++
	}

	s.logger.Info("生成 iCalendar", zap.Int("events", events), zap.Time("term_start", termStart))
	return bytes.NewBufferString(cal.Serialize()), exportFilename(title, "ics"), nil
}

// termStart 学期第一天；未配置时取当前周的周一
func (s *exportService) termStart() time.Time {
	if !s.opts.TermStart.IsZero() {
		t := s.opts.TermStart.In(s.opts.Location)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.opts.Location)
	}
	now := s.now().In(s.opts.Location)
	offset := (int(now.Weekday()) + 6) % 7 // 周一为 0
	monday := now.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, s.opts.Location)
}

// ── 辅助函数 ──

// firstMeetingDate 从 start 起（含）第一个落在 days 中的日期
func firstMeetingDate(start time.Time, days string) (time.Time, bool) {
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		for _, wd := range weekdays {
			if wd.weekday == d.Weekday() && strings.ContainsRune(days, wd.day) {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// atEncodedTime 将 hhmm 编码的时间落到 day 当天
func atEncodedTime(day time.Time, t int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t/100, t%100, 0, 0, day.Location())
}

func rruleByDay(days string) string {
	parts := make([]string, 0, len(days))
	for _, wd := range weekdays {
		if strings.ContainsRune(days, wd.day) {
			parts = append(parts, wd.byDay)
		}
	}
	return strings.Join(parts, ",")
}

// exportFilename 以课表标题生成下载文件名
func exportFilename(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "schedule"
	}
	return name + "." + ext
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
