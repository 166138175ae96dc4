package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"wolf-scheduler/backend/internal/dto"
	"wolf-scheduler/backend/internal/service"
	pkgerrors "wolf-scheduler/backend/pkg/errors"
)

// ── 交互式课表终端 ──────────────────────────────────────────
//
// 每行一条命令，课程以 "CSC 216 001" 形式输入：
// 最后一个字段为班级，其余字段以空格拼回课程名称。
// ─────────────────────────────────────────────────────────────

// Shell 交互式命令循环
type Shell struct {
	svc    *service.Service
	out    io.Writer
	logger *zap.Logger

	title   *color.Color
	success *color.Color
	failure *color.Color
}

// NewShell 创建 Shell，所有输出写入 out
func NewShell(svc *service.Service, out io.Writer, logger *zap.Logger) *Shell {
	return &Shell{
		svc:     svc,
		out:     out,
		logger:  logger,
		title:   color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
}

// Run 从 in 逐行读取命令直到 quit 或输入结束
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	s.title.Fprintln(s.out, "=== Wolf Scheduler ===")
	fmt.Fprintln(s.out, "输入 help 查看命令")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if quit := s.Execute(ctx, scanner.Text()); quit {
			s.success.Fprintln(s.out, "再见")
			return nil
		}
	}
	return scanner.Err()
}

// Execute 执行一行命令，返回是否退出
func (s *Shell) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help":
		s.help()
	case "catalog":
		s.printCatalog(ctx, &dto.CatalogQuery{})
	case "list":
		q := &dto.CatalogQuery{}
		if len(args) > 0 {
			q.Department = args[0]
		}
		if len(args) > 1 {
			q.Days = strings.ToUpper(args[1])
		}
		s.printCatalog(ctx, q)
	case "add":
		s.add(ctx, args)
	case "drop":
		s.drop(ctx, args)
	case "schedule":
		s.printSchedule(ctx)
	case "full":
		s.printFullSchedule(ctx)
	case "calendar":
		s.printCalendar(ctx)
	case "conflicts":
		s.printConflicts(ctx)
	case "title":
		s.setTitle(ctx, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0])))
	case "reset":
		s.svc.Schedule.ResetSchedule(ctx)
		s.success.Fprintln(s.out, "课表已清空")
	case "reload":
		resp, err := s.svc.Schedule.ReloadCatalog(ctx)
		if err != nil {
			s.fail(err)
			return false
		}
		s.success.Fprintf(s.out, "已加载 %d 门课程，课表已清空\n", resp.Count)
	case "export":
		s.export(ctx, args)
	case "quit", "exit":
		return true
	default:
		s.failure.Fprintf(s.out, "未知命令 %q，输入 help 查看命令\n", cmd)
	}
	return false
}

func (s *Shell) help() {
	s.title.Fprintln(s.out, "命令")
	table := s.newTable([]string{"命令", "说明"})
	table.AppendBulk([][]string{
		{"catalog", "列出全部课程"},
		{"list DEPT [DAYS]", "按院系（及上课日）筛选课程"},
		{"add NAME SECTION", "选课，如 add CSC 216 001"},
		{"drop NAME SECTION", "退课"},
		{"schedule", "课表"},
		{"full", "课表（含学分、教师、时间）"},
		{"calendar", "周视图"},
		{"conflicts", "时间冲突"},
		{"title [TEXT]", "查看或修改课表标题"},
		{"reset", "清空课表"},
		{"reload", "重新加载课程目录"},
		{"export PATH", "导出课表（.xlsx / .ics / 其他为文本）"},
		{"quit", "退出"},
	})
	table.Render()
}

// ── 查询 ──

func (s *Shell) printCatalog(ctx context.Context, q *dto.CatalogQuery) {
	resp := s.svc.Schedule.ListCatalog(ctx, q)
	s.title.Fprintf(s.out, "课程目录（%d）\n", resp.Total)
	s.renderRows(resp.Courses)
}

func (s *Shell) printSchedule(ctx context.Context) {
	resp := s.svc.Schedule.GetSchedule(ctx)
	s.title.Fprintln(s.out, resp.Title)
	s.renderRows(resp.Courses)
}

func (s *Shell) printFullSchedule(ctx context.Context) {
	resp := s.svc.Schedule.GetFullSchedule(ctx)
	s.title.Fprintln(s.out, resp.Title)

	table := s.newTable([]string{"Name", "Section", "Title", "Credits", "Instructor", "Meeting"})
	for _, c := range resp.Courses {
		table.Append([]string{c.Name, c.Section, c.Title, c.Credits, c.InstructorID, c.Meeting})
	}
	table.Render()
}

func (s *Shell) printCalendar(ctx context.Context) {
	cal := s.svc.Schedule.GetCalendar(ctx)
	s.title.Fprintln(s.out, cal.Title)

	table := s.newTable([]string{"Day", "Time", "Course", "Title"})
	for _, day := range cal.Days {
		for _, e := range day.Entries {
			table.Append([]string{
				day.Label,
				e.StartTime + "-" + e.EndTime,
				e.Name + " " + e.Section,
				e.Title,
			})
		}
	}
	for _, c := range cal.Arranged {
		table.Append([]string{"-", "Arranged", c.Name + " " + c.Section, c.Title})
	}
	table.Render()
}

func (s *Shell) printConflicts(ctx context.Context) {
	conflicts := s.svc.Schedule.GetConflicts(ctx)
	if len(conflicts) == 0 {
		s.success.Fprintln(s.out, "没有时间冲突")
		return
	}

	table := s.newTable([]string{"Course", "Course", "Days"})
	for _, c := range conflicts {
		table.Append([]string{
			c.First.Name + " " + c.First.Section,
			c.Second.Name + " " + c.Second.Section,
			c.Days,
		})
	}
	table.Render()
}

// ── 修改 ──

func (s *Shell) add(ctx context.Context, args []string) {
	req, ok := s.courseArgs(args)
	if !ok {
		return
	}
	row, err := s.svc.Schedule.AddCourse(ctx, req)
	if err != nil {
		s.fail(err)
		return
	}
	s.success.Fprintf(s.out, "已选 %s-%s %s\n", row.Name, row.Section, row.Title)
}

func (s *Shell) drop(ctx context.Context, args []string) {
	req, ok := s.courseArgs(args)
	if !ok {
		return
	}
	if err := s.svc.Schedule.RemoveCourse(ctx, req); err != nil {
		s.fail(err)
		return
	}
	s.success.Fprintf(s.out, "已退 %s\n", req.Name)
}

func (s *Shell) setTitle(ctx context.Context, text string) {
	if text == "" {
		fmt.Fprintln(s.out, s.svc.Schedule.GetTitle(ctx).Title)
		return
	}
	if text == `""` {
		text = ""
	}
	resp, err := s.svc.Schedule.SetTitle(ctx, &dto.UpdateTitleRequest{Title: &text})
	if err != nil {
		s.fail(err)
		return
	}
	s.success.Fprintf(s.out, "标题已修改为 %q\n", resp.Title)
}

func (s *Shell) export(ctx context.Context, args []string) {
	if len(args) != 1 {
		s.failure.Fprintln(s.out, "用法: export PATH")
		return
	}
	path := args[0]

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		err = s.writeDownload(ctx, path, s.svc.Export.ExportExcel)
	case ".ics":
		err = s.writeDownload(ctx, path, s.svc.Export.ExportICS)
	default:
		_, err = s.svc.Schedule.ExportSchedule(ctx, path)
	}
	if err != nil {
		s.fail(err)
		return
	}
	s.success.Fprintf(s.out, "已导出到 %s\n", path)
}

func (s *Shell) writeDownload(ctx context.Context, path string, export func(context.Context) (*bytes.Buffer, string, error)) error {
	buf, _, err := export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrExportFailed, err)
	}
	return nil
}

// ── 辅助函数 ──

// courseArgs 解析 "NAME... SECTION"，名称按原样精确匹配
func (s *Shell) courseArgs(args []string) (*dto.ScheduleCourseRequest, bool) {
	if len(args) < 2 {
		s.failure.Fprintln(s.out, "用法: add|drop NAME SECTION，如 CSC 216 001")
		return nil, false
	}
	return &dto.ScheduleCourseRequest{
		Name:    strings.Join(args[:len(args)-1], " "),
		Section: args[len(args)-1],
	}, true
}

func (s *Shell) fail(err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrCourseNotEnrolled),
		errors.Is(err, pkgerrors.ErrDuplicateEnrollment),
		errors.Is(err, pkgerrors.ErrInvalidTitle):
		s.failure.Fprintln(s.out, err.Error())
	default:
		s.logger.Error("命令执行失败", zap.Error(err))
		s.failure.Fprintf(s.out, "失败: %v\n", err)
	}
}

func (s *Shell) renderRows(rows []dto.CourseRow) {
	table := s.newTable([]string{"Name", "Section", "Title"})
	for _, r := range rows {
		table.Append([]string{r.Name, r.Section, r.Title})
	}
	table.Render()
}

func (s *Shell) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(s.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	return table
}
