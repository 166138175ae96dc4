package repository

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"wolf-scheduler/backend/internal/model"
	pkgerrors "wolf-scheduler/backend/pkg/errors"
)

// ── 课程记录编解码 ──────────────────────────────────────────
//
// 行格式：Name,Title,Section,Credits,InstructorId,MeetingDays[,StartTime,EndTime]
//   - 逗号分隔，不支持转义与引号
//   - MeetingDays="A" 时恰好 6 个字段
//   - 其他情况恰好 8 个字段，时间为 HHMM 整数
//
// 任何解析失败（字段数、非整数、课程字段校验）统一报告为 ErrParse。
// ─────────────────────────────────────────────────────────────

const (
	recordDelimiter     = ","
	arrangedFieldCount  = 6
	scheduledFieldCount = 8
	maxRecordLineBytes  = 1024 * 1024
)

// ParseCourseRecord 将一行文本解析为合法课程
func ParseCourseRecord(line string) (*model.Course, error) {
	tokens := strings.Split(line, recordDelimiter)
	if len(tokens) < arrangedFieldCount {
		return nil, fmt.Errorf("%w: 字段数不足 (%d)", pkgerrors.ErrParse, len(tokens))
	}

	name, title, section := tokens[0], tokens[1], tokens[2]
	credits, err := strconv.Atoi(tokens[3])
	if err != nil {
		return nil, fmt.Errorf("%w: 学分不是整数 %q", pkgerrors.ErrParse, tokens[3])
	}
	instructorID, meetingDays := tokens[4], tokens[5]

	if meetingDays == model.ArrangedMeetingDays {
		if len(tokens) != arrangedFieldCount {
			return nil, fmt.Errorf("%w: Arranged 课程不应包含时间字段", pkgerrors.ErrParse)
		}
		course, err := model.NewArrangedCourse(name, title, section, credits, instructorID, meetingDays)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pkgerrors.ErrParse, err)
		}
		return course, nil
	}

	if len(tokens) != scheduledFieldCount {
		return nil, fmt.Errorf("%w: 字段数应为 %d，实际 %d", pkgerrors.ErrParse, scheduledFieldCount, len(tokens))
	}
	startTime, err := strconv.Atoi(tokens[6])
	if err != nil {
		return nil, fmt.Errorf("%w: 开始时间不是整数 %q", pkgerrors.ErrParse, tokens[6])
	}
	endTime, err := strconv.Atoi(tokens[7])
	if err != nil {
		return nil, fmt.Errorf("%w: 结束时间不是整数 %q", pkgerrors.ErrParse, tokens[7])
	}

	course, err := model.NewCourse(name, title, section, credits, instructorID, meetingDays, startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrParse, err)
	}
	return course, nil
}

// ReadCourseRecords 逐行读取课程记录
//
// 非法行被静默跳过；(name, section) 重复的课程只保留首次出现的记录。
// 仅当数据源本身读取失败时返回 ErrSourceUnavailable。
func ReadCourseRecords(r io.Reader) ([]*model.Course, error) {
	courses, _, err := readCourseRecords(r)
	return courses, err
}

// readCourseRecords 额外返回被跳过的行数（非法行 + 重复行 + 超长行），供日志使用
func readCourseRecords(r io.Reader) ([]*model.Course, int, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	courses := make([]*model.Course, 0)
	skipped := 0
	for {
		line, tooLong, err := readRecordLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("%w: %w", pkgerrors.ErrSourceUnavailable, err)
		}
		if tooLong {
			skipped++
			continue
		}

		course, err := ParseCourseRecord(strings.TrimSuffix(line, "\r"))
		if err != nil {
			skipped++
			continue
		}
		if containsOffering(courses, course.Name(), course.Section()) {
			skipped++
			continue
		}
		courses = append(courses, course)
	}
	return courses, skipped, nil
}

// readRecordLine 读取一整行（不含换行符）。
// 超过 maxRecordLineBytes 的行被读完并丢弃，tooLong 为 true。
// 仅在没有读到任何数据时返回 error，io.EOF 表示输入结束。
func readRecordLine(br *bufio.Reader) (string, bool, error) {
	var tooLong bool
	var buf []byte
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(frag) > maxRecordLineBytes {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

func containsOffering(courses []*model.Course, name, section string) bool {
	for _, c := range courses {
		if c.SameOffering(name, section) {
			return true
		}
	}
	return false
}

// WriteCourseRecords 每行写入一条课程记录，顺序与输入一致
func WriteCourseRecords(w io.Writer, courses []*model.Course) error {
	bw := bufio.NewWriter(w)
	for _, c := range courses {
		if _, err := bw.WriteString(c.String() + "\n"); err != nil {
			return fmt.Errorf("%w: %w", pkgerrors.ErrExportFailed, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrExportFailed, err)
	}
	return nil
}
