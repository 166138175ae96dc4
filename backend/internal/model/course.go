package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	pkgerrors "wolf-scheduler/backend/pkg/errors"
)

// ── 课程字段约束 ──

const (
	// ArrangedMeetingDays 表示无固定上课时间（"Arranged"）
	ArrangedMeetingDays = "A"
	// WeekdayLetters 合法的上课日字母：周一 M、周二 T、周三 W、周四 H、周五 F
	WeekdayLetters = "MTWHF"

	minNameLength  = 5
	maxNameLength  = 8
	minLetterCount = 1
	maxLetterCount = 4
	digitCount     = 3
	sectionLength  = 3
	minCredits     = 1
	maxCredits     = 5
	upperHour      = 23
	upperMinute    = 59
)

// 字段级错误，均包装 ErrInvalidCourseField
var (
	ErrInvalidCourseName   = fmt.Errorf("%w: 课程名称格式错误", pkgerrors.ErrInvalidCourseField)
	ErrInvalidCourseTitle  = fmt.Errorf("%w: 课程标题不能为空", pkgerrors.ErrInvalidCourseField)
	ErrInvalidSection      = fmt.Errorf("%w: 班级编号必须为 3 位数字", pkgerrors.ErrInvalidCourseField)
	ErrInvalidCredits      = fmt.Errorf("%w: 学分必须在 1-5 之间", pkgerrors.ErrInvalidCourseField)
	ErrInvalidInstructorID = fmt.Errorf("%w: 教师 ID 不能为空", pkgerrors.ErrInvalidCourseField)
	ErrInvalidMeeting      = fmt.Errorf("%w: 上课日或上课时间无效", pkgerrors.ErrInvalidCourseField)
)

// Course 课程记录
//
// 构造后不可变：所有字段只能通过 NewCourse / NewArrangedCourse 一次性校验写入。
// 要么是 Arranged（meetingDays="A"，start=end=0），要么是有固定上课日与时间的课程。
type Course struct {
	name         string
	title        string
	section      string
	credits      int
	instructorID string
	meetingDays  string
	startTime    int
	endTime      int
}

// NewCourse 校验全部 8 个字段并构造课程；任一字段非法时返回错误且不产生对象。
func NewCourse(name, title, section string, credits int, instructorID, meetingDays string, startTime, endTime int) (*Course, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, ErrInvalidCourseTitle
	}
	if err := validateSection(section); err != nil {
		return nil, err
	}
	if credits < minCredits || credits > maxCredits {
		return nil, ErrInvalidCredits
	}
	if instructorID == "" {
		return nil, ErrInvalidInstructorID
	}
	if err := validateMeeting(meetingDays, startTime, endTime); err != nil {
		return nil, err
	}

	return &Course{
		name:         name,
		title:        title,
		section:      section,
		credits:      credits,
		instructorID: instructorID,
		meetingDays:  meetingDays,
		startTime:    startTime,
		endTime:      endTime,
	}, nil
}

// NewArrangedCourse 构造无上课时间的课程（start=end=0），meetingDays 仍按完整规则校验。
func NewArrangedCourse(name, title, section string, credits int, instructorID, meetingDays string) (*Course, error) {
	return NewCourse(name, title, section, credits, instructorID, meetingDays, 0, 0)
}

// validateName 校验 "L[LLL] NNN" 形式：空格前只允许字母，恰好一个空格，空格后只允许数字。
func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > maxNameLength {
		return ErrInvalidCourseName
	}

	spaceSeen := false
	letters, digits := 0, 0
	for _, r := range name {
		if !spaceSeen {
			switch {
			case unicode.IsLetter(r):
				letters++
			case r == ' ':
				spaceSeen = true
			default:
				return ErrInvalidCourseName
			}
			continue
		}
		if !unicode.IsDigit(r) {
			return ErrInvalidCourseName
		}
		digits++
	}

	if letters < minLetterCount || letters > maxLetterCount {
		return ErrInvalidCourseName
	}
	if digits != digitCount {
		return ErrInvalidCourseName
	}
	return nil
}

func validateSection(section string) error {
	if utf8.RuneCountInString(section) != sectionLength {
		return ErrInvalidSection
	}
	for _, r := range section {
		if !unicode.IsDigit(r) {
			return ErrInvalidSection
		}
	}
	return nil
}

// validateMeeting 上课日与时间作为一个整体校验
func validateMeeting(meetingDays string, startTime, endTime int) error {
	if meetingDays == "" {
		return ErrInvalidMeeting
	}
	if meetingDays == ArrangedMeetingDays {
		if startTime != 0 || endTime != 0 {
			return ErrInvalidMeeting
		}
		return nil
	}

	seen := make(map[rune]bool, len(WeekdayLetters))
	for _, r := range meetingDays {
		if !strings.ContainsRune(WeekdayLetters, r) || seen[r] {
			return ErrInvalidMeeting
		}
		seen[r] = true
	}

	if startTime > endTime {
		return ErrInvalidMeeting
	}
	if !validEncodedTime(startTime) || !validEncodedTime(endTime) {
		return ErrInvalidMeeting
	}
	return nil
}

func validEncodedTime(t int) bool {
	hour, minute := t/100, t%100
	return hour >= 0 && hour <= upperHour && minute >= 0 && minute <= upperMinute
}

// ── 访问器 ──

// Name 课程名称，如 "CSC 216"
func (c *Course) Name() string { return c.name }

// Title 课程标题
func (c *Course) Title() string { return c.title }

// Section 班级编号，如 "001"
func (c *Course) Section() string { return c.section }

// Credits 学分
func (c *Course) Credits() int { return c.credits }

// InstructorID 教师 ID
func (c *Course) InstructorID() string { return c.instructorID }

// MeetingDays 上课日，"A" 表示 Arranged
func (c *Course) MeetingDays() string { return c.meetingDays }

// StartTime 开始时间（HHMM 编码）
func (c *Course) StartTime() int { return c.startTime }

// EndTime 结束时间（HHMM 编码）
func (c *Course) EndTime() int { return c.endTime }

// IsArranged 是否无固定上课时间
func (c *Course) IsArranged() bool { return c.meetingDays == ArrangedMeetingDays }

// SameOffering 目录/课表中的身份判定：仅比较 name + section
func (c *Course) SameOffering(name, section string) bool {
	return c.name == name && c.section == section
}

// Equal 8 个字段全部相等
func (c *Course) Equal(other *Course) bool {
	if c == nil || other == nil {
		return c == other
	}
	return *c == *other
}

// Department 课程名称中空格之前的字母部分，如 "CSC"
func (c *Course) Department() string {
	dept, _, _ := strings.Cut(c.name, " ")
	return dept
}

// MeetingString 面向展示的上课时间，如 "MW 1:30PM-2:45PM" 或 "Arranged"
func (c *Course) MeetingString() string {
	if c.IsArranged() {
		return "Arranged"
	}
	return c.meetingDays + " " + FormatTime(c.startTime) + "-" + FormatTime(c.endTime)
}

// FormatTime 将 HHMM 编码的 24 小时制时间转为 12 小时制，如 1330 → "1:30PM"
func FormatTime(t int) string {
	hour, minute := t/100, t%100
	suffix := "AM"
	switch {
	case hour > 12:
		hour -= 12
		suffix = "PM"
	case hour == 12:
		suffix = "PM"
	case hour == 0:
		hour = 12
	}
	return fmt.Sprintf("%d:%02d%s", hour, minute, suffix)
}

// String 课程记录的文本序列化（逗号分隔，Arranged 课程不带时间字段）
func (c *Course) String() string {
	fields := []string{
		c.name,
		c.title,
		c.section,
		strconv.Itoa(c.credits),
		c.instructorID,
		c.meetingDays,
	}
	if !c.IsArranged() {
		fields = append(fields, strconv.Itoa(c.startTime), strconv.Itoa(c.endTime))
	}
	return strings.Join(fields, ",")
}
