package errors

import "errors"

// ── 课程与课表的错误类别 ──
//
// 各层以 fmt.Errorf("...: %w", Err*) 包装下列哨兵错误，调用方统一使用 errors.Is 判断类别。

var (
	// ErrInvalidCourseField 课程字段校验失败（构造被拒绝，不产生任何对象）
	ErrInvalidCourseField = errors.New("课程字段无效")

	// ErrParse 课程记录行无法解析为合法课程
	ErrParse = errors.New("课程记录解析失败")

	// ErrSourceUnavailable 课程目录文件无法打开或读取
	ErrSourceUnavailable = errors.New("课程目录文件不可用")

	// ErrDuplicateEnrollment 课表中已存在同名课程（不论班级）
	ErrDuplicateEnrollment = errors.New("已选修同名课程")

	// ErrInvalidTitle 课表标题缺失
	ErrInvalidTitle = errors.New("课表标题不能为空值")

	// ErrExportFailed 课表导出目标无法写入
	ErrExportFailed = errors.New("课表导出失败")
)
