package dto

// ── 课程行视图 ──

// CourseRow 课程简要信息（名称、班级、标题）
type CourseRow struct {
	Name    string `json:"name"`
	Section string `json:"section"`
	Title   string `json:"title"`
}

// FullCourseRow 课程完整信息，Meeting 为 12 小时制展示串
type FullCourseRow struct {
	Name         string `json:"name"`
	Section      string `json:"section"`
	Title        string `json:"title"`
	Credits      string `json:"credits"`
	InstructorID string `json:"instructor_id"`
	Meeting      string `json:"meeting"`
}

// ── 课程目录 ──

// CatalogQuery 课程目录筛选参数，均为可选
type CatalogQuery struct {
	Department string `form:"department" binding:"omitempty,alpha,max=4"`
	Days       string `form:"days"       binding:"omitempty,max=5"`
}

// CatalogResponse 课程目录响应
type CatalogResponse struct {
	Total   int         `json:"total"`
	Courses []CourseRow `json:"courses"`
}

// CatalogReloadResponse 课程目录重新加载响应
type CatalogReloadResponse struct {
	Count int `json:"count"`
}

// ── 课表 ──

// ScheduleCourseRequest 选课/退课请求
type ScheduleCourseRequest struct {
	Name    string `json:"name"    form:"name"    binding:"required"`
	Section string `json:"section" form:"section" binding:"required"`
}

// ScheduleResponse 课表简要视图
type ScheduleResponse struct {
	Title   string      `json:"title"`
	Courses []CourseRow `json:"courses"`
}

// FullScheduleResponse 课表完整视图
type FullScheduleResponse struct {
	Title   string          `json:"title"`
	Courses []FullCourseRow `json:"courses"`
}

// UpdateTitleRequest 修改课表标题；title 为 null 或缺失时拒绝，空字符串允许
type UpdateTitleRequest struct {
	Title *string `json:"title"`
}

// TitleResponse 课表标题
type TitleResponse struct {
	Title string `json:"title"`
}

// ── 周视图与冲突 ──

// CalendarEntry 周视图中的一节课
type CalendarEntry struct {
	Name      string `json:"name"`
	Section   string `json:"section"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// CalendarDay 周视图中的一天
type CalendarDay struct {
	Day     string          `json:"day"`   // M | T | W | H | F
	Label   string          `json:"label"` // 周一 … 周五
	Entries []CalendarEntry `json:"entries"`
}

// CalendarResponse 课表周视图；Arranged 课程单独列出
type CalendarResponse struct {
	Title    string        `json:"title"`
	Days     []CalendarDay `json:"days"`
	Arranged []CourseRow   `json:"arranged"`
}

// ConflictResponse 时间冲突的一对课程
type ConflictResponse struct {
	First  CourseRow `json:"first"`
	Second CourseRow `json:"second"`
	Days   string    `json:"days"` // 冲突发生的上课日
}

// ── 导出 ──

// ExportScheduleRequest 导出课表到文本文件
type ExportScheduleRequest struct {
	Filename string `json:"filename" binding:"required,max=255"`
}

// ExportScheduleResponse 文本导出结果
type ExportScheduleResponse struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}
