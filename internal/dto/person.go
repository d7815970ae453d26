package dto

// ── 人员模块 DTO ──

// PersonRequest 新增/编辑人员请求
// 校验由 service 层统一执行（先去除首尾空格），以便返回首个不合法字段
type PersonRequest struct {
	Name       string `json:"name"       validate:"required,min=2,max=100"`
	Email      string `json:"email"      validate:"omitempty,max=255,email"`
	Phone      string `json:"phone"      validate:"omitempty,max=20"`
	Department string `json:"department" validate:"omitempty,max=100"`
	Notes      string `json:"notes"      validate:"omitempty,max=500"`
}

// PersonListRequest 人员列表查询参数
type PersonListRequest struct {
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// PersonResponse 人员信息响应
type PersonResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	Notes      *string `json:"notes"`
	QRCode     string  `json:"qr_code"`
	IsActive   bool    `json:"is_active"`
	PhotoURL   *string `json:"photo_url"`
	CreatedAt  string  `json:"created_at"`
}

// PersonDetailResponse 人员详情：基本信息 + 最近签到
type PersonDetailResponse struct {
	PersonResponse
	RecentAttendance []PersonAttendanceItem `json:"recent_attendance"`
}

// PersonAttendanceItem 人员详情页的签到条目
type PersonAttendanceItem struct {
	RecordID    string `json:"record_id"`
	EventID     string `json:"event_id"`
	EventName   string `json:"event_name"`
	EventDate   string `json:"event_date"`
	Method      string `json:"method"`
	CheckInTime string `json:"check_in_time"`
}

// ImportPeopleResponse 批量导入结果；Success + Failed == Total，len(Errors) == Failed
type ImportPeopleResponse struct {
	Total   int                 `json:"total"`
	Success int                 `json:"success"`
	Failed  int                 `json:"failed"`
	Errors  []ImportPeopleError `json:"errors"`
}

// ImportPeopleError 导入失败行；Row 为文件行号（表头为第 1 行）
type ImportPeopleError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
