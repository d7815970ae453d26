package dto

// ── 仪表盘模块 DTO ──

// DashboardQuery 仪表盘查询参数；EventID 为空时取进行中活动，否则取最近活动
type DashboardQuery struct {
	EventID string `form:"event_id"`
}

// DashboardStatsResponse 统计数据
type DashboardStatsResponse struct {
	Event         *EventResponse `json:"event"`
	TotalPeople   int64          `json:"total_people"`
	PresentCount  int64          `json:"present_count"`
	AbsentCount   int64          `json:"absent_count"`
	TotalCheckIns int64          `json:"total_check_ins"`
}

// CheckInItem 签到列表条目
type CheckInItem struct {
	RecordID    string `json:"record_id"`
	PersonID    string `json:"person_id"`
	PersonName  string `json:"person_name"`
	Department  string `json:"department"`
	Method      string `json:"method"`
	CheckInTime string `json:"check_in_time"`
}
