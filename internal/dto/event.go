package dto

// ── 活动模块 DTO ──

// CreateEventRequest 创建活动请求
type CreateEventRequest struct {
	Name      string `json:"name"`
	EventDate string `json:"event_date"` // "2026-10-15"，缺省为当天
}

// SetEventActiveRequest 开启/结束活动
type SetEventActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// EventResponse 活动信息响应
type EventResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	EventDate string `json:"event_date"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}
