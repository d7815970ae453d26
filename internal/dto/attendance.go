package dto

// ── 签到模块 DTO ──

// ScanCheckInRequest 摄像头扫码签到；同一 ScanSessionID 只处理一次
type ScanCheckInRequest struct {
	Code          string `json:"code"            binding:"required"`
	ScanSessionID string `json:"scan_session_id" binding:"required,max=64"`
}

// QRCodeCheckInRequest 手动输入二维码标识签到
type QRCodeCheckInRequest struct {
	Code string `json:"code" binding:"required"`
}

// ManualCheckInRequest 从人员列表选择签到
type ManualCheckInRequest struct {
	PersonID string `json:"person_id" binding:"required"`
}

// CheckInResponse 签到成功响应
type CheckInResponse struct {
	RecordID    string `json:"record_id"`
	PersonID    string `json:"person_id"`
	PersonName  string `json:"person_name"`
	Department  string `json:"department"`
	EventID     string `json:"event_id"`
	EventName   string `json:"event_name"`
	Method      string `json:"method"`
	CheckInTime string `json:"check_in_time"`
}
