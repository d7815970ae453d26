package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
	pkgerrors "github.com/mariamwidari-blip/kunyit-attendee/pkg/errors"
)

func setupTestAttendanceService() (AttendanceService, *mockRepos, *recordingPublisher) {
	m := newMockRepos()
	pub := &recordingPublisher{}
	guard := NewScanGuard(nil, time.Minute, testLogger())
	svc := NewAttendanceService(m.repo, guard, pub, testLogger())
	return svc, m, pub
}

// ── 前置条件 ──

func TestAttendanceService_NoActiveEvent(t *testing.T) {
	svc, m, _ := setupTestAttendanceService()
	p := m.people.add("John Doe", "CODE-1", nil)
	m.events.add("Closed", mustDate("2026-10-15"), false)

	_, err := svc.CheckInManual(context.Background(), p.PersonID)
	if !errors.Is(err, ErrNoActiveEvent) {
		t.Errorf("期望 ErrNoActiveEvent，实际: %v", err)
	}
	if m.attendance.count() != 0 {
		t.Error("无进行中活动时不应写入记录")
	}
}

func TestAttendanceService_PersonNotFound(t *testing.T) {
	svc, m, _ := setupTestAttendanceService()
	m.events.add("Rapat", mustDate("2026-10-15"), true)
	inactive := m.people.add("Old Member", "CODE-OLD", nil)
	inactive.IsActive = false

	tests := []struct {
		name string
		call func() error
	}{
		{"未知二维码", func() error { _, err := svc.CheckInByQRCode(context.Background(), "UNKNOWN"); return err }},
		{"空二维码", func() error { _, err := svc.CheckInByQRCode(context.Background(), "   "); return err }},
		{"已停用人员扫码", func() error { _, err := svc.CheckInByQRCode(context.Background(), "CODE-OLD"); return err }},
		{"已停用人员手动", func() error { _, err := svc.CheckInManual(context.Background(), inactive.PersonID); return err }},
		{"未知人员 ID", func() error { _, err := svc.CheckInManual(context.Background(), "missing"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrPersonNotFound) {
				t.Errorf("期望 ErrPersonNotFound，实际: %v", err)
			}
		})
	}
	if m.attendance.count() != 0 {
		t.Error("人员不存在时不应写入记录")
	}
}

// ── 签到方式 ──

func TestAttendanceService_MethodTags(t *testing.T) {
	svc, m, _ := setupTestAttendanceService()
	ctx := context.Background()
	m.events.add("Rapat", mustDate("2026-10-15"), true)
	a := m.people.add("Andi", "CODE-A", strPtr("IT"))
	b := m.people.add("Budi", "CODE-B", nil)
	m.people.add("Citra", "CODE-C", nil)

	manual, err := svc.CheckInManual(ctx, a.PersonID)
	if err != nil {
		t.Fatalf("CheckInManual 应成功: %v", err)
	}
	if manual.Method != model.MethodManual || manual.Department != "IT" {
		t.Errorf("手动签到结果错误: %+v", manual)
	}

	typed, err := svc.CheckInByQRCode(ctx, "  CODE-B \n")
	if err != nil {
		t.Fatalf("CheckInByQRCode 应成功: %v", err)
	}
	if typed.Method != model.MethodQRScan || typed.PersonID != b.PersonID {
		t.Errorf("手输二维码应记为 qr_scan: %+v", typed)
	}

	scanned, err := svc.CheckInByScan(ctx, "session-1", "CODE-C")
	if err != nil {
		t.Fatalf("CheckInByScan 应成功: %v", err)
	}
	if scanned.Method != model.MethodQRScan {
		t.Errorf("扫码应记为 qr_scan，实际=%s", scanned.Method)
	}
}

// ── 去重 ──

func TestAttendanceService_Duplicate(t *testing.T) {
	svc, m, _ := setupTestAttendanceService()
	ctx := context.Background()
	m.events.add("Rapat", mustDate("2026-10-15"), true)
	p := m.people.add("John Doe", "CODE-1", nil)

	if _, err := svc.CheckInByQRCode(ctx, "CODE-1"); err != nil {
		t.Fatalf("首次签到应成功: %v", err)
	}

	_, err := svc.CheckInManual(ctx, p.PersonID)
	if !errors.Is(err, ErrDuplicateAttendance) {
		t.Fatalf("期望 ErrDuplicateAttendance，实际: %v", err)
	}
	if !strings.Contains(err.Error(), "John Doe") {
		t.Errorf("重复提示应包含姓名，实际: %s", err.Error())
	}
	if m.attendance.count() != 1 {
		t.Errorf("重复签到不应新增记录，实际 %d 条", m.attendance.count())
	}
}

func TestAttendanceService_Duplicate_ConflictOnInsert(t *testing.T) {
	svc, m, _ := setupTestAttendanceService()
	ctx := context.Background()
	m.events.add("Rapat", mustDate("2026-10-15"), true)
	p := m.people.add("John Doe", "CODE-1", nil)

	if _, err := svc.CheckInManual(ctx, p.PersonID); err != nil {
		t.Fatalf("首次签到应成功: %v", err)
	}

	// 预检未命中（并发场景），由唯一约束拦截
	m.attendance.skipExists = true
	_, err := svc.CheckInManual(ctx, p.PersonID)
	if !errors.Is(err, ErrDuplicateAttendance) {
		t.Errorf("期望 ErrDuplicateAttendance，实际: %v", err)
	}
}

func TestAttendanceService_ConcurrentCheckIns(t *testing.T) {
	svc, m, _ := setupTestAttendanceService()
	m.events.add("Rapat", mustDate("2026-10-15"), true)
	p := m.people.add("John Doe", "CODE-1", nil)
	m.attendance.skipExists = true

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		dups    int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckInManual(context.Background(), p.PersonID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrDuplicateAttendance):
				dups++
			default:
				t.Errorf("意外错误: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 1 || dups != workers-1 {
		t.Errorf("期望 1 次成功 %d 次重复，实际成功 %d 重复 %d", workers-1, success, dups)
	}
	if m.attendance.count() != 1 {
		t.Errorf("并发签到只应保存 1 条记录，实际 %d 条", m.attendance.count())
	}
}

// ── 扫码会话 ──

func TestAttendanceService_ScanSessionHandledOnce(t *testing.T) {
	svc, m, _ := setupTestAttendanceService()
	ctx := context.Background()
	m.events.add("Rapat", mustDate("2026-10-15"), true)
	m.people.add("Andi", "CODE-A", nil)
	m.people.add("Budi", "CODE-B", nil)

	if _, err := svc.CheckInByScan(ctx, "session-1", "CODE-A"); err != nil {
		t.Fatalf("首次解码应成功: %v", err)
	}

	_, err := svc.CheckInByScan(ctx, "session-1", "CODE-B")
	if !errors.Is(err, ErrScanAlreadyHandled) {
		t.Errorf("期望 ErrScanAlreadyHandled，实际: %v", err)
	}
	if m.attendance.count() != 1 {
		t.Error("同一会话的第二次解码不应进入签到流程")
	}

	if _, err := svc.CheckInByScan(ctx, "session-2", "CODE-B"); err != nil {
		t.Errorf("新会话应可签到: %v", err)
	}
}

// ── 事件发布与存储错误 ──

func TestAttendanceService_PublishesCheckedIn(t *testing.T) {
	svc, m, pub := setupTestAttendanceService()
	e := m.events.add("Rapat", mustDate("2026-10-15"), true)
	p := m.people.add("John Doe", "CODE-1", nil)

	resp, err := svc.CheckInManual(context.Background(), p.PersonID)
	if err != nil {
		t.Fatalf("签到应成功: %v", err)
	}
	if len(pub.sent) != 1 {
		t.Fatalf("期望发布 1 条事件，实际 %d 条", len(pub.sent))
	}
	evt := pub.sent[0]
	if evt.RecordID != resp.RecordID || evt.EventID != e.EventID || evt.PersonName != "John Doe" {
		t.Errorf("事件内容错误: %+v", evt)
	}
}

func TestAttendanceService_PublishFailureIgnored(t *testing.T) {
	svc, m, pub := setupTestAttendanceService()
	pub.err = errors.New("broker down")
	m.events.add("Rapat", mustDate("2026-10-15"), true)
	p := m.people.add("John Doe", "CODE-1", nil)

	if _, err := svc.CheckInManual(context.Background(), p.PersonID); err != nil {
		t.Errorf("事件发布失败不应影响签到: %v", err)
	}
	if m.attendance.count() != 1 {
		t.Error("签到记录应已写入")
	}
}

func TestAttendanceService_StoreError(t *testing.T) {
	svc, m, _ := setupTestAttendanceService()
	m.events.add("Rapat", mustDate("2026-10-15"), true)
	p := m.people.add("John Doe", "CODE-1", nil)
	m.attendance.createErr = errMockStore

	_, err := svc.CheckInManual(context.Background(), p.PersonID)
	if !pkgerrors.IsStore(err) {
		t.Errorf("期望 StoreError，实际: %v", err)
	}

	m.events.getActiveErr = errMockStore
	_, err = svc.CheckInManual(context.Background(), p.PersonID)
	if !pkgerrors.IsStore(err) {
		t.Errorf("查询活动失败应返回 StoreError，实际: %v", err)
	}
}

// ── 端到端流程 ──

func TestAttendanceFlow_EndToEnd(t *testing.T) {
	m := newMockRepos()
	ctx := context.Background()
	logger := testLogger()

	people := NewPersonService(m.repo, &seqCodeGenerator{}, 1000, logger)
	eventsSvc := NewEventService(m.repo, time.UTC, logger)
	attendance := NewAttendanceService(m.repo, NewScanGuard(nil, time.Minute, logger), nil, logger)
	dashboard := NewDashboardService(m.repo, logger)

	event, err := eventsSvc.Create(ctx, &dto.CreateEventRequest{Name: "Rapat Bulanan", EventDate: "2026-10-15"})
	if err != nil {
		t.Fatalf("创建活动失败: %v", err)
	}
	if _, err := eventsSvc.SetActive(ctx, event.ID, true); err != nil {
		t.Fatalf("开启活动失败: %v", err)
	}

	john, err := people.Add(ctx, &dto.PersonRequest{Name: "John Doe"})
	if err != nil {
		t.Fatalf("新增人员失败: %v", err)
	}
	if _, err := people.Add(ctx, &dto.PersonRequest{Name: "Siti Aminah"}); err != nil {
		t.Fatalf("新增人员失败: %v", err)
	}

	resp, err := attendance.CheckInByScan(ctx, "cam-1", john.QRCode)
	if err != nil {
		t.Fatalf("扫码签到失败: %v", err)
	}
	if resp.EventName != "Rapat Bulanan" || resp.PersonName != "John Doe" {
		t.Errorf("签到结果错误: %+v", resp)
	}

	stats, err := dashboard.Stats(ctx, "")
	if err != nil {
		t.Fatalf("查询统计失败: %v", err)
	}
	if stats.TotalPeople != 2 || stats.PresentCount != 1 || stats.AbsentCount != 1 || stats.TotalCheckIns != 1 {
		t.Errorf("统计错误: %+v", stats)
	}

	_, err = attendance.CheckInByQRCode(ctx, john.QRCode)
	if !errors.Is(err, ErrDuplicateAttendance) || err.Error() != "John Doe 已签到" {
		t.Errorf("重复签到应提示 \"John Doe 已签到\"，实际: %v", err)
	}
}
