package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/repository"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/events"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/qrcode"
)

var errMockStore = errors.New("mock: connection refused")

// ── 测试辅助 ──

type mockRepos struct {
	repo       *repository.Repository
	people     *mockPersonRepo
	events     *mockEventRepo
	attendance *mockAttendanceRepo
	users      *mockUserRepo
}

func newMockRepos() *mockRepos {
	people := newMockPersonRepo()
	evts := newMockEventRepo()
	att := newMockAttendanceRepo(people, evts)
	people.attendance = att
	evts.attendance = att
	users := newMockUserRepo()

	return &mockRepos{
		repo: &repository.Repository{
			Person:     people,
			Event:      evts,
			Attendance: att,
			User:       users,
		},
		people:     people,
		events:     evts,
		attendance: att,
		users:      users,
	}
}

func testLogger() *zap.Logger { return zap.NewNop() }

func strPtr(s string) *string { return &s }

// ── Mock PersonRepository ──

type mockPersonRepo struct {
	mu         sync.RWMutex
	people     map[string]*model.Person
	seq        int
	attendance *mockAttendanceRepo

	createErr error
	batchErr  error
	batchCall int
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{people: make(map[string]*model.Person)}
}

// add 直接写入一条在册人员，返回其 ID
func (m *mockPersonRepo) add(name, code string, dept *string) *model.Person {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p := &model.Person{
		PersonID:   fmt.Sprintf("person-%03d", m.seq),
		Name:       name,
		QRCode:     code,
		Department: dept,
		IsActive:   true,
	}
	m.people[p.PersonID] = p
	return p
}

func (m *mockPersonRepo) insertLocked(p *model.Person) error {
	for _, existing := range m.people {
		if existing.QRCode == p.QRCode {
			return fmt.Errorf("duplicate key value violates unique constraint \"uniq_people_qr_code\"")
		}
	}
	if p.PersonID == "" {
		m.seq++
		p.PersonID = fmt.Sprintf("person-%03d", m.seq)
	}
	p.CreatedAt = time.Now()
	m.people[p.PersonID] = p
	return nil
}

func (m *mockPersonRepo) Create(_ context.Context, person *model.Person) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(person)
}

func (m *mockPersonRepo) BatchCreate(_ context.Context, people []*model.Person) error {
	m.batchCall++
	if m.batchErr != nil {
		return m.batchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range people {
		if err := m.insertLocked(p); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockPersonRepo) GetByID(_ context.Context, id string) (*model.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.people[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) GetActiveByID(_ context.Context, id string) (*model.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.people[id]; ok && p.IsActive {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) GetActiveByQRCode(_ context.Context, code string) (*model.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.people {
		if p.QRCode == code && p.IsActive {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) ListActive(_ context.Context, keyword string) ([]model.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kw := strings.ToLower(strings.TrimSpace(keyword))
	var result []model.Person
	for _, p := range m.people {
		if !p.IsActive {
			continue
		}
		if kw != "" {
			hay := strings.ToLower(p.Name + " " + deref(p.Email) + " " + deref(p.Department))
			if !strings.Contains(hay, kw) {
				continue
			}
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockPersonRepo) ListAbsent(ctx context.Context, eventID string) ([]model.Person, error) {
	active, _ := m.ListActive(ctx, "")
	var result []model.Person
	for _, p := range active {
		if ok, _ := m.attendance.Exists(ctx, p.PersonID, eventID); !ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPersonRepo) CountActive(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, p := range m.people {
		if p.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *mockPersonRepo) Update(_ context.Context, person *model.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people[person.PersonID] = person
	return nil
}

func (m *mockPersonRepo) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.people[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.IsActive = false
	return nil
}

// ── Mock EventRepository ──

type mockEventRepo struct {
	mu         sync.RWMutex
	events     map[string]*model.Event
	seq        int
	attendance *mockAttendanceRepo

	getActiveErr error
	clearErr     error
	setActiveErr error
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event)}
}

func (m *mockEventRepo) add(name string, date time.Time, active bool) *model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e := &model.Event{
		EventID:   fmt.Sprintf("event-%03d", m.seq),
		Name:      name,
		EventDate: date,
		IsActive:  active,
	}
	e.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Second)
	m.events[e.EventID] = e
	return e
}

func (m *mockEventRepo) Create(_ context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if event.EventID == "" {
		event.EventID = fmt.Sprintf("event-%03d", m.seq)
	}
	event.CreatedAt = time.Now()
	m.events[event.EventID] = event
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) GetActive(_ context.Context) (*model.Event, error) {
	if m.getActiveErr != nil {
		return nil, m.getActiveErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.events {
		if e.IsActive {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) GetLatest(ctx context.Context) (*model.Event, error) {
	list, _ := m.List(ctx)
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events[list[0].EventID], nil
}

func (m *mockEventRepo) List(_ context.Context) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]model.Event, 0, len(m.events))
	for _, e := range m.events {
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].EventDate.Equal(result[j].EventDate) {
			return result[i].EventDate.After(result[j].EventDate)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockEventRepo) ClearActive(_ context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		e.IsActive = false
	}
	return nil
}

// SetActive 模拟部分唯一索引：已有其他进行中活动时拒绝
func (m *mockEventRepo) SetActive(_ context.Context, id string, active bool) error {
	if m.setActiveErr != nil {
		return m.setActiveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if active {
		for _, e := range m.events {
			if e.EventID != id && e.IsActive {
				return errors.New("duplicate key value violates unique constraint \"uniq_events_single_active\"")
			}
		}
	}
	target.IsActive = active
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.events[id]; !ok {
		m.mu.Unlock()
		return gorm.ErrRecordNotFound
	}
	delete(m.events, id)
	m.mu.Unlock()
	m.attendance.deleteByEvent(id)
	return nil
}

func (m *mockEventRepo) activeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.events {
		if e.IsActive {
			n++
		}
	}
	return n
}

// ── Mock AttendanceRepository ──

// mockAttendanceRepo 以 (person_id, event_id) 为唯一键，模拟 ON CONFLICT DO NOTHING
type mockAttendanceRepo struct {
	mu      sync.Mutex
	records []*model.AttendanceRecord
	seq     int
	clock   time.Time
	people  *mockPersonRepo
	events  *mockEventRepo

	createErr error
	// skipExists 让 Exists 始终返回 false，用于覆盖并发下预检落空的路径
	skipExists bool
}

func newMockAttendanceRepo(people *mockPersonRepo, evts *mockEventRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{
		people: people,
		events: evts,
		clock:  time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockAttendanceRepo) CreateIfAbsent(_ context.Context, record *model.AttendanceRecord) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.PersonID == record.PersonID && r.EventID == record.EventID {
			return false, nil
		}
	}
	m.seq++
	record.RecordID = fmt.Sprintf("record-%03d", m.seq)
	if record.CheckInTime.IsZero() {
		record.CheckInTime = m.clock.Add(time.Duration(m.seq) * time.Minute)
	}
	m.records = append(m.records, record)
	return true, nil
}

func (m *mockAttendanceRepo) Exists(_ context.Context, personID, eventID string) (bool, error) {
	if m.skipExists {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.PersonID == personID && r.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAttendanceRepo) CountByEvent(_ context.Context, eventID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (m *mockAttendanceRepo) CountPresent(ctx context.Context, eventID string) (int64, error) {
	m.mu.Lock()
	seen := make(map[string]bool)
	for _, r := range m.records {
		if r.EventID == eventID {
			seen[r.PersonID] = true
		}
	}
	m.mu.Unlock()

	var n int64
	for id := range seen {
		if _, err := m.people.GetActiveByID(ctx, id); err == nil {
			n++
		}
	}
	return n, nil
}

func (m *mockAttendanceRepo) ListByEvent(ctx context.Context, eventID string) ([]model.AttendanceRecord, error) {
	m.mu.Lock()
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.EventID == eventID {
			result = append(result, *r)
		}
	}
	m.mu.Unlock()

	for i := range result {
		if p, err := m.people.GetByID(ctx, result[i].PersonID); err == nil {
			result[i].Person = p
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CheckInTime.After(result[j].CheckInTime) })
	return result, nil
}

func (m *mockAttendanceRepo) ListRecentByPerson(ctx context.Context, personID string, limit int) ([]model.AttendanceRecord, error) {
	m.mu.Lock()
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.PersonID == personID {
			result = append(result, *r)
		}
	}
	m.mu.Unlock()

	sort.Slice(result, func(i, j int) bool { return result[i].CheckInTime.After(result[j].CheckInTime) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	for i := range result {
		if e, err := m.events.GetByID(ctx, result[i].EventID); err == nil {
			result[i].Event = e
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) deleteByEvent(eventID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	for _, r := range m.records {
		if r.EventID != eventID {
			kept = append(kept, r)
		}
	}
	m.records = kept
}

func (m *mockAttendanceRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.seq++
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%03d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// ── 其他协作者 ──

// seqCodeGenerator 按顺序生成可预测的标识
type seqCodeGenerator struct {
	mu  sync.Mutex
	n   int
	err error
}

func (g *seqCodeGenerator) Generate(name string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("HG050-%s-%d", strings.ToUpper(name[:min(3, len(name))]), g.n), nil
}

type memoryBlacklist struct {
	mu  sync.Mutex
	ids map[string]time.Duration
	err error
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{ids: make(map[string]time.Duration)}
}

func (b *memoryBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if b.err != nil {
		return b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids[jti] = ttl
	return nil
}

func (b *memoryBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.ids[jti]
	return ok, nil
}

type stubOnceStore struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (s *stubOnceStore) AcquireOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []events.CheckedIn
	err  error
}

func (p *recordingPublisher) PublishCheckedIn(_ context.Context, evt events.CheckedIn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type stubRenderer struct {
	png   []byte
	err   error
	calls int
	last  *qrcode.RenderRequest
}

func (r *stubRenderer) Render(_ context.Context, req *qrcode.RenderRequest) ([]byte, error) {
	r.calls++
	r.last = req
	if r.err != nil {
		return nil, r.err
	}
	return r.png, nil
}
