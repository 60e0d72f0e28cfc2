package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
)

// memStore 测试用内存存储，各 mock repo 共享，便于验证级联删除
type memStore struct {
	seq         int
	users       map[string]*model.User
	members     map[string]*model.Member
	dues        map[string]*model.Dues
	attendance  map[string]*model.Attendance
	events      map[string]*model.Event
	eventLinks  map[string][]model.EventMember // event_id → 成员
	notes       map[string]*model.Note
	failCreates map[string]bool // 会费创建时强制失败的 member_id
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*model.User),
		members:     make(map[string]*model.Member),
		dues:        make(map[string]*model.Dues),
		attendance:  make(map[string]*model.Attendance),
		events:      make(map[string]*model.Event),
		eventLinks:  make(map[string][]model.EventMember),
		notes:       make(map[string]*model.Note),
		failCreates: make(map[string]bool),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

func (s *memStore) memberCopy(id string) *model.Member {
	if m, ok := s.members[id]; ok {
		c := *m
		return &c
	}
	return nil
}

// newMockRepository 组装全部 mock repo
func newMockRepository() (*repository.Repository, *memStore) {
	st := newMemStore()
	return &repository.Repository{
		User:       &mockUserRepo{st: st},
		Member:     &mockMemberRepo{st: st},
		Dues:       &mockDuesRepo{st: st},
		Attendance: &mockAttendanceRepo{st: st},
		Event:      &mockEventRepo{st: st},
		Note:       &mockNoteRepo{st: st},
		Cascade:    &mockCascade{st: st},
	}, st
}

// ── Mock UserRepository ──

type mockUserRepo struct{ st *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.st.users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = m.st.nextID("user")
	}
	c := *user
	m.st.users[user.UserID] = &c
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.st.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.st.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.st.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *user
	m.st.users[user.UserID] = &c
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.st.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.st.users, id)
	return nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.st.users)), nil
}

func (m *mockUserRepo) List(_ context.Context, role, keyword string, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.st.users {
		if role != "" && u.Role != role {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(u.Name+" "+u.Email), strings.ToLower(keyword)) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListByRoles(_ context.Context, roles ...string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.st.users {
		for _, r := range roles {
			if u.Role == r {
				result = append(result, *u)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// ── Mock MemberRepository ──

type mockMemberRepo struct{ st *memStore }

func (m *mockMemberRepo) Create(_ context.Context, member *model.Member) error {
	if member.MemberID == "" {
		member.MemberID = m.st.nextID("member")
	}
	c := *member
	m.st.members[member.MemberID] = &c
	return nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, ownerID, id string) (*model.Member, error) {
	if mem, ok := m.st.members[id]; ok && mem.OwnerID == ownerID {
		c := *mem
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMemberRepo) Update(_ context.Context, member *model.Member) error {
	if _, ok := m.st.members[member.MemberID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *member
	m.st.members[member.MemberID] = &c
	return nil
}

func (m *mockMemberRepo) List(_ context.Context, ownerID string, f repository.MemberFilter) ([]model.Member, error) {
	return m.filter(ownerID, f), nil
}

func (m *mockMemberRepo) Search(_ context.Context, ownerID string, f repository.MemberFilter, offset, limit int) ([]model.Member, int64, error) {
	all := m.filter(ownerID, f)
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Member{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockMemberRepo) filter(ownerID string, f repository.MemberFilter) []model.Member {
	result := []model.Member{}
	for _, mem := range m.st.members {
		if mem.OwnerID != ownerID {
			continue
		}
		if f.Status != "" && mem.Status != f.Status {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, mem.Status) {
			continue
		}
		if f.Role != "" && mem.Role != f.Role {
			continue
		}
		if f.Gender != "" && mem.Gender != f.Gender {
			continue
		}
		if f.Instrument != "" && !strings.EqualFold(mem.Instrument, f.Instrument) {
			continue
		}
		if f.Keyword != "" && !strings.Contains(strings.ToLower(mem.FirstName+" "+mem.LastName+" "+mem.Pseudo), strings.ToLower(f.Keyword)) {
			continue
		}
		if f.BornOnOrBefore != nil && (mem.DateOfBirth == nil || mem.DateOfBirth.After(*f.BornOnOrBefore)) {
			continue
		}
		if f.BornAfter != nil && (mem.DateOfBirth == nil || !mem.DateOfBirth.After(*f.BornAfter)) {
			continue
		}
		result = append(result, *mem)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MemberID < result[j].MemberID })
	return result
}

func (m *mockMemberRepo) ListByIDs(_ context.Context, ownerID string, ids []string) ([]model.Member, error) {
	var result []model.Member
	for _, id := range ids {
		if mem, ok := m.st.members[id]; ok && mem.OwnerID == ownerID {
			result = append(result, *mem)
		}
	}
	return result, nil
}

func (m *mockMemberRepo) EmailTaken(_ context.Context, ownerID, email, excludeID string) (bool, error) {
	for _, mem := range m.st.members {
		if mem.OwnerID == ownerID && mem.MemberID != excludeID && mem.Email != nil && strings.EqualFold(*mem.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMemberRepo) CountByStatus(_ context.Context, ownerID string) ([]repository.StatusCount, error) {
	counts := map[string]int64{}
	for _, mem := range m.st.members {
		if mem.OwnerID == ownerID {
			counts[mem.Status]++
		}
	}
	var rows []repository.StatusCount
	for s, c := range counts {
		rows = append(rows, repository.StatusCount{Status: s, Count: c})
	}
	return rows, nil
}

// ── Mock DuesRepository ──

type mockDuesRepo struct{ st *memStore }

func (m *mockDuesRepo) Create(_ context.Context, dues *model.Dues) error {
	if m.st.failCreates[dues.MemberID] {
		return fmt.Errorf("connection reset")
	}
	for _, d := range m.st.dues {
		if d.MemberID == dues.MemberID && d.Month == dues.Month {
			return gorm.ErrDuplicatedKey
		}
	}
	if dues.DuesID == "" {
		dues.DuesID = m.st.nextID("dues")
	}
	if dues.Version == 0 {
		dues.Version = 1
	}
	c := *dues
	c.Member = nil
	m.st.dues[dues.DuesID] = &c
	return nil
}

func (m *mockDuesRepo) withMember(d *model.Dues) model.Dues {
	c := *d
	c.Member = m.st.memberCopy(d.MemberID)
	return c
}

func (m *mockDuesRepo) GetByID(_ context.Context, ownerID, id string) (*model.Dues, error) {
	if d, ok := m.st.dues[id]; ok && d.OwnerID == ownerID {
		c := m.withMember(d)
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDuesRepo) GetByMemberMonth(_ context.Context, memberID, month string) (*model.Dues, error) {
	for _, d := range m.st.dues {
		if d.MemberID == memberID && d.Month == month {
			c := *d
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDuesRepo) Update(_ context.Context, dues *model.Dues) error {
	stored, ok := m.st.dues[dues.DuesID]
	if !ok || stored.Version != dues.Version {
		return pkgerrors.ErrOptimisticLock
	}
	dues.Version++
	c := *dues
	c.Member = nil
	m.st.dues[dues.DuesID] = &c
	return nil
}

func (m *mockDuesRepo) Delete(_ context.Context, ownerID, id string) error {
	if d, ok := m.st.dues[id]; ok && d.OwnerID == ownerID {
		delete(m.st.dues, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockDuesRepo) match(ownerID string, f repository.DuesFilter) []model.Dues {
	result := []model.Dues{}
	for _, d := range m.st.dues {
		if d.OwnerID != ownerID {
			continue
		}
		if f.Month != "" && d.Month != f.Month {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.MemberID != "" && d.MemberID != f.MemberID {
			continue
		}
		result = append(result, m.withMember(d))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Month != result[j].Month {
			return result[i].Month > result[j].Month
		}
		return result[i].DuesID < result[j].DuesID
	})
	return result
}

func (m *mockDuesRepo) List(_ context.Context, ownerID string, f repository.DuesFilter) ([]model.Dues, error) {
	return m.match(ownerID, f), nil
}

func (m *mockDuesRepo) RecentPaid(_ context.Context, ownerID string, limit int) ([]model.Dues, error) {
	paid := m.match(ownerID, repository.DuesFilter{Status: model.DuesStatusPaid})
	sort.Slice(paid, func(i, j int) bool { return paid[i].PaidAt.After(*paid[j].PaidAt) })
	if len(paid) > limit {
		paid = paid[:limit]
	}
	return paid, nil
}

func (m *mockDuesRepo) MemberIDsWithMonth(_ context.Context, ownerID, month string) ([]string, error) {
	var ids []string
	for _, d := range m.match(ownerID, repository.DuesFilter{Month: month}) {
		ids = append(ids, d.MemberID)
	}
	return ids, nil
}

func (m *mockDuesRepo) SummarizeByStatus(_ context.Context, ownerID string, f repository.DuesFilter) ([]repository.StatusCount, error) {
	agg := map[string]*repository.StatusCount{}
	for _, d := range m.match(ownerID, f) {
		row, ok := agg[d.Status]
		if !ok {
			row = &repository.StatusCount{Status: d.Status}
			agg[d.Status] = row
		}
		row.Count++
		row.Amount += d.Amount
	}
	var rows []repository.StatusCount
	for _, r := range agg {
		rows = append(rows, *r)
	}
	return rows, nil
}

func (m *mockDuesRepo) SummarizeByMonth(_ context.Context, ownerID, fromMonth, toMonth string) ([]repository.MonthStatusCount, error) {
	agg := map[string]*repository.MonthStatusCount{}
	for _, d := range m.match(ownerID, repository.DuesFilter{}) {
		if d.Month < fromMonth || d.Month > toMonth {
			continue
		}
		key := d.Month + "|" + d.Status
		row, ok := agg[key]
		if !ok {
			row = &repository.MonthStatusCount{Month: d.Month, Status: d.Status}
			agg[key] = row
		}
		row.Count++
		row.Amount += d.Amount
	}
	var rows []repository.MonthStatusCount
	for _, r := range agg {
		rows = append(rows, *r)
	}
	return rows, nil
}

func (m *mockDuesRepo) TopPayers(_ context.Context, ownerID, fromMonth, toMonth string, limit int) ([]repository.PayerTotal, error) {
	agg := map[string]*repository.PayerTotal{}
	for _, d := range m.match(ownerID, repository.DuesFilter{Status: model.DuesStatusPaid}) {
		if d.Month < fromMonth || d.Month > toMonth {
			continue
		}
		row, ok := agg[d.MemberID]
		if !ok {
			row = &repository.PayerTotal{MemberID: d.MemberID}
			agg[d.MemberID] = row
		}
		row.PaidMonths++
		row.TotalPaid += d.Amount
	}
	var rows []repository.PayerTotal
	for _, r := range agg {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PaidMonths != rows[j].PaidMonths {
			return rows[i].PaidMonths > rows[j].PaidMonths
		}
		if rows[i].TotalPaid != rows[j].TotalPaid {
			return rows[i].TotalPaid > rows[j].TotalPaid
		}
		return rows[i].MemberID < rows[j].MemberID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *mockDuesRepo) CountOverdue(_ context.Context, ownerID, beforeMonth string) (int64, error) {
	var n int64
	for _, d := range m.match(ownerID, repository.DuesFilter{Status: model.DuesStatusUnpaid}) {
		if d.Month < beforeMonth {
			n++
		}
	}
	return n, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct{ st *memStore }

func (m *mockAttendanceRepo) Upsert(_ context.Context, a *model.Attendance) error {
	for _, existing := range m.st.attendance {
		if existing.MemberID == a.MemberID && existing.Date.Equal(a.Date) {
			a.AttendanceID = existing.AttendanceID
			a.CreatedAt = existing.CreatedAt
			c := *a
			c.Member = nil
			m.st.attendance[a.AttendanceID] = &c
			return nil
		}
	}
	a.AttendanceID = m.st.nextID("att")
	c := *a
	c.Member = nil
	m.st.attendance[a.AttendanceID] = &c
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, ownerID, id string) (*model.Attendance, error) {
	if a, ok := m.st.attendance[id]; ok && a.OwnerID == ownerID {
		c := *a
		c.Member = m.st.memberCopy(a.MemberID)
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) GetByMemberDate(_ context.Context, memberID string, date time.Time) (*model.Attendance, error) {
	for _, a := range m.st.attendance {
		if a.MemberID == memberID && a.Date.Equal(date) {
			c := *a
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) Update(_ context.Context, a *model.Attendance) error {
	if _, ok := m.st.attendance[a.AttendanceID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *a
	c.Member = nil
	m.st.attendance[a.AttendanceID] = &c
	return nil
}

func (m *mockAttendanceRepo) Delete(_ context.Context, ownerID, id string) error {
	if a, ok := m.st.attendance[id]; ok && a.OwnerID == ownerID {
		delete(m.st.attendance, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

// owned 操作者的考勤，日期降序
func (m *mockAttendanceRepo) owned(ownerID string, keep func(a *model.Attendance) bool) []model.Attendance {
	result := []model.Attendance{}
	for _, a := range m.st.attendance {
		if a.OwnerID != ownerID || !keep(a) {
			continue
		}
		c := *a
		c.Member = m.st.memberCopy(a.MemberID)
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].MemberID < result[j].MemberID
	})
	return result
}

func (m *mockAttendanceRepo) ListByRange(_ context.Context, ownerID string, start, end time.Time) ([]model.Attendance, error) {
	return m.owned(ownerID, func(a *model.Attendance) bool {
		return !a.Date.Before(start) && a.Date.Before(end)
	}), nil
}

func (m *mockAttendanceRepo) ListByMember(_ context.Context, ownerID, memberID string, start, end *time.Time, limit int) ([]model.Attendance, error) {
	list := m.owned(ownerID, func(a *model.Attendance) bool {
		if a.MemberID != memberID {
			return false
		}
		if start != nil && a.Date.Before(*start) {
			return false
		}
		if end != nil && !a.Date.Before(*end) {
			return false
		}
		return true
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *mockAttendanceRepo) List(_ context.Context, ownerID string, limit int) ([]model.Attendance, error) {
	list := m.owned(ownerID, func(*model.Attendance) bool { return true })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *mockAttendanceRepo) AggregateByMember(_ context.Context, ownerID, memberID string, since time.Time) ([]repository.MemberAttendanceCount, error) {
	agg := map[string]*repository.MemberAttendanceCount{}
	for _, a := range m.owned(ownerID, func(a *model.Attendance) bool {
		return !a.Date.Before(since) && (memberID == "" || a.MemberID == memberID)
	}) {
		row, ok := agg[a.MemberID]
		if !ok {
			row = &repository.MemberAttendanceCount{MemberID: a.MemberID}
			agg[a.MemberID] = row
		}
		row.Total++
		switch a.Status {
		case model.AttendancePresent:
			row.Present++
		case model.AttendanceLate:
			row.Late++
		case model.AttendanceAbsent:
			row.Absent++
		case model.AttendanceExcused:
			row.Excused++
		}
	}
	var rows []repository.MemberAttendanceCount
	for _, r := range agg {
		rows = append(rows, *r)
	}
	// 聚合结果不保证顺序
	sort.Slice(rows, func(i, j int) bool { return rows[i].MemberID > rows[j].MemberID })
	return rows, nil
}

func (m *mockAttendanceRepo) AggregateByDay(_ context.Context, ownerID string, since time.Time, tz string) ([]repository.DayStatusCount, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	agg := map[string]*repository.DayStatusCount{}
	for _, a := range m.owned(ownerID, func(a *model.Attendance) bool { return !a.Date.Before(since) }) {
		day := a.Date.In(loc).Format("2006-01-02")
		key := day + "|" + a.Status
		row, ok := agg[key]
		if !ok {
			row = &repository.DayStatusCount{Day: day, Status: a.Status}
			agg[key] = row
		}
		row.Count++
	}
	var rows []repository.DayStatusCount
	for _, r := range agg {
		rows = append(rows, *r)
	}
	return rows, nil
}

func (m *mockAttendanceRepo) CountByStatus(_ context.Context, ownerID string, start, end time.Time) ([]repository.StatusCount, error) {
	agg := map[string]int64{}
	for _, a := range m.owned(ownerID, func(a *model.Attendance) bool {
		return !a.Date.Before(start) && a.Date.Before(end)
	}) {
		agg[a.Status]++
	}
	var rows []repository.StatusCount
	for s, c := range agg {
		rows = append(rows, repository.StatusCount{Status: s, Count: c})
	}
	return rows, nil
}

func (m *mockAttendanceRepo) LastDate(_ context.Context, ownerID, memberID string) (*time.Time, error) {
	list := m.owned(ownerID, func(a *model.Attendance) bool { return a.MemberID == memberID })
	if len(list) == 0 {
		return nil, nil
	}
	d := list[0].Date
	return &d, nil
}

// ── Mock EventRepository ──

type mockEventRepo struct{ st *memStore }

func (m *mockEventRepo) Create(_ context.Context, event *model.Event, memberIDs []string) error {
	event.EventID = m.st.nextID("event")
	c := *event
	c.Members = nil
	m.st.events[event.EventID] = &c
	for _, id := range memberIDs {
		m.st.eventLinks[event.EventID] = append(m.st.eventLinks[event.EventID], model.EventMember{EventID: event.EventID, MemberID: id})
	}
	return nil
}

func (m *mockEventRepo) load(e *model.Event) model.Event {
	c := *e
	c.Members = nil
	for _, link := range m.st.eventLinks[e.EventID] {
		link.Member = m.st.memberCopy(link.MemberID)
		c.Members = append(c.Members, link)
	}
	return c
}

func (m *mockEventRepo) GetByID(_ context.Context, ownerID, id string) (*model.Event, error) {
	if e, ok := m.st.events[id]; ok && e.OwnerID == ownerID {
		c := m.load(e)
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) List(_ context.Context, ownerID string, from, to *time.Time) ([]model.Event, error) {
	result := []model.Event{}
	for _, e := range m.st.events {
		if e.OwnerID != ownerID {
			continue
		}
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && !e.Date.Before(*to) {
			continue
		}
		result = append(result, m.load(e))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.Event, memberIDs *[]string) error {
	c := *event
	c.Members = nil
	m.st.events[event.EventID] = &c
	if memberIDs == nil {
		return nil
	}
	old := map[string]model.EventMember{}
	for _, link := range m.st.eventLinks[event.EventID] {
		old[link.MemberID] = link
	}
	var links []model.EventMember
	for _, id := range *memberIDs {
		if link, ok := old[id]; ok {
			links = append(links, link)
			continue
		}
		links = append(links, model.EventMember{EventID: event.EventID, MemberID: id})
	}
	m.st.eventLinks[event.EventID] = links
	return nil
}

func (m *mockEventRepo) Delete(_ context.Context, ownerID, id string) error {
	if e, ok := m.st.events[id]; ok && e.OwnerID == ownerID {
		delete(m.st.events, id)
		delete(m.st.eventLinks, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockEventRepo) SetConfirmation(_ context.Context, eventID, memberID string, confirmed bool, at *time.Time) error {
	links := m.st.eventLinks[eventID]
	for i := range links {
		if links[i].MemberID == memberID {
			links[i].Confirmed = confirmed
			links[i].ConfirmedAt = at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock NoteRepository ──

type mockNoteRepo struct{ st *memStore }

func (m *mockNoteRepo) Create(_ context.Context, note *model.Note) error {
	note.NoteID = m.st.nextID("note")
	c := *note
	m.st.notes[note.NoteID] = &c
	return nil
}

func (m *mockNoteRepo) GetByID(_ context.Context, ownerID, id string) (*model.Note, error) {
	if n, ok := m.st.notes[id]; ok && n.OwnerID == ownerID {
		c := *n
		if u, ok := m.st.users[n.AuthorID]; ok {
			author := *u
			c.Author = &author
		}
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNoteRepo) ListByMember(_ context.Context, ownerID, memberID string) ([]model.Note, error) {
	result := []model.Note{}
	for _, n := range m.st.notes {
		if n.OwnerID == ownerID && n.MemberID == memberID {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NoteID > result[j].NoteID })
	return result, nil
}

func (m *mockNoteRepo) Update(_ context.Context, note *model.Note) error {
	stored, ok := m.st.notes[note.NoteID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Content = note.Content
	return nil
}

func (m *mockNoteRepo) Delete(_ context.Context, ownerID, id string) error {
	if n, ok := m.st.notes[id]; ok && n.OwnerID == ownerID {
		delete(m.st.notes, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock MemberCascade ──

type mockCascade struct{ st *memStore }

func (m *mockCascade) PurgeMember(_ context.Context, ownerID, memberID string) (*repository.PurgeResult, error) {
	mem, ok := m.st.members[memberID]
	if !ok || mem.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	res := &repository.PurgeResult{}
	for id, n := range m.st.notes {
		if n.MemberID == memberID {
			delete(m.st.notes, id)
			res.Notes++
		}
	}
	for id, a := range m.st.attendance {
		if a.MemberID == memberID {
			delete(m.st.attendance, id)
			res.Attendance++
		}
	}
	for id, d := range m.st.dues {
		if d.MemberID == memberID {
			delete(m.st.dues, id)
			res.Dues++
		}
	}
	for eventID, links := range m.st.eventLinks {
		kept := links[:0]
		for _, l := range links {
			if l.MemberID == memberID {
				res.EventLinks++
				continue
			}
			kept = append(kept, l)
		}
		m.st.eventLinks[eventID] = kept
	}
	delete(m.st.members, memberID)
	return res, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ── 测试辅助 ──

const testOwner = "owner-1"

// testNow 2026-02-20 10:00（Indian/Antananarivo）
func testNow(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 2, 20, 10, 0, 0, 0, testLoc(t))
}

func testLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Indian/Antananarivo")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	return loc
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		App:    config.AppConfig{Name: "Worship Team Manager", Timezone: "Indian/Antananarivo"},
		Server: config.ServerConfig{Port: 5000},
		Auth:   config.AuthConfig{JWTSecret: "0123456789abcdef-secret", AccessTokenTTL: time.Hour},
		Mail:   config.MailConfig{Provider: "log"},
		Dues:   config.DuesConfig{MonthlyFee: 3000, Currency: "Ar"},
		Scheduler: config.SchedulerConfig{
			AbsenceMinTotal: 4,
			AbsenceMinCount: 3,
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("测试配置无效: %v", err)
	}
	return cfg
}

// seedMember 直接写入一个成员
func seedMember(st *memStore, id, first, status string) *model.Member {
	m := &model.Member{
		MemberID:  id,
		OwnerID:   testOwner,
		FirstName: first,
		LastName:  "Rakoto",
		Gender:    model.GenderUnspecified,
		Role:      model.MemberRoleSinger,
		Status:    status,
		EntryDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	st.members[id] = m
	return m
}

// seedAttendance 直接写入一条考勤
func seedAttendance(st *memStore, memberID string, day time.Time, status string) {
	id := st.nextID("att")
	st.attendance[id] = &model.Attendance{
		AttendanceID: id,
		MemberID:     memberID,
		OwnerID:      testOwner,
		Date:         day,
		Status:       status,
		Type:         model.DefaultAttendanceType,
	}
}

func withEmail(m *model.Member, email string) *model.Member {
	m.Email = &email
	return m
}
