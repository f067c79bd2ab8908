package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type pair struct{ staffID, serviceID int64 }

// MemoryStore is an in-process Store used for development and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	now          func() time.Time
	staff        map[int64]*Staff
	services     map[int64]*Service
	capabilities map[pair]struct{}
	appointments map[int64]*Appointment
	patients     map[string]*Patient
	nextStaff    int64
	nextService  int64
	nextAppt     int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          func() time.Time { return time.Now().UTC() },
		staff:        make(map[int64]*Staff),
		services:     make(map[int64]*Service),
		capabilities: make(map[pair]struct{}),
		appointments: make(map[int64]*Appointment),
		patients:     make(map[string]*Patient),
	}
}

// SetClock overrides the time source used for timestamps.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now != nil {
		m.now = now
	}
}

func (m *MemoryStore) ListStaff(ctx context.Context) ([]Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Staff, 0, len(m.staff))
	for _, s := range m.staff {
		if s.Active {
			out = append(out, copyStaff(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetStaff(ctx context.Context, id int64) (*Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.staff[id]
	if !ok {
		return nil, ErrStaffNotFound
	}
	cp := copyStaff(s)
	return &cp, nil
}

func (m *MemoryStore) CreateStaff(ctx context.Context, staff *Staff) error {
	if staff == nil || strings.TrimSpace(staff.Name) == "" {
		return fmt.Errorf("store: staff name required")
	}
	if err := staff.WorkingHours.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextStaff++
	staff.ID = m.nextStaff
	cp := copyStaff(staff)
	m.staff[staff.ID] = &cp
	return nil
}

func (m *MemoryStore) AssignService(ctx context.Context, staffID, serviceID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[staffID]; !ok {
		return ErrStaffNotFound
	}
	if _, ok := m.services[serviceID]; !ok {
		return ErrServiceNotFound
	}
	m.capabilities[pair{staffID, serviceID}] = struct{}{}
	return nil
}

func (m *MemoryStore) StaffForService(ctx context.Context, serviceID int64) ([]Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Staff
	for p := range m.capabilities {
		if p.serviceID != serviceID {
			continue
		}
		if s, ok := m.staff[p.staffID]; ok && s.Active {
			out = append(out, copyStaff(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ServicesForStaff(ctx context.Context, staffID int64) ([]Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Service
	for p := range m.capabilities {
		if p.staffID != staffID {
			continue
		}
		if svc, ok := m.services[p.serviceID]; ok && svc.Active {
			out = append(out, *svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CanPerform(ctx context.Context, staffID, serviceID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.capabilities[pair{staffID, serviceID}]
	return ok, nil
}

func (m *MemoryStore) ListServices(ctx context.Context) ([]Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Service, 0, len(m.services))
	for _, svc := range m.services {
		if svc.Active {
			out = append(out, *svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetService(ctx context.Context, id int64) (*Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	svc, ok := m.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}

func (m *MemoryStore) CreateService(ctx context.Context, svc *Service) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextService++
	svc.ID = m.nextService
	cp := *svc
	m.services[svc.ID] = &cp
	return nil
}

func (m *MemoryStore) CreateAppointment(ctx context.Context, appt *Appointment) error {
	if err := appt.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextAppt++
	now := m.now()
	appt.ID = m.nextAppt
	if appt.Status == "" {
		appt.Status = StatusPending
	}
	appt.PatientEmail = NormalizeEmail(appt.PatientEmail)
	appt.CreatedAt = now
	appt.UpdatedAt = now
	cp := *appt
	m.appointments[appt.ID] = &cp
	appt.DurationMinutes = m.durationLocked(appt.ServiceID)
	return nil
}

func (m *MemoryStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := m.readLocked(a)
	return &cp, nil
}

func (m *MemoryStore) UpdateAppointmentStatus(ctx context.Context, id int64, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("store: unknown status %q", status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Status = status
	a.UpdatedAt = m.now()
	cp := m.readLocked(a)
	return &cp, nil
}

func (m *MemoryStore) ListOccupying(ctx context.Context, staffID int64, from, to time.Time) ([]Appointment, error) {
	return m.filterAppointments(func(a *Appointment) bool {
		return a.StaffID == staffID && a.Status.Occupies() &&
			!a.StartsAt.Before(from) && a.StartsAt.Before(to)
	}), nil
}

func (m *MemoryStore) ListAppointmentsByEmail(ctx context.Context, email string) ([]Appointment, error) {
	email = NormalizeEmail(email)
	return m.filterAppointments(func(a *Appointment) bool { return a.PatientEmail == email }), nil
}

func (m *MemoryStore) ListAppointmentsByStatus(ctx context.Context, status Status) ([]Appointment, error) {
	return m.filterAppointments(func(a *Appointment) bool { return a.Status == status }), nil
}

func (m *MemoryStore) filterAppointments(keep func(*Appointment) bool) []Appointment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Appointment
	for _, a := range m.appointments {
		if keep(a) {
			out = append(out, m.readLocked(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out
}

func (m *MemoryStore) readLocked(a *Appointment) Appointment {
	cp := *a
	cp.DurationMinutes = m.durationLocked(a.ServiceID)
	return cp
}

func (m *MemoryStore) durationLocked(serviceID int64) int {
	if svc, ok := m.services[serviceID]; ok {
		return svc.DurationMinutes
	}
	return 0
}

func (m *MemoryStore) TouchPatient(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, created := m.patientLocked(email)
	return created, nil
}

func (m *MemoryStore) GetPatient(ctx context.Context, email string) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[NormalizeEmail(email)]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	cp.Preferences = append([]string{}, p.Preferences...)
	cp.Interests = append([]string{}, p.Interests...)
	return &cp, nil
}

func (m *MemoryStore) UpsertPatient(ctx context.Context, email string, upd PatientUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, _ := m.patientLocked(email)
	if name := strings.TrimSpace(upd.Name); name != "" {
		p.Name = name
	}
	if phone := strings.TrimSpace(upd.Phone); phone != "" {
		p.Phone = phone
	}
	return nil
}

func (m *MemoryStore) AppendPreference(ctx context.Context, email, preference string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, _ := m.patientLocked(email)
	p.Preferences = append(p.Preferences, preference)
	return len(p.Preferences), nil
}

func (m *MemoryStore) AddInterest(ctx context.Context, email, interest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, _ := m.patientLocked(email)
	for _, existing := range p.Interests {
		if existing == interest {
			return nil
		}
	}
	p.Interests = append(p.Interests, interest)
	return nil
}

func (m *MemoryStore) MarkConverted(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[NormalizeEmail(email)]
	if !ok {
		return ErrPatientNotFound
	}
	p.Converted = true
	return nil
}

func (m *MemoryStore) ListPatientsForReengagement(ctx context.Context, idleSince time.Time) ([]Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Patient
	for _, p := range m.patients {
		if !p.Converted && p.LastInteraction.Before(idleSince) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastInteraction.Before(out[j].LastInteraction) })
	return out, nil
}

// patientLocked returns the record for email, creating it when absent, and
// stamps the interaction time.
func (m *MemoryStore) patientLocked(email string) (*Patient, bool) {
	key := NormalizeEmail(email)
	now := m.now()
	p, ok := m.patients[key]
	if !ok {
		p = &Patient{Email: key, Preferences: []string{}, Interests: []string{}, CreatedAt: now}
		m.patients[key] = p
	}
	p.LastInteraction = now
	return p, !ok
}

func copyStaff(s *Staff) Staff {
	cp := *s
	cp.WorkingHours = s.WorkingHours.Clone()
	return cp
}

var _ Store = (*MemoryStore)(nil)
