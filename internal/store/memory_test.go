package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seededMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	seeded, err := Seed(context.Background(), s)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !seeded {
		t.Fatalf("expected seed to write")
	}
	return s
}

func TestSeedIsIdempotent(t *testing.T) {
	s := seededMemoryStore(t)
	ctx := context.Background()
	seeded, err := Seed(ctx, s)
	if err != nil || seeded {
		t.Fatalf("second seed should be a no-op, got seeded=%v err=%v", seeded, err)
	}
	staff, _ := s.ListStaff(ctx)
	services, _ := s.ListServices(ctx)
	if len(staff) != 6 || len(services) != 10 {
		t.Fatalf("expected 6 staff and 10 services, got %d and %d", len(staff), len(services))
	}
}

func TestSeedCapabilities(t *testing.T) {
	s := seededMemoryStore(t)
	ctx := context.Background()

	// Root Canal Treatment is service 7, performed only by Dr. Maayan Granit (staff 4).
	staff, err := s.StaffForService(ctx, 7)
	if err != nil {
		t.Fatalf("staff for service: %v", err)
	}
	if len(staff) != 1 || staff[0].ID != 4 || staff[0].Name != "Dr. Maayan Granit" {
		t.Fatalf("unexpected root canal staff %+v", staff)
	}

	hygienists, _ := s.StaffForService(ctx, 1)
	if len(hygienists) != 2 || hygienists[0].ID != 2 || hygienists[1].ID != 6 {
		t.Fatalf("unexpected cleaning staff %+v", hygienists)
	}

	ok, _ := s.CanPerform(ctx, 1, 10)
	if !ok {
		t.Fatalf("Dr. Ofeck should perform Botox")
	}
	ok, _ = s.CanPerform(ctx, 2, 7)
	if ok {
		t.Fatalf("hygienist should not perform root canal")
	}

	services, _ := s.ServicesForStaff(ctx, 1)
	if len(services) != 5 {
		t.Fatalf("expected 5 services for Dr. Ofeck, got %d", len(services))
	}
}

func TestCreateStaffRejectsOverlappingHours(t *testing.T) {
	s := NewMemoryStore()
	err := s.CreateStaff(context.Background(), &Staff{
		Name:         "Overlap",
		WorkingHours: WorkingHours{"monday": {"08:00-12:00", "10:00-14:00"}},
		Active:       true,
	})
	if !errors.Is(err, ErrInvalidWorkingHours) {
		t.Fatalf("expected ErrInvalidWorkingHours, got %v", err)
	}
	if staff, _ := s.ListStaff(context.Background()); len(staff) != 0 {
		t.Fatalf("expected no staff written")
	}
}

func TestListOccupyingSkipsDeclinedAndCancelled(t *testing.T) {
	s := seededMemoryStore(t)
	ctx := context.Background()
	day := time.Date(2030, 1, 6, 0, 0, 0, 0, time.UTC)

	var ids []int64
	for i, status := range []Status{StatusPending, StatusApproved, StatusDeclined, StatusCancelled} {
		appt := &Appointment{
			PatientName:  "Pat",
			PatientEmail: "pat@example.com",
			ServiceID:    1,
			ServiceName:  "Dental Hygiene & Cleaning",
			StaffID:      2,
			StartsAt:     day.Add(time.Duration(8+i) * time.Hour),
			Status:       status,
		}
		if err := s.CreateAppointment(ctx, appt); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, appt.ID)
	}

	got, err := s.ListOccupying(ctx, 2, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list occupying: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[0] || got[1].ID != ids[1] {
		t.Fatalf("expected pending and approved only, got %+v", got)
	}
	if got[0].DurationMinutes != 45 {
		t.Fatalf("expected service duration joined, got %d", got[0].DurationMinutes)
	}
}

func TestUpdateAppointmentStatus(t *testing.T) {
	s := seededMemoryStore(t)
	ctx := context.Background()
	if _, err := s.UpdateAppointmentStatus(ctx, 99, StatusApproved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	appt := &Appointment{PatientName: "A", PatientEmail: "A@Example.com ", ServiceName: "Teeth Whitening", ServiceID: 2, StaffID: 2, StartsAt: time.Now()}
	if err := s.CreateAppointment(ctx, appt); err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.Status != StatusPending || appt.PatientEmail != "a@example.com" {
		t.Fatalf("expected pending with normalized email, got %+v", appt)
	}
	updated, err := s.UpdateAppointmentStatus(ctx, appt.ID, StatusApproved)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}
	byStatus, _ := s.ListAppointmentsByStatus(ctx, StatusPending)
	if len(byStatus) != 0 {
		t.Fatalf("expected no pending appointments")
	}
}

func TestPatientRecords(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	created, err := s.TouchPatient(ctx, "New@X.com")
	if err != nil || !created {
		t.Fatalf("expected first touch to create, got %v %v", created, err)
	}
	created, _ = s.TouchPatient(ctx, "new@x.com")
	if created {
		t.Fatalf("second touch should not create")
	}

	if err := s.UpsertPatient(ctx, "new@x.com", PatientUpdate{Name: "Noa", Phone: "050"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertPatient(ctx, "new@x.com", PatientUpdate{Name: ""}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for _, interest := range []string{"Teeth Whitening", "Teeth Whitening", "Botox Treatment"} {
		if err := s.AddInterest(ctx, "new@x.com", interest); err != nil {
			t.Fatalf("add interest: %v", err)
		}
	}
	total, _ := s.AppendPreference(ctx, "new@x.com", "prefers mornings")
	total, _ = s.AppendPreference(ctx, "new@x.com", "prefers mornings")
	if total != 2 {
		t.Fatalf("preferences are append-only, expected 2, got %d", total)
	}

	p, err := s.GetPatient(ctx, "NEW@x.com")
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	if p.Name != "Noa" || p.Phone != "050" {
		t.Fatalf("expected stored contact kept, got %+v", p)
	}
	if len(p.Interests) != 2 {
		t.Fatalf("expected deduplicated interests, got %v", p.Interests)
	}

	now = now.Add(10 * 24 * time.Hour)
	idle, _ := s.ListPatientsForReengagement(ctx, now.Add(-7*24*time.Hour))
	if len(idle) != 1 {
		t.Fatalf("expected one idle patient, got %d", len(idle))
	}
	if err := s.MarkConverted(ctx, "new@x.com"); err != nil {
		t.Fatalf("mark converted: %v", err)
	}
	idle, _ = s.ListPatientsForReengagement(ctx, now.Add(-7*24*time.Hour))
	if len(idle) != 0 {
		t.Fatalf("converted patients are not re-engaged")
	}
	if err := s.MarkConverted(ctx, "ghost@x.com"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected patient not found, got %v", err)
	}
}
