package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/dental-booking-ai/internal/appointments"
	"github.com/wolfman30/dental-booking-ai/internal/availability"
	"github.com/wolfman30/dental-booking-ai/internal/catalog"
	"github.com/wolfman30/dental-booking-ai/internal/knowledge"
	"github.com/wolfman30/dental-booking-ai/internal/store"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

const (
	katyID      = int64(2)
	maayanID    = int64(4)
	rootCanalID = int64(7)
)

var clinicZone = time.FixedZone("IST", 2*60*60)

type recordedCall struct{ tool, result string }

type fakeCalls struct{ calls []recordedCall }

func (f *fakeCalls) ObserveToolCall(tool, result string, _ float64) {
	f.calls = append(f.calls, recordedCall{tool, result})
}

type brokenRepo struct {
	*store.MemoryStore
}

func (brokenRepo) ListServices(context.Context) ([]store.Service, error) {
	return nil, errors.New("disk I/O error")
}

func (brokenRepo) AppendPreference(context.Context, string, string) (int, error) {
	return 0, errors.New("disk I/O error")
}

type harness struct {
	store   *store.MemoryStore
	calls   *fakeCalls
	toolbox *Service
}

func newHarness(t *testing.T, repo func(*store.MemoryStore) Repository) *harness {
	t.Helper()
	st := store.NewMemoryStore()
	_, err := store.Seed(context.Background(), st)
	require.NoError(t, err)

	var r Repository = st
	if repo != nil {
		r = repo(st)
	}
	calls := &fakeCalls{}
	svc := NewService(Dependencies{
		Repo:      r,
		Resolver:  catalog.NewResolver(st, nil),
		Engine:    availability.NewEngine(st, nil, clinicZone, logging.Discard()),
		Booker:    appointments.NewManager(st, appointments.Dependencies{}, appointments.Config{Location: clinicZone}, logging.Discard()),
		Knowledge: knowledge.NewService(nil, nil, logging.Discard()),
		Metrics:   calls,
	}, Config{
		ClinicPhone:        "(555) 123-4567",
		Location:           clinicZone,
		RequireFutureDates: true,
		Now:                func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, clinicZone) },
	}, logging.Discard())
	return &harness{store: st, calls: calls, toolbox: svc}
}

func TestGetServices(t *testing.T) {
	h := newHarness(t, nil)

	res := h.toolbox.GetServices(context.Background())
	require.Nil(t, res.Error)
	assert.True(t, res.Success)
	require.Len(t, res.Services, 10)
	for _, svc := range res.Services {
		if svc.Name == "Root Canal Treatment" {
			assert.Equal(t, []string{"Dr. Maayan Granit"}, svc.Staff)
			assert.Equal(t, 90, svc.DurationMinutes)
		}
	}
	assert.Equal(t, []recordedCall{{NameGetServices, "success"}}, h.calls.calls)
}

func TestGetServices_DatabaseError(t *testing.T) {
	h := newHarness(t, func(st *store.MemoryStore) Repository { return brokenRepo{st} })

	res := h.toolbox.GetServices(context.Background())
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorDatabase, res.Error.ErrorType)
	assert.True(t, res.Error.Retryable)
	assert.Contains(t, res.Error.Suggestion, "(555) 123-4567")
	assert.Equal(t, []recordedCall{{NameGetServices, "DATABASE_ERROR"}}, h.calls.calls)
}

func TestGetStaffForService(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	res := h.toolbox.GetStaffForService(ctx, StaffForServiceInput{ServiceName: "root canal"})
	require.Nil(t, res.Error)
	require.NotNil(t, res.Service)
	assert.Equal(t, rootCanalID, res.Service.ID)
	require.Len(t, res.Staff, 1)
	assert.Equal(t, maayanID, res.Staff[0].ID)

	miss := h.toolbox.GetStaffForService(ctx, StaffForServiceInput{ServiceName: "tattoo removal"})
	require.NotNil(t, miss.Error)
	assert.Equal(t, ErrorNotFound, miss.Error.ErrorType)
	assert.False(t, miss.Error.Retryable)
	assert.Contains(t, miss.Error.Suggestion, "getServices")

	blank := h.toolbox.GetStaffForService(ctx, StaffForServiceInput{})
	require.NotNil(t, blank.Error)
	assert.Equal(t, ErrorValidation, blank.Error.ErrorType)
}

func TestCheckAvailability(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	res := h.toolbox.CheckAvailability(ctx, CheckAvailabilityInput{StaffID: maayanID, Date: "2025-03-10", ServiceDuration: 90})
	require.Nil(t, res.Error)
	assert.True(t, res.Available)
	assert.Len(t, res.Slots, availability.MaxSlots)
	assert.Equal(t, "08:00", res.Slots[0])
	assert.Equal(t, "Dr. Maayan Granit", res.StaffName)
}

func TestCheckAvailability_StaffNotWorking(t *testing.T) {
	h := newHarness(t, nil)

	// 2025-03-09 is a Sunday.
	res := h.toolbox.CheckAvailability(context.Background(), CheckAvailabilityInput{StaffID: maayanID, Date: "2025-03-09"})
	assert.False(t, res.Available)
	assert.NotNil(t, res.Slots)
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorStaffNotWorking, res.Error.ErrorType)
	assert.Equal(t, []string{"monday", "wednesday", "friday"}, res.WorkingDays)
	assert.Contains(t, res.Error.Suggestion, "monday, wednesday, friday")
}

func TestCheckAvailability_Validation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CheckAvailabilityInput
		want ErrorType
	}{
		{"bad format", CheckAvailabilityInput{StaffID: maayanID, Date: "10/03/2025"}, ErrorValidation},
		{"past date", CheckAvailabilityInput{StaffID: maayanID, Date: "2025-02-24"}, ErrorValidation},
		{"unknown staff", CheckAvailabilityInput{StaffID: 99, Date: "2025-03-10"}, ErrorNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := h.toolbox.CheckAvailability(ctx, tc.in)
			require.NotNil(t, res.Error)
			assert.Equal(t, tc.want, res.Error.ErrorType)
			assert.Empty(t, res.Slots)
		})
	}
}

func TestBookingFlow_RootCanal(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	staff := h.toolbox.GetStaffForService(ctx, StaffForServiceInput{ServiceName: "root canal"})
	require.Nil(t, staff.Error)

	slots := h.toolbox.CheckAvailability(ctx, CheckAvailabilityInput{
		StaffID: staff.Staff[0].ID, Date: "2025-03-10", ServiceDuration: staff.Service.DurationMinutes,
	})
	require.True(t, slots.Available)
	require.Contains(t, slots.Slots, "10:00")

	created := h.toolbox.CreateAppointment(ctx, CreateAppointmentInput{
		PatientName:  "Dana Levi",
		PatientEmail: "dana@example.com",
		ServiceID:    staff.Service.ID,
		Service:      staff.Service.Name,
		StaffID:      staff.Staff[0].ID,
		DateTime:     "2025-03-10T10:00:00",
	})
	require.Nil(t, created.Error)
	assert.True(t, created.Success)
	assert.Equal(t, store.StatusPending, created.Status)
	assert.Contains(t, created.Message, "dana@example.com")
	assert.False(t, created.OwnerNotified)

	appt, err := h.store.GetAppointment(ctx, created.AppointmentID)
	require.NoError(t, err)
	assert.True(t, appt.StartsAt.Equal(time.Date(2025, 3, 10, 10, 0, 0, 0, clinicZone)))

	again := h.toolbox.CheckAvailability(ctx, CheckAvailabilityInput{
		StaffID: staff.Staff[0].ID, Date: "2025-03-10", ServiceDuration: staff.Service.DurationMinutes,
	})
	require.True(t, again.Available)
	assert.NotContains(t, again.Slots, "10:00")
	assert.Contains(t, again.Slots, "08:00")
	assert.Contains(t, again.Slots, "11:30")
}

func TestCreateAppointment_Failures(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	base := CreateAppointmentInput{
		PatientName:  "Dana Levi",
		PatientEmail: "dana@example.com",
		ServiceID:    rootCanalID,
		StaffID:      maayanID,
		DateTime:     "2025-03-10T10:00:00",
	}
	cases := []struct {
		name   string
		mutate func(*CreateAppointmentInput)
		want   ErrorType
	}{
		{"unqualified staff", func(in *CreateAppointmentInput) { in.StaffID = katyID }, ErrorNotFound},
		{"unknown staff", func(in *CreateAppointmentInput) { in.StaffID = 99 }, ErrorNotFound},
		{"bad datetime", func(in *CreateAppointmentInput) { in.DateTime = "next tuesday" }, ErrorValidation},
		{"past datetime", func(in *CreateAppointmentInput) { in.DateTime = "2025-02-01T10:00:00" }, ErrorValidation},
		{"bad email", func(in *CreateAppointmentInput) { in.PatientEmail = "not-an-email" }, ErrorValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			res := h.toolbox.CreateAppointment(ctx, in)
			assert.False(t, res.Success)
			require.NotNil(t, res.Error)
			assert.Equal(t, tc.want, res.Error.ErrorType)
		})
	}

	pending, err := h.store.ListAppointmentsByStatus(ctx, store.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGetPatientHistory(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	fresh := h.toolbox.GetPatientHistory(ctx, PatientHistoryInput{Email: "new@x.com"})
	require.Nil(t, fresh.Error)
	assert.True(t, fresh.Found)
	assert.True(t, fresh.IsNewPatient)
	assert.Empty(t, fresh.ActiveAppointments)

	created := h.toolbox.CreateAppointment(ctx, CreateAppointmentInput{
		PatientName: "Dana Levi", PatientEmail: "dana@example.com",
		ServiceID: rootCanalID, StaffID: maayanID, DateTime: "2025-03-10T10:00:00",
	})
	require.Nil(t, created.Error)

	known := h.toolbox.GetPatientHistory(ctx, PatientHistoryInput{Email: "Dana@Example.com"})
	require.Nil(t, known.Error)
	assert.True(t, known.Found)
	assert.False(t, known.IsNewPatient)
	require.Len(t, known.ActiveAppointments, 1)
	assert.Equal(t, 0, known.TotalPastAppointments)
	require.NotNil(t, known.Patient)
	assert.Equal(t, "Dana Levi", known.Patient.Name)
}

func TestSavePatientPreference(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	first := h.toolbox.SavePatientPreference(ctx, SavePreferenceInput{Email: "dana@example.com", Preference: "prefers mornings"})
	require.Nil(t, first.Error)
	assert.Equal(t, 1, first.TotalPreferences)

	second := h.toolbox.SavePatientPreference(ctx, SavePreferenceInput{Email: "dana@example.com", Preference: "allergic to latex"})
	assert.Equal(t, 2, second.TotalPreferences)

	missing := h.toolbox.SavePatientPreference(ctx, SavePreferenceInput{Email: "dana@example.com"})
	require.NotNil(t, missing.Error)
	assert.Equal(t, ErrorValidation, missing.Error.ErrorType)
}

func TestSavePatientPreference_DatabaseError(t *testing.T) {
	h := newHarness(t, func(st *store.MemoryStore) Repository { return brokenRepo{st} })

	res := h.toolbox.SavePatientPreference(context.Background(), SavePreferenceInput{Email: "a@b.com", Preference: "x"})
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrorDatabase, res.Error.ErrorType)
	assert.True(t, res.Error.Retryable)
}

func TestSearchKnowledgeBase(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	res := h.toolbox.SearchKnowledgeBase(ctx, KnowledgeInput{Query: "which insurance do you accept?"})
	require.Nil(t, res.Error)
	assert.True(t, res.Found)
	assert.Len(t, res.Results.Insurance, 5)

	empty := h.toolbox.SearchKnowledgeBase(ctx, KnowledgeInput{Query: "  "})
	assert.False(t, empty.Found)
	require.NotNil(t, empty.Error)
	assert.Equal(t, ErrorNotFound, empty.Error.ErrorType)
}

func TestFailureEncoding(t *testing.T) {
	res := AvailabilityResult{Slots: []string{}, Error: &Failure{ErrorType: ErrorNoSlots, Message: "none"}}
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"available":false,"slots":[],"calendarChecked":false,"error":{"errorType":"NO_SLOTS","message":"none","retryable":false}}`, string(raw))
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("2025-03-10T10:00:00", clinicZone)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)))

	got, err = ParseDateTime("2025-03-10T10:00:00Z", clinicZone)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)))

	_, err = ParseDateTime("tomorrow", clinicZone)
	assert.Error(t, err)
}
