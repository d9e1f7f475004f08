package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"asignaciones/models"
	"asignaciones/services/telephony"
)

type fakeAppointmentRepo struct {
	mu      sync.Mutex
	history map[string][]models.CallRecord
	commits int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{history: make(map[string][]models.CallRecord)}
}

func (r *fakeAppointmentRepo) GetByID(id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history, ok := r.history[id]
	if !ok {
		return nil, nil
	}
	return &models.Appointment{FHIRID: id, CallHistory: history}, nil
}

func (r *fakeAppointmentRepo) GetAll() ([]models.Appointment, error) { return nil, nil }

func (r *fakeAppointmentRepo) Upsert(appt *models.Appointment) error { return nil }

func (r *fakeAppointmentRepo) AppendCallRecord(id string, record models.CallRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[id] = append(r.history[id], record)
	return len(r.history[id]) - 1, nil
}

func (r *fakeAppointmentRepo) UpdateCallOutcome(id string, index int, outcome models.Outcome) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history := r.history[id]
	if index < 0 || index >= len(history) {
		return false, nil
	}
	history[index].Outcome = outcome
	r.commits++
	return true, nil
}

func (r *fakeAppointmentRepo) outcomeAt(id string, index int) models.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[id][index].Outcome
}

func (r *fakeAppointmentRepo) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

// scriptedSource replays provider statuses in order, repeating the last.
type scriptedSource struct {
	mu       sync.Mutex
	statuses []string
	err      error
	queries  int
}

func (s *scriptedSource) CallOutcome(ctx context.Context, callSID string) (models.Outcome, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if s.err != nil {
		return models.OutcomePending, "", s.err
	}
	status := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	return telephony.MapStatus(status), status, nil
}

func (s *scriptedSource) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

func newTestTracker(repo *fakeAppointmentRepo, source *scriptedSource) *DefaultTrackerService {
	return NewDefaultTrackerService(repo, source, time.UTC, time.Millisecond, 5)
}

func TestRecordCall(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewDefaultTrackerService(repo, &scriptedSource{statuses: []string{"queued"}},
		time.FixedZone("CLT", -3*3600), time.Millisecond, 5)

	ts := time.Date(2026, 3, 15, 13, 30, 0, 0, time.UTC)
	index, err := svc.RecordCall(context.Background(), "appt-1", "CA1", ts)
	if err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}
	if index != 0 {
		t.Errorf("first record index = %d, want 0", index)
	}

	record := repo.history["appt-1"][0]
	if record.Timestamp != "2026-03-15T10:30:00" {
		t.Errorf("timestamp = %q, want civil time in the clinical zone", record.Timestamp)
	}
	if record.Outcome != models.OutcomePending {
		t.Errorf("new record outcome = %q, want pending", record.Outcome)
	}
	if record.CallSID != "CA1" {
		t.Errorf("record CallSID = %q, want CA1", record.CallSID)
	}

	// Indexes are stable append positions.
	index, _ = svc.RecordCall(context.Background(), "appt-1", "CA2", ts)
	if index != 1 {
		t.Errorf("second record index = %d, want 1", index)
	}
}

func TestPollOutcomeCommitsOnce(t *testing.T) {
	repo := newFakeAppointmentRepo()
	source := &scriptedSource{statuses: []string{"queued", "ringing", "completed"}}
	svc := newTestTracker(repo, source)
	ctx := context.Background()

	index, _ := svc.RecordCall(ctx, "appt-1", "CA1", time.Now())

	outcome, err := svc.PollOutcome(ctx, "appt-1", index, "CA1")
	if err != nil {
		t.Fatalf("PollOutcome failed: %v", err)
	}
	if outcome != models.OutcomeAnswered {
		t.Errorf("PollOutcome = %q, want answered", outcome)
	}
	if got := repo.outcomeAt("appt-1", index); got != models.OutcomeAnswered {
		t.Errorf("stored outcome = %q, want answered", got)
	}
	if repo.commitCount() != 1 {
		t.Errorf("outcome committed %d times, want exactly 1", repo.commitCount())
	}
}

func TestPollOutcomeCeilingLeavesPending(t *testing.T) {
	repo := newFakeAppointmentRepo()
	source := &scriptedSource{statuses: []string{"ringing"}}
	svc := newTestTracker(repo, source)
	ctx := context.Background()

	index, _ := svc.RecordCall(ctx, "appt-1", "CA1", time.Now())

	outcome, err := svc.PollOutcome(ctx, "appt-1", index, "CA1")
	if err != nil {
		t.Fatalf("PollOutcome failed: %v", err)
	}
	if outcome != models.OutcomePending {
		t.Errorf("PollOutcome = %q, want pending at ceiling", outcome)
	}
	if repo.commitCount() != 0 {
		t.Errorf("outcome committed at ceiling")
	}
	if got := repo.outcomeAt("appt-1", index); got != models.OutcomePending {
		t.Errorf("stored outcome = %q, want still pending", got)
	}
}

func TestPollOutcomePrefersWebhookState(t *testing.T) {
	repo := newFakeAppointmentRepo()
	// Provider queries would fail; only the pushed status can resolve this.
	source := &scriptedSource{err: context.DeadlineExceeded}
	svc := newTestTracker(repo, source)
	ctx := context.Background()

	index, _ := svc.RecordCall(ctx, "appt-1", "CA1", time.Now())
	svc.HandleWebhook("CA1", "busy")

	outcome, err := svc.PollOutcome(ctx, "appt-1", index, "CA1")
	if err != nil {
		t.Fatalf("PollOutcome failed: %v", err)
	}
	if outcome != models.OutcomeNoAnswer {
		t.Errorf("PollOutcome = %q, want no_answer from webhook", outcome)
	}
	if source.queryCount() != 0 {
		t.Errorf("provider queried %d times despite terminal webhook state", source.queryCount())
	}
}

func TestPollOutcomeEvictsCachedState(t *testing.T) {
	repo := newFakeAppointmentRepo()
	source := &scriptedSource{statuses: []string{"completed"}}
	svc := newTestTracker(repo, source)
	ctx := context.Background()

	index, _ := svc.RecordCall(ctx, "appt-1", "CA1", time.Now())
	svc.HandleWebhook("CA1", "completed")

	if _, err := svc.PollOutcome(ctx, "appt-1", index, "CA1"); err != nil {
		t.Fatalf("PollOutcome failed: %v", err)
	}

	// Once the outcome is on the appointment record the cache entry has no
	// reader left; a long-lived worker must not accumulate one per call.
	svc.mu.RLock()
	_, cached := svc.statuses["CA1"]
	svc.mu.RUnlock()
	if cached {
		t.Error("cached provider state survived the outcome commit")
	}
}

func TestPollOutcomeContextCancellation(t *testing.T) {
	repo := newFakeAppointmentRepo()
	source := &scriptedSource{statuses: []string{"ringing"}}
	svc := NewDefaultTrackerService(repo, source, time.UTC, time.Hour, 30)

	ctx, cancel := context.WithCancel(context.Background())
	index, _ := svc.RecordCall(ctx, "appt-1", "CA1", time.Now())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := svc.PollOutcome(ctx, "appt-1", index, "CA1"); err == nil {
			t.Errorf("PollOutcome returned nil error after cancellation")
		}
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("PollOutcome did not stop on context cancellation")
	}
}

func TestUpdateOutcome(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestTracker(repo, &scriptedSource{statuses: []string{"queued"}})
	ctx := context.Background()

	index, _ := svc.RecordCall(ctx, "appt-1", "CA1", time.Now())

	if err := svc.UpdateOutcome(ctx, "appt-1", index, models.OutcomeAnswered); err != nil {
		t.Fatalf("UpdateOutcome failed: %v", err)
	}
	if got := repo.outcomeAt("appt-1", index); got != models.OutcomeAnswered {
		t.Errorf("stored outcome = %q, want answered", got)
	}
}

func TestUpdateOutcomeInvalidValue(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestTracker(repo, &scriptedSource{statuses: []string{"queued"}})

	if err := svc.UpdateOutcome(context.Background(), "appt-1", 0, "totally-bogus"); err == nil {
		t.Error("UpdateOutcome accepted an invalid outcome value")
	}
}

func TestUpdateOutcomeOutOfRangeIsIgnored(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestTracker(repo, &scriptedSource{statuses: []string{"queued"}})
	ctx := context.Background()

	index, _ := svc.RecordCall(ctx, "appt-1", "CA1", time.Now())

	if err := svc.UpdateOutcome(ctx, "appt-1", 99, models.OutcomeFailed); err != nil {
		t.Fatalf("UpdateOutcome returned error for out-of-range index: %v", err)
	}
	if got := repo.outcomeAt("appt-1", index); got != models.OutcomePending {
		t.Errorf("existing record changed by out-of-range update: %q", got)
	}
}

func TestHandleWebhookCancellationMapsToFailed(t *testing.T) {
	svc := newTestTracker(newFakeAppointmentRepo(), &scriptedSource{statuses: []string{"queued"}})

	// A cancelled notification never reached the patient.
	if got := svc.HandleWebhook("CA1", "canceled"); got != models.OutcomeFailed {
		t.Errorf("HandleWebhook(canceled) = %q, want failed", got)
	}
}

func TestCallStatusServesTerminalCache(t *testing.T) {
	source := &scriptedSource{statuses: []string{"queued"}}
	svc := newTestTracker(newFakeAppointmentRepo(), source)

	svc.HandleWebhook("CA1", "completed")

	status, outcome, err := svc.CallStatus(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("CallStatus failed: %v", err)
	}
	if status != "completed" || outcome != models.OutcomeAnswered {
		t.Errorf("CallStatus = (%q, %q), want (completed, answered)", status, outcome)
	}
	if source.queryCount() != 0 {
		t.Errorf("provider queried despite terminal cached state")
	}
}

func TestCallStatusRefreshesNonTerminalState(t *testing.T) {
	source := &scriptedSource{statuses: []string{"completed"}}
	svc := newTestTracker(newFakeAppointmentRepo(), source)

	svc.HandleWebhook("CA1", "ringing")

	status, outcome, err := svc.CallStatus(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("CallStatus failed: %v", err)
	}
	if status != "completed" || outcome != models.OutcomeAnswered {
		t.Errorf("CallStatus = (%q, %q), want refreshed (completed, answered)", status, outcome)
	}
	if source.queryCount() != 1 {
		t.Errorf("provider queried %d times, want 1", source.queryCount())
	}
}
