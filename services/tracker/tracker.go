package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	appointmentRepo "asignaciones/database/repository/appointment"
	"asignaciones/models"
	"asignaciones/services/telephony"
	"asignaciones/utils"

	"go.uber.org/zap"
)

// civilTimeLayout is the call-history timestamp format: local civil time in
// the clinical timezone, no offset.
const civilTimeLayout = "2006-01-02T15:04:05"

type providerState struct {
	status  string
	outcome models.Outcome
}

// DefaultTrackerService implements TrackerService.
type DefaultTrackerService struct {
	Repo      appointmentRepo.AppointmentRepository
	Telephony StatusSource
	// Location is the clinical timezone for history timestamps.
	Location *time.Location
	// PollInterval and MaxAttempts bound the polling loop (2s x 30 by default).
	PollInterval time.Duration
	MaxAttempts  int

	mu       sync.RWMutex
	statuses map[string]providerState
}

// NewDefaultTrackerService wires a tracker with the given tuning.
func NewDefaultTrackerService(repo appointmentRepo.AppointmentRepository, source StatusSource, loc *time.Location, pollInterval time.Duration, maxAttempts int) *DefaultTrackerService {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &DefaultTrackerService{
		Repo:         repo,
		Telephony:    source,
		Location:     loc,
		PollInterval: pollInterval,
		MaxAttempts:  maxAttempts,
		statuses:     make(map[string]providerState),
	}
}

// RecordCall appends CallRecord{pending} and returns its stable index.
func (s *DefaultTrackerService) RecordCall(ctx context.Context, appointmentID, callSID string, ts time.Time) (int, error) {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	record := models.CallRecord{
		Timestamp: ts.In(loc).Format(civilTimeLayout),
		CallSID:   callSID,
		Outcome:   models.OutcomePending,
	}

	index, err := s.Repo.AppendCallRecord(appointmentID, record)
	if err != nil {
		return 0, fmt.Errorf("failed to record call for appointment %s: %w", appointmentID, err)
	}

	utils.GetLogger().Info("call recorded",
		zap.String("appointmentId", appointmentID),
		zap.String("callSid", callSID),
		zap.Int("callIndex", index))
	return index, nil
}

// PollOutcome runs the bounded fixed-interval polling loop. It stops on the
// first non-pending outcome and commits exactly one transition; if the
// ceiling is reached without resolution the record simply stays pending.
func (s *DefaultTrackerService) PollOutcome(ctx context.Context, appointmentID string, callIndex int, callSID string) (models.Outcome, error) {
	logger := utils.GetLogger()

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		outcome := s.currentOutcome(ctx, callSID)
		if outcome.Terminal() {
			if err := s.commitOutcome(ctx, appointmentID, callIndex, outcome); err != nil {
				return models.OutcomePending, err
			}
			// The durable record now holds the outcome; keeping the cache
			// entry past this point would only grow the map per call.
			s.forget(callSID)
			logger.Info("call outcome committed",
				zap.String("appointmentId", appointmentID),
				zap.String("callSid", callSID),
				zap.Int("callIndex", callIndex),
				zap.String("outcome", string(outcome)))
			return outcome, nil
		}

		select {
		case <-ctx.Done():
			return models.OutcomePending, ctx.Err()
		case <-ticker.C:
		}
	}

	logger.Info("poll ceiling reached, leaving outcome pending",
		zap.String("appointmentId", appointmentID),
		zap.String("callSid", callSID),
		zap.Int("attempts", s.MaxAttempts))
	return models.OutcomePending, nil
}

// currentOutcome prefers a webhook-pushed status over a provider query.
func (s *DefaultTrackerService) currentOutcome(ctx context.Context, callSID string) models.Outcome {
	s.mu.RLock()
	state, ok := s.statuses[callSID]
	s.mu.RUnlock()
	if ok && state.outcome.Terminal() {
		return state.outcome
	}

	outcome, status, err := s.Telephony.CallOutcome(ctx, callSID)
	if err != nil {
		utils.GetLogger().Debug("status query failed",
			zap.String("callSid", callSID), zap.Error(err))
		return models.OutcomePending
	}
	s.remember(callSID, status, outcome)
	return outcome
}

func (s *DefaultTrackerService) commitOutcome(ctx context.Context, appointmentID string, callIndex int, outcome models.Outcome) error {
	matched, err := s.Repo.UpdateCallOutcome(appointmentID, callIndex, outcome)
	if err != nil {
		return err
	}
	if !matched {
		utils.GetLogger().Warn("outcome commit matched no call record",
			zap.String("appointmentId", appointmentID), zap.Int("callIndex", callIndex))
	}
	return nil
}

// UpdateOutcome is the manual override; it validates the value but keeps the
// out-of-range index silently ignored.
func (s *DefaultTrackerService) UpdateOutcome(ctx context.Context, appointmentID string, callIndex int, outcome models.Outcome) error {
	if !outcome.Valid() {
		return fmt.Errorf("invalid outcome %q", outcome)
	}

	matched, err := s.Repo.UpdateCallOutcome(appointmentID, callIndex, outcome)
	if err != nil {
		return err
	}
	if !matched {
		// TODO: surface a validation error instead; silently dropping the
		// update mirrors the historical behavior callers rely on today.
		utils.GetLogger().Warn("ignoring outcome update for out-of-range call index",
			zap.String("appointmentId", appointmentID), zap.Int("callIndex", callIndex))
	}
	return nil
}

// HandleWebhook caches the pushed status so pollers and status reads observe
// it without an extra provider round-trip.
func (s *DefaultTrackerService) HandleWebhook(callSID, providerStatus string) models.Outcome {
	outcome := telephony.MapStatus(providerStatus)
	s.remember(callSID, providerStatus, outcome)

	utils.GetLogger().Info("status webhook received",
		zap.String("callSid", callSID),
		zap.String("providerStatus", providerStatus),
		zap.String("outcome", string(outcome)))
	return outcome
}

// CallStatus serves the last known state; non-terminal cache entries are
// refreshed with a provider query.
func (s *DefaultTrackerService) CallStatus(ctx context.Context, callSID string) (string, models.Outcome, error) {
	s.mu.RLock()
	state, ok := s.statuses[callSID]
	s.mu.RUnlock()
	if ok && state.outcome.Terminal() {
		return state.status, state.outcome, nil
	}

	outcome, status, err := s.Telephony.CallOutcome(ctx, callSID)
	if err != nil {
		if ok {
			return state.status, state.outcome, nil
		}
		return "", models.OutcomePending, err
	}
	s.remember(callSID, status, outcome)
	return status, outcome, nil
}

func (s *DefaultTrackerService) remember(callSID, status string, outcome models.Outcome) {
	s.mu.Lock()
	s.statuses[callSID] = providerState{status: status, outcome: outcome}
	s.mu.Unlock()
}

func (s *DefaultTrackerService) forget(callSID string) {
	s.mu.Lock()
	delete(s.statuses, callSID)
	s.mu.Unlock()
}
