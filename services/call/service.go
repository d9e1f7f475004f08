package call

import (
	"context"
	"errors"
	"time"

	"asignaciones/models"
	"asignaciones/services/telephony"
	"asignaciones/services/tts"
	"asignaciones/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ringTimeoutSeconds stops ringing if nobody answers.
const ringTimeoutSeconds = 20

// DefaultCallService implements CallService.
type DefaultCallService struct {
	Sessions  SessionStore
	Telephony telephony.Provider
	Synth     tts.Synthesizer
	// ServerHost is the public base URL the provider fetches callbacks from.
	ServerHost string
}

// CreateCall registers the session before the call is placed, so the
// provider's first instruction fetch (which arrives on a different control
// path) always observes it.
func (s *DefaultCallService) CreateCall(ctx context.Context, req models.CallRequest) (string, string, error) {
	logger := utils.GetLogger()

	phone, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return "", "", &InvalidPhoneError{Phone: req.Phone, Err: err}
	}

	message := ComposeMessage(req.PatientName, req.Date, req.Time, req.ServiceType, req.OrganizationName)
	callID := uuid.New().String()

	session := &models.CallSession{
		CallID:    callID,
		Phone:     phone,
		Message:   message,
		Status:    "initiated",
		CreatedAt: time.Now(),
	}
	if err := s.Sessions.Put(ctx, session); err != nil {
		return "", "", err
	}

	callSID, err := s.Telephony.PlaceCall(ctx, telephony.CallParams{
		To:                phone,
		InstructionsURL:   s.ServerHost + "/twiml/" + callID,
		StatusCallbackURL: s.ServerHost + "/call-status-webhook",
		TimeoutSeconds:    ringTimeoutSeconds,
	})
	if err != nil {
		// No session may outlive a rejected placement.
		if derr := s.Sessions.Delete(ctx, callID); derr != nil {
			logger.Warn("failed to delete session after rejected call",
				zap.String("callId", callID), zap.Error(derr))
		}
		return "", "", &ProviderError{Err: err}
	}

	if err := s.updateSession(ctx, callID, func(session *models.CallSession) {
		session.CallSID = callSID
	}); err != nil {
		logger.Warn("failed to store call sid on session",
			zap.String("callId", callID), zap.Error(err))
	}

	// Pre-generate audio only once the SID is on the session: the read-modify-
	// put writes race each other otherwise. The audio endpoint still falls back
	// to on-demand synthesis if the provider fetches before this finishes.
	go s.pregenerateAudio(callID, message)

	logger.Info("call initiated",
		zap.String("callId", callID), zap.String("callSid", callSID), zap.String("phone", phone))
	return callID, callSID, nil
}

func (s *DefaultCallService) pregenerateAudio(callID, message string) {
	logger := utils.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	audio, err := s.Synth.Synthesize(ctx, message)
	if err != nil {
		logger.Warn("audio pre-generation failed, will synthesize on demand",
			zap.String("callId", callID), zap.Error(err))
		return
	}

	if err := s.updateSession(ctx, callID, func(session *models.CallSession) {
		session.Audio = audio
	}); err != nil {
		logger.Warn("failed to cache pre-generated audio",
			zap.String("callId", callID), zap.Error(err))
		return
	}
	logger.Debug("audio pre-generated",
		zap.String("callId", callID), zap.Int("bytes", len(audio)))
}

// updateSession applies fn over a fresh read of the session so concurrent
// writers do not clobber each other's fields.
func (s *DefaultCallService) updateSession(ctx context.Context, callID string, fn func(*models.CallSession)) error {
	session, err := s.Sessions.Get(ctx, callID)
	if err != nil {
		return err
	}
	if session == nil {
		return &NotFoundError{CallID: callID}
	}
	fn(session)
	return s.Sessions.Put(ctx, session)
}

// Instructions serves the voice script. Idempotent.
func (s *DefaultCallService) Instructions(ctx context.Context, callID string) (string, error) {
	session, err := s.Sessions.Get(ctx, callID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", &NotFoundError{CallID: callID}
	}
	return instructionsTwiML(s.ServerHost, callID), nil
}

// Audio serves cached audio, synthesizing from the session's message when
// pre-generation has not landed yet.
func (s *DefaultCallService) Audio(ctx context.Context, callID string) ([]byte, error) {
	session, err := s.Sessions.Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &NotFoundError{CallID: callID}
	}
	if len(session.Audio) > 0 {
		return session.Audio, nil
	}

	utils.GetLogger().Debug("audio cache miss, synthesizing on demand", zap.String("callId", callID))
	audio, err := s.Synth.Synthesize(ctx, session.Message)
	if err != nil {
		return nil, err
	}
	if uerr := s.updateSession(ctx, callID, func(session *models.CallSession) {
		session.Audio = audio
	}); uerr != nil {
		utils.GetLogger().Warn("failed to cache on-demand audio",
			zap.String("callId", callID), zap.Error(uerr))
	}
	return audio, nil
}

// HandleResponse maps the gathered digits to a patient response, stores it
// on the session and returns the closing script.
func (s *DefaultCallService) HandleResponse(ctx context.Context, callID string, digits string) (string, error) {
	var response string
	switch digits {
	case "1":
		response = models.ResponseConfirmed
	case "2":
		response = models.ResponseReschedule
	default:
		response = models.ResponseUnknown
	}

	if err := s.updateSession(ctx, callID, func(session *models.CallSession) {
		session.PatientResponse = response
	}); err != nil {
		return "", err
	}

	utils.GetLogger().Info("patient response recorded",
		zap.String("callId", callID), zap.String("response", response))
	return responseTwiML(response), nil
}

// CancelCall is a best-effort termination request; it may race an outcome
// the tracker already committed, in which case last write wins.
func (s *DefaultCallService) CancelCall(ctx context.Context, callSID string) error {
	if err := s.Telephony.CancelCall(ctx, callSID); err != nil {
		if errors.Is(err, telephony.ErrCallNotFound) {
			return &NotFoundError{CallID: callSID}
		}
		return &ProviderError{Err: err}
	}
	utils.GetLogger().Info("call canceled", zap.String("callSid", callSID))
	return nil
}
