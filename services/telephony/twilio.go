package telephony

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"asignaciones/models"

	twilio "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioProvider implements Provider against the Twilio voice API.
type TwilioProvider struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioProvider builds a provider using account credentials.
func NewTwilioProvider(accountSID, authToken, fromNumber string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioProvider{client: client, from: fromNumber}
}

// PlaceCall requests the outbound call with answering-machine detection and
// both callback URLs wired in.
func (p *TwilioProvider) PlaceCall(ctx context.Context, params CallParams) (string, error) {
	from := params.From
	if from == "" {
		from = p.from
	}

	create := &openapi.CreateCallParams{}
	create.SetTo(params.To)
	create.SetFrom(from)
	create.SetUrl(params.InstructionsURL)
	create.SetStatusCallback(params.StatusCallbackURL)
	create.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	create.SetMachineDetection("Enable")
	if params.TimeoutSeconds > 0 {
		create.SetTimeout(params.TimeoutSeconds)
	}

	call, err := p.client.Api.CreateCall(create)
	if err != nil {
		return "", fmt.Errorf("twilio call placement failed: %w", err)
	}
	if call.Sid == nil {
		return "", fmt.Errorf("twilio call placement returned no sid")
	}
	return *call.Sid, nil
}

// CallOutcome fetches the call and maps its status.
func (p *TwilioProvider) CallOutcome(ctx context.Context, callSID string) (models.Outcome, string, error) {
	call, err := p.client.Api.FetchCall(callSID, &openapi.FetchCallParams{})
	if err != nil {
		if isNotFound(err) {
			return models.OutcomePending, "", ErrCallNotFound
		}
		return models.OutcomePending, "", fmt.Errorf("twilio status query failed: %w", err)
	}

	status := ""
	if call.Status != nil {
		status = *call.Status
	}
	return MapStatus(status), status, nil
}

// CancelCall flips the call to canceled at the provider.
func (p *TwilioProvider) CancelCall(ctx context.Context, callSID string) error {
	update := &openapi.UpdateCallParams{}
	update.SetStatus("canceled")

	if _, err := p.client.Api.UpdateCall(callSID, update); err != nil {
		if isNotFound(err) {
			return ErrCallNotFound
		}
		return fmt.Errorf("twilio call cancel failed: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var restErr *twilioclient.TwilioRestError
	return errors.As(err, &restErr) && restErr.Status == http.StatusNotFound
}
