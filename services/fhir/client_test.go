package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func newFHIRTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.Form.Get("grant_type") != "password" {
			http.Error(w, "unsupported grant", http.StatusBadRequest)
			return
		}
		if r.Form.Get("username") != "bot" || r.Form.Get("password") != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   300,
		})
	})

	mux.HandleFunc("/Patient/pat-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Patient{
			ResourceType: "Patient",
			ID:           "pat-1",
			Name:         []HumanName{{Given: []string{"María"}, Family: "González"}},
		})
	})

	mux.HandleFunc("/Appointment", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Bundle{
			ResourceType: "Bundle",
			Total:        1,
			Entry:        []BundleEntry{{Resource: Appointment{ResourceType: "Appointment", ID: "appt-1"}}},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server, username, password string) *Client {
	return NewClient(ClientConfig{
		AuthURL:      server.URL + "/token",
		BaseURL:      server.URL,
		ClientID:     "asignaciones",
		ClientSecret: "client-secret",
		Username:     username,
		Password:     password,
		HTTPClient:   server.Client(),
	})
}

func TestClientAuthenticateAndFetch(t *testing.T) {
	server := newFHIRTestServer(t)
	client := newTestClient(server, "bot", "secret")
	ctx := context.Background()

	if err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	patient, err := client.GetPatient(ctx, "pat-1")
	if err != nil {
		t.Fatalf("GetPatient failed: %v", err)
	}
	if patient.ID != "pat-1" || patient.Name[0].Family != "González" {
		t.Errorf("GetPatient = %+v, want pat-1 González", patient)
	}

	bundle, err := client.GetAppointments(ctx)
	if err != nil {
		t.Fatalf("GetAppointments failed: %v", err)
	}
	if bundle.Total != 1 || len(bundle.Entry) != 1 || bundle.Entry[0].Resource.ID != "appt-1" {
		t.Errorf("GetAppointments = %+v, want one appt-1 entry", bundle)
	}
}

func TestClientConcurrentAuthenticateAndFetch(t *testing.T) {
	server := newFHIRTestServer(t)
	client := newTestClient(server, "bot", "secret")
	ctx := context.Background()

	// Overlapping resolver batches share one client; each re-authenticates
	// before fetching, so the transport swap must be safe under -race.
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := client.Authenticate(ctx); err != nil {
				errs <- err
				return
			}
			if _, err := client.GetAppointments(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent cycle failed: %v", err)
	}
}

func TestClientAuthenticateBadCredentials(t *testing.T) {
	server := newFHIRTestServer(t)
	client := newTestClient(server, "bot", "wrong")

	err := client.Authenticate(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Authenticate error = %v, want AuthError", err)
	}
}

func TestClientFetchWithoutAuthenticate(t *testing.T) {
	server := newFHIRTestServer(t)
	client := newTestClient(server, "bot", "secret")

	_, err := client.GetPatient(context.Background(), "pat-1")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("GetPatient before Authenticate error = %v, want AuthError", err)
	}
}

func TestClientFetchServerError(t *testing.T) {
	server := newFHIRTestServer(t)
	client := newTestClient(server, "bot", "secret")
	ctx := context.Background()

	if err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if _, err := client.GetPatient(ctx, "missing"); err == nil {
		t.Error("GetPatient returned nil error for a 404 resource")
	}
}
