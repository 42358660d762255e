package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/toolstash/toolstash-backend/pkg/types"
)

func TestPrivacyGateSuppressesOptedOutRequests(t *testing.T) {
	reached := false
	handler := PrivacyGate(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/analytics/events", nil)
	r.Header.Set("Sec-GPC", "1")
	handler.ServeHTTP(w, r)

	if reached {
		t.Fatal("opted-out request must not reach the handler")
	}
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	data := body.Data.(map[string]any)
	if data["count"] != float64(0) {
		t.Fatalf("expected count 0, got %v", data["count"])
	}
}

func TestPrivacyGatePassesNormalTraffic(t *testing.T) {
	reached := false
	handler := PrivacyGate(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/analytics/events", nil)
	r.Header.Set("DNT", "0")
	handler.ServeHTTP(w, r)

	if !reached {
		t.Fatal("request without opt-out must pass through")
	}
}
