package loki

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *PushRequest) {
	t.Helper()
	got := &PushRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestPushEventJSON_ExtractsLabelsAndTimestamp(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	raw := []byte(`{"eventType":"code_requested","source":"verification","channel":"email","createdAt":"2026-03-01T10:00:00Z"}`)
	if err := PushEventJSON(context.Background(), srv.Client(), srv.URL+"/", raw); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d", len(got.Streams))
	}
	s := got.Streams[0]
	want := map[string]string{"job": Job, "event_type": "code_requested", "source": "verification", "channel": "email"}
	for k, v := range want {
		if s.Stream[k] != v {
			t.Errorf("label %s = %q, want %q", k, s.Stream[k], v)
		}
	}
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixNano()
	if len(s.Values) != 1 || s.Values[0][0] != jsonNumber(ts) || s.Values[0][1] != string(raw) {
		t.Errorf("values = %v", s.Values)
	}
}

func TestPushEvent_SanitizesLabelsAndKeepsJob(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	labels := map[string]string{"job": "other", "source": "a b/c", "empty": "  "}
	if err := PushEvent(context.Background(), srv.Client(), srv.URL, time.Now(), "line", labels); err != nil {
		t.Fatalf("PushEvent: %v", err)
	}
	s := got.Streams[0].Stream
	if s["job"] != Job {
		t.Errorf("job = %q", s["job"])
	}
	if s["source"] != "a_b_c" {
		t.Errorf("source = %q", s["source"])
	}
	if _, ok := s["empty"]; ok {
		t.Error("blank label should be dropped")
	}
}

func TestPushEvent_Errors(t *testing.T) {
	if err := PushEvent(context.Background(), nil, "", time.Now(), "x", nil); err == nil {
		t.Error("expected error for empty base URL")
	}
	srv, _ := captureServer(t, http.StatusBadRequest)
	if err := PushEvent(context.Background(), srv.Client(), srv.URL, time.Now(), "x", nil); err == nil {
		t.Error("expected error for non-2xx")
	}
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
