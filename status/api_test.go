package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/streamforge-labs/streamforge-go/internal/coordinator"
)

type stubLister struct {
	outcome coordinator.Outcome
}

func (s stubLister) ListRunningJobs(ctx context.Context) coordinator.Outcome {
	return s.outcome
}

func newTestServer(outcome coordinator.Outcome) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	newStatusAPI(logger, stubLister{outcome: outcome}).register(mux)
	return httptest.NewServer(mux)
}

func TestHandleRunningJobs_Success(t *testing.T) {
	jobID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	srv := newTestServer(coordinator.Outcome{
		Kind: coordinator.OutcomeSuccess,
		Jobs: []coordinator.JobStatusRecord{
			{JobID: jobID, JobName: "wordcount", State: "RUNNING", StateTimestampMillis: 123},
		},
	})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/jobs")
	if err != nil {
		t.Fatalf("GET /jobs: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type=%q, want application/json", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	var parsed []map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body is not valid JSON: %v\n%s", err, body)
	}
	if len(parsed) != 1 || parsed[0]["jobid"] != jobID.String() {
		t.Fatalf("body=%s", body)
	}
}

func TestHandleRunningJobs_EmptySuccess(t *testing.T) {
	srv := newTestServer(coordinator.Outcome{Kind: coordinator.OutcomeSuccess})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/jobs")
	if err != nil {
		t.Fatalf("GET /jobs: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("status=%d body=%q, want 200 []", resp.StatusCode, body)
	}
}

func TestHandleRunningJobs_FailureIsBadRequest(t *testing.T) {
	for _, kind := range []coordinator.OutcomeKind{
		coordinator.OutcomeTimeout,
		coordinator.OutcomeMalformed,
		coordinator.OutcomeUnreachable,
	} {
		srv := newTestServer(coordinator.Outcome{Kind: kind, Message: "could not retrieve the running jobs"})

		resp, err := http.Get(srv.URL + "/jobs")
		if err != nil {
			t.Fatalf("GET /jobs: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		srv.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("outcome %s: status=%d, want 400", kind, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Fatalf("outcome %s: Content-Type=%q, want text/plain", kind, ct)
		}
		if !strings.Contains(string(body), "could not retrieve the running jobs") {
			t.Fatalf("outcome %s: body=%q, want failure reason", kind, body)
		}
	}
}
