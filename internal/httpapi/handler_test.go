package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/k333333v-jpg/martinez-walker-checkin/internal/models"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/queue"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/sheets"
)

type captureRemote struct {
	mu          sync.Mutex
	clients     []sheets.ClientRow
	assignments []sheets.AssignmentRow
	appended    chan struct{}
}

func newCaptureRemote() *captureRemote {
	return &captureRemote{appended: make(chan struct{}, 16)}
}

func (r *captureRemote) AppendClientRow(ctx context.Context, row sheets.ClientRow) error {
	r.mu.Lock()
	r.clients = append(r.clients, row)
	r.mu.Unlock()
	r.appended <- struct{}{}
	return nil
}

func (r *captureRemote) AppendAssignmentRow(ctx context.Context, row sheets.AssignmentRow) error {
	r.mu.Lock()
	r.assignments = append(r.assignments, row)
	r.mu.Unlock()
	r.appended <- struct{}{}
	return nil
}

func (r *captureRemote) waitAppend(t *testing.T) {
	t.Helper()
	select {
	case <-r.appended:
	case <-time.After(2 * time.Second):
		t.Fatal("remote append never happened")
	}
}

func newTestHandler(t *testing.T) (*Handler, *captureRemote) {
	t.Helper()
	qs := queue.New(queue.Options{Preparers: []string{"Ingrid", "Kevin", "Ruben"}})
	remote := newCaptureRemote()
	return NewHandler(qs, sheets.NewForwarder(remote, time.Second)), remote
}

func doJSON(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	h.Routes().ServeHTTP(recorder, req)
	return recorder
}

func TestCheckInSuccess(t *testing.T) {
	h, remote := newTestHandler(t)

	resp := doJSON(t, h, http.MethodPost, "/api/checkins", `{"name":"Alice","phone":"555-1111","email":"a@x.com","filing_status":"Individual"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body.String())
	}

	var receipt checkInResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if receipt.TicketNumber != "MWQ-001" || receipt.Position != 1 {
		t.Fatalf("receipt=%+v, want MWQ-001 at position 1", receipt)
	}
	if receipt.EstimatedWaitMinutes != 15 {
		t.Fatalf("estimated_wait_minutes=%d, want 15", receipt.EstimatedWaitMinutes)
	}

	remote.waitAppend(t)
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if len(remote.clients) != 1 || remote.clients[0].Name != "Alice" {
		t.Fatalf("forwarded rows=%v, want Alice's check-in", remote.clients)
	}
}

func TestCheckInValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"phone":"555","email":"a@x.com","filing_status":"Individual"}`},
		{"missing phone", `{"name":"Alice","email":"a@x.com","filing_status":"Individual"}`},
		{"bad filing status", `{"name":"Alice","phone":"555","email":"a@x.com","filing_status":"Corporate"}`},
		{"invalid json", `{`},
		{"unknown field", `{"name":"Alice","phone":"555","email":"a@x.com","filing_status":"Individual","extra":1}`},
	}
	for _, tt := range cases {
		resp := doJSON(t, h, http.MethodPost, "/api/checkins", tt.body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d, want 400", tt.name, resp.Code)
		}
	}
}

func TestAssignNextAndComplete(t *testing.T) {
	h, remote := newTestHandler(t)

	doJSON(t, h, http.MethodPost, "/api/checkins", `{"name":"Alice","phone":"555","email":"a@x.com","filing_status":"Individual"}`)
	doJSON(t, h, http.MethodPost, "/api/checkins", `{"name":"Bob","phone":"556","email":"b@x.com","filing_status":"Business"}`)
	remote.waitAppend(t)
	remote.waitAppend(t)

	resp := doJSON(t, h, http.MethodPost, "/api/assignments/actions/assign-next", `{"preparer_id":"Ingrid"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("assign status=%d body=%s", resp.Code, resp.Body.String())
	}
	var action actionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &action); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !action.Applied || action.Client == nil || action.Client.Name != "Alice" {
		t.Fatalf("assign response=%+v, want Alice applied", action)
	}

	// Second attempt while Ingrid is busy is reported as not applied.
	resp = doJSON(t, h, http.MethodPost, "/api/assignments/actions/assign-next", `{"preparer_id":"Ingrid"}`)
	if err := json.Unmarshal(resp.Body.Bytes(), &action); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if action.Applied {
		t.Fatal("occupied preparer must not be reassigned")
	}

	resp = doJSON(t, h, http.MethodPost, "/api/assignments/actions/complete", `{"preparer_id":"Ingrid","status":"completed"}`)
	if err := json.Unmarshal(resp.Body.Bytes(), &action); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !action.Applied || action.Client.CompletionStatus != models.CompletionCompleted {
		t.Fatalf("complete response=%+v, want Alice completed", action)
	}

	remote.waitAppend(t)
	remote.mu.Lock()
	rows := len(remote.assignments)
	remote.mu.Unlock()
	if rows != 1 {
		t.Fatalf("assignment rows=%d, want 1", rows)
	}

	// Completing an idle preparer is a no-op.
	resp = doJSON(t, h, http.MethodPost, "/api/assignments/actions/complete", `{"preparer_id":"Ingrid"}`)
	if err := json.Unmarshal(resp.Body.Bytes(), &action); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if action.Applied {
		t.Fatal("idle preparer completion must not apply")
	}
}

func TestActionValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := doJSON(t, h, http.MethodPost, "/api/assignments/actions/assign-next", `{"preparer_id":""}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("empty preparer status=%d, want 400", resp.Code)
	}
	resp = doJSON(t, h, http.MethodPost, "/api/assignments/actions/assign-next", `{"preparer_id":"Mallory"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown preparer status=%d, want 404", resp.Code)
	}
	resp = doJSON(t, h, http.MethodPost, "/api/assignments/actions/complete", `{"preparer_id":"Ingrid","status":"abandoned"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad status=%d, want 400", resp.Code)
	}
}

func TestProjections(t *testing.T) {
	h, _ := newTestHandler(t)

	doJSON(t, h, http.MethodPost, "/api/checkins", `{"name":"Alice","phone":"555","email":"a@x.com","filing_status":"Individual"}`)
	doJSON(t, h, http.MethodPost, "/api/checkins", `{"name":"Bob","phone":"556","email":"b@x.com","filing_status":"Other"}`)
	doJSON(t, h, http.MethodPost, "/api/assignments/actions/assign-next", `{"preparer_id":"Kevin"}`)

	resp := doJSON(t, h, http.MethodGet, "/api/queue", "")
	var waiting []models.ClientRecord
	if err := json.Unmarshal(resp.Body.Bytes(), &waiting); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(waiting) != 1 || waiting[0].Name != "Bob" {
		t.Fatalf("waiting=%v, want Bob", waiting)
	}

	resp = doJSON(t, h, http.MethodGet, "/api/serving", "")
	var serving []models.ClientRecord
	if err := json.Unmarshal(resp.Body.Bytes(), &serving); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(serving) != 1 || serving[0].AssignedPreparer != "Kevin" {
		t.Fatalf("serving=%v, want Alice under Kevin", serving)
	}

	resp = doJSON(t, h, http.MethodGet, "/api/preparers", "")
	var preparers []preparerView
	if err := json.Unmarshal(resp.Body.Bytes(), &preparers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(preparers) != 3 {
		t.Fatalf("preparers=%d, want the full roster", len(preparers))
	}
	for _, p := range preparers {
		busy := p.Name == "Kevin"
		if busy != (p.Serving != nil) {
			t.Fatalf("preparer %s serving=%v", p.Name, p.Serving)
		}
	}

	resp = doJSON(t, h, http.MethodGet, "/api/queue/snapshot", "")
	var snapshot queue.QueueState
	if err := json.Unmarshal(resp.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snapshot.Clients) != 2 || snapshot.NextTicketSeq != 3 {
		t.Fatalf("snapshot=%+v, want two clients and seq 3", snapshot)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)
	if resp := doJSON(t, h, http.MethodGet, "/api/checkins", ""); resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET checkins status=%d, want 405", resp.Code)
	}
	if resp := doJSON(t, h, http.MethodPost, "/api/queue", `{}`); resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST queue status=%d, want 405", resp.Code)
	}
	if resp := doJSON(t, h, http.MethodPost, "/healthz", `{}`); resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST healthz status=%d, want 405", resp.Code)
	}
}
