package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/k333333v-jpg/martinez-walker-checkin/internal/models"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/queue"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/sheets"
)

// Handler exposes the queue's dispatch surface over HTTP: the check-in,
// assign-next, and complete events plus the read-only projections. It is
// the only API between the core and any view.
type Handler struct {
	queue     *queue.Store
	forwarder *sheets.Forwarder
}

type checkInRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	FilingStatus string `json:"filing_status"`
}

type checkInResponse struct {
	models.ClientRecord
	EstimatedWaitMinutes int `json:"estimated_wait_minutes"`
}

type assignNextRequest struct {
	PreparerID string `json:"preparer_id"`
}

type completeRequest struct {
	PreparerID string `json:"preparer_id"`
	Status     string `json:"status"`
}

type actionResponse struct {
	Applied bool                 `json:"applied"`
	Client  *models.ClientRecord `json:"client,omitempty"`
}

type preparerView struct {
	Name    string               `json:"name"`
	Serving *models.ClientRecord `json:"serving,omitempty"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(qs *queue.Store, forwarder *sheets.Forwarder) *Handler {
	return &Handler{queue: qs, forwarder: forwarder}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/checkins", h.handleCheckIn)
	mux.HandleFunc("/api/assignments/actions/assign-next", h.handleAssignNext)
	mux.HandleFunc("/api/assignments/actions/complete", h.handleComplete)
	mux.HandleFunc("/api/queue", h.handleQueue)
	mux.HandleFunc("/api/queue/snapshot", h.handleSnapshot)
	mux.HandleFunc("/api/serving", h.handleServing)
	mux.HandleFunc("/api/served", h.handleServed)
	mux.HandleFunc("/api/preparers", h.handlePreparers)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req checkInRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.FilingStatus = strings.TrimSpace(req.FilingStatus)

	if req.FilingStatus != "" && !models.ValidFilingStatus(req.FilingStatus) {
		writeError(w, http.StatusBadRequest, "invalid_request", "filing_status must be one of "+strings.Join(models.FilingStatuses, ", "))
		return
	}

	record, err := h.queue.CheckIn(queue.CheckInInput{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		FilingStatus: req.FilingStatus,
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	h.forwarder.ForwardCheckIn(record)

	writeJSON(w, http.StatusOK, checkInResponse{
		ClientRecord:         record,
		EstimatedWaitMinutes: h.queue.EstimatedWaitMinutes(record.Position),
	})
}

func (h *Handler) handleAssignNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req assignNextRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.PreparerID = strings.TrimSpace(req.PreparerID)
	if req.PreparerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "preparer_id is required")
		return
	}
	if !h.knownPreparer(req.PreparerID) {
		writeError(w, http.StatusNotFound, "unknown_preparer", "preparer is not on the roster")
		return
	}

	record, ok := h.queue.AssignNext(req.PreparerID)
	if !ok {
		writeJSON(w, http.StatusOK, actionResponse{Applied: false})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Applied: true, Client: &record})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req completeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.PreparerID = strings.TrimSpace(req.PreparerID)
	req.Status = strings.TrimSpace(req.Status)
	if req.PreparerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "preparer_id is required")
		return
	}
	if req.Status == "" {
		req.Status = models.CompletionCompleted
	}
	if req.Status != models.CompletionCompleted && req.Status != models.CompletionPending {
		writeError(w, http.StatusBadRequest, "invalid_request", "status must be completed or pending")
		return
	}
	if !h.knownPreparer(req.PreparerID) {
		writeError(w, http.StatusNotFound, "unknown_preparer", "preparer is not on the roster")
		return
	}

	record, ok := h.queue.Complete(req.PreparerID, req.Status)
	if !ok {
		writeJSON(w, http.StatusOK, actionResponse{Applied: false})
		return
	}

	h.forwarder.ForwardCompletion(req.PreparerID, record, req.Status)

	writeJSON(w, http.StatusOK, actionResponse{Applied: true, Client: &record})
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.queue.Waiting())
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.queue.Snapshot())
}

func (h *Handler) handleServing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.queue.InService())
}

func (h *Handler) handleServed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.queue.ServedToday())
}

func (h *Handler) handlePreparers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	slots := h.queue.PreparerSlots()
	views := make([]preparerView, 0, len(h.queue.Preparers()))
	for _, name := range h.queue.Preparers() {
		view := preparerView{Name: name}
		if record, ok := slots[name]; ok {
			serving := record
			view.Serving = &serving
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) knownPreparer(preparerID string) bool {
	for _, name := range h.queue.Preparers() {
		if name == preparerID {
			return true
		}
	}
	return false
}

func mapError(err error) (int, string, string) {
	var validation *queue.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, "invalid_request", validation.Error()
	}
	return http.StatusInternalServerError, "internal_error", "internal error"
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}
