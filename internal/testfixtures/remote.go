package testfixtures

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/example/attendance-client/internal/application"
)

// RecordedRequest captures one request received by RemoteServer.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          map[string]any
}

type remoteAccount struct {
	profile  application.UserProfile
	password string
}

type remoteFailure struct {
	status int
	detail string
}

// RemoteServer is a scripted in-memory attendance service served over
// httptest. Paths are served under /api.
type RemoteServer struct {
	mu        sync.Mutex
	server    *httptest.Server
	clock     *Clock
	accounts  map[string]*remoteAccount
	tokens    map[string]string
	records   []application.AttendanceRecord
	checkIn   application.CheckInOutcome
	failures  map[string]remoteFailure
	requests  []RecordedRequest
	nextID    int64
	nextToken int
}

// NewRemoteServer starts a RemoteServer that is closed when tb finishes. The
// default check-in outcome is PRESENT with no late request offered.
func NewRemoteServer(tb testing.TB) *RemoteServer {
	tb.Helper()
	distance := 12.0
	s := &RemoteServer{
		clock:    NewClock(ReferenceTime()),
		accounts: make(map[string]*remoteAccount),
		tokens:   make(map[string]string),
		failures: make(map[string]remoteFailure),
		checkIn: application.CheckInOutcome{
			Status:           application.StatusPresent,
			Message:          "Checked in successfully",
			DistanceFromHome: &distance,
			CheckInEnabled:   true,
		},
		nextID: 1000,
	}
	s.server = httptest.NewServer(s.routes())
	tb.Cleanup(s.server.Close)
	return s
}

// URL returns the base URL clients should be configured with.
func (s *RemoteServer) URL() string {
	return s.server.URL + "/api"
}

// Clock returns the clock used for record timestamps.
func (s *RemoteServer) Clock() *Clock {
	return s.clock
}

// AddUser registers an account and returns a token already valid for it.
func (s *RemoteServer) AddUser(profile application.UserProfile, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[profile.OfficeID] = &remoteAccount{profile: profile, password: password}
	return s.issueTokenLocked(profile.OfficeID)
}

// AddRecord stores an attendance record.
func (s *RemoteServer) AddRecord(record application.AttendanceRecord) {
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
}

// SetCheckInOutcome scripts the response of the next check-ins.
func (s *RemoteServer) SetCheckInOutcome(outcome application.CheckInOutcome) {
	s.mu.Lock()
	s.checkIn = outcome
	s.mu.Unlock()
}

// Fail makes endpoint (for example "/attendance/history") answer with status
// and detail until ClearFailures is called. An empty detail sends no body.
func (s *RemoteServer) Fail(endpoint string, status int, detail string) {
	s.mu.Lock()
	s.failures[endpoint] = remoteFailure{status: status, detail: detail}
	s.mu.Unlock()
}

// ClearFailures removes every scripted failure.
func (s *RemoteServer) ClearFailures() {
	s.mu.Lock()
	s.failures = make(map[string]remoteFailure)
	s.mu.Unlock()
}

// Requests returns every request received so far.
func (s *RemoteServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestsTo returns the requests received for endpoint.
func (s *RemoteServer) RequestsTo(endpoint string) []RecordedRequest {
	var matched []RecordedRequest
	for _, req := range s.Requests() {
		if req.Path == endpoint {
			matched = append(matched, req)
		}
	}
	return matched
}

// Records returns a copy of the stored records ordered newest first.
func (s *RemoteServer) Records() []application.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(func(application.AttendanceRecord) bool { return true })
}

func (s *RemoteServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("GET /api/auth/me", s.authenticated(s.handleMe))
	mux.HandleFunc("GET /api/auth/users", s.authenticated(s.requireRole(s.handleUsers, application.RoleAdmin)))
	mux.HandleFunc("POST /api/attendance/check-in", s.authenticated(s.handleCheckIn))
	mux.HandleFunc("POST /api/attendance/late-check-in-request", s.authenticated(s.handleLateRequest))
	mux.HandleFunc("GET /api/attendance/history", s.authenticated(s.handleHistory))
	mux.HandleFunc("GET /api/attendance/pending-approvals", s.authenticated(s.requireRole(s.handlePending, application.RoleTeamLead, application.RoleAdmin)))
	mux.HandleFunc("POST /api/attendance/approve-request", s.authenticated(s.requireRole(s.handleDecide, application.RoleTeamLead, application.RoleAdmin)))
	return s.record(mux)
}

type remoteHandler func(w http.ResponseWriter, r *http.Request, body map[string]any, caller application.UserProfile)

func (s *RemoteServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if len(bytes.TrimSpace(raw)) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
		endpoint := strings.TrimPrefix(r.URL.Path, "/api")

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          endpoint,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          body,
		})
		failure, failing := s.failures[endpoint]
		s.mu.Unlock()

		if failing {
			if failure.detail == "" {
				w.WriteHeader(failure.status)
				return
			}
			writeDetail(w, failure.status, failure.detail)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(raw))
		next.ServeHTTP(w, r)
	})
}

func (s *RemoteServer) authenticated(next remoteHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		officeID, ok := s.tokens[token]
		var caller application.UserProfile
		if ok {
			caller = s.accounts[officeID].profile
		}
		s.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		next(w, r, body, caller)
	}
}

func (s *RemoteServer) requireRole(next remoteHandler, roles ...application.Role) remoteHandler {
	return func(w http.ResponseWriter, r *http.Request, body map[string]any, caller application.UserProfile) {
		for _, role := range roles {
			if caller.Role == role {
				next(w, r, body, caller)
				return
			}
		}
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
	}
}

func (s *RemoteServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OfficeID string `json:"office_id"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	account, ok := s.accounts[req.OfficeID]
	if !ok || account.password != req.Password {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Incorrect office ID or password")
		return
	}
	token := s.issueTokenLocked(req.OfficeID)
	profile := account.profile
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user_id":      profile.ID,
		"office_id":    profile.OfficeID,
		"role":         profile.Role,
	})
}

func (s *RemoteServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OfficeID  string  `json:"office_id"`
		Password  string  `json:"password"`
		Email     *string `json:"email"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	if _, exists := s.accounts[req.OfficeID]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Office ID already registered")
		return
	}
	s.nextID++
	lat, lng := req.Latitude, req.Longitude
	profile := application.UserProfile{
		ID:             s.nextID,
		OfficeID:       req.OfficeID,
		Email:          req.Email,
		Role:           application.RoleEmployee,
		HomeLatitude:   &lat,
		HomeLongitude:  &lng,
		AllowedRadiusM: 100,
	}
	s.accounts[req.OfficeID] = &remoteAccount{profile: profile, password: req.Password}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"message": "User registered successfully", "user_id": profile.ID, "office_id": profile.OfficeID})
}

func (s *RemoteServer) handleMe(w http.ResponseWriter, r *http.Request, _ map[string]any, caller application.UserProfile) {
	writeJSON(w, http.StatusOK, profileJSON(caller))
}

func (s *RemoteServer) handleUsers(w http.ResponseWriter, r *http.Request, _ map[string]any, _ application.UserProfile) {
	s.mu.Lock()
	profiles := make([]application.UserProfile, 0, len(s.accounts))
	for _, account := range s.accounts {
		profiles = append(profiles, account.profile)
	}
	s.mu.Unlock()
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })

	payload := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		payload = append(payload, profileJSON(p))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *RemoteServer) handleCheckIn(w http.ResponseWriter, r *http.Request, body map[string]any, caller application.UserProfile) {
	s.mu.Lock()
	outcome := s.checkIn
	s.nextID++
	record := application.AttendanceRecord{
		ID:               s.nextID,
		UserID:           caller.ID,
		Status:           outcome.Status,
		Latitude:         floatField(body, "latitude"),
		Longitude:        floatField(body, "longitude"),
		DistanceFromHome: outcome.DistanceFromHome,
		CreatedAt:        s.clock.Now(),
	}
	s.records = append(s.records, record)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":              outcome.Status,
		"message":             outcome.Message,
		"distance_from_home":  outcome.DistanceFromHome,
		"check_in_enabled":    outcome.CheckInEnabled,
		"can_request_present": outcome.CanRequestPresent,
	})
}

func (s *RemoteServer) handleLateRequest(w http.ResponseWriter, r *http.Request, body map[string]any, caller application.UserProfile) {
	reason, _ := body["reason"].(string)
	if strings.TrimSpace(reason) == "" {
		writeDetail(w, http.StatusBadRequest, "Reason is required")
		return
	}

	s.mu.Lock()
	idx := -1
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID == caller.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.nextID++
		s.records = append(s.records, application.AttendanceRecord{ID: s.nextID, UserID: caller.ID, CreatedAt: s.clock.Now()})
		idx = len(s.records) - 1
	}
	record := &s.records[idx]
	record.Status = application.StatusPending
	record.IsLateRequest = true
	record.LateRequestReason = &reason
	record.Latitude = floatField(body, "latitude")
	record.Longitude = floatField(body, "longitude")
	id := record.ID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"message": "Late check-in request submitted", "request_id": id, "status": application.StatusPending})
}

func (s *RemoteServer) handleHistory(w http.ResponseWriter, r *http.Request, _ map[string]any, caller application.UserProfile) {
	s.mu.Lock()
	records := s.sortedLocked(func(rec application.AttendanceRecord) bool { return rec.UserID == caller.ID })
	s.mu.Unlock()
	writeRecords(w, records)
}

func (s *RemoteServer) handlePending(w http.ResponseWriter, r *http.Request, _ map[string]any, _ application.UserProfile) {
	s.mu.Lock()
	records := s.sortedLocked(application.AttendanceRecord.IsPendingApproval)
	s.mu.Unlock()
	writeRecords(w, records)
}

func (s *RemoteServer) handleDecide(w http.ResponseWriter, r *http.Request, body map[string]any, caller application.UserProfile) {
	id, _ := body["attendance_id"].(float64)
	approve, _ := body["approve"].(bool)

	s.mu.Lock()
	var decided *application.AttendanceRecord
	for i := range s.records {
		if s.records[i].ID == int64(id) && s.records[i].IsPendingApproval() {
			decided = &s.records[i]
			break
		}
	}
	if decided == nil {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Pending request not found")
		return
	}
	decided.Status = application.StatusAbsent
	if approve {
		decided.Status = application.StatusPresent
	}
	approver := caller.ID
	approvedAt := s.clock.Now()
	decided.ApprovedBy = &approver
	decided.ApprovedAt = &approvedAt
	status := decided.Status
	s.mu.Unlock()

	message := "Request rejected"
	if approve {
		message = "Request approved"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": message, "attendance_id": int64(id), "status": status})
}

func (s *RemoteServer) issueTokenLocked(officeID string) string {
	s.nextToken++
	token := "token-" + officeID + "-" + strconv.Itoa(s.nextToken)
	s.tokens[token] = officeID
	return token
}

func (s *RemoteServer) sortedLocked(keep func(application.AttendanceRecord) bool) []application.AttendanceRecord {
	records := make([]application.AttendanceRecord, 0, len(s.records))
	for _, rec := range s.records {
		if keep(rec) {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	return records
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeRecords(w http.ResponseWriter, records []application.AttendanceRecord) {
	payload := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		item := map[string]any{
			"id":                  rec.ID,
			"user_id":             rec.UserID,
			"status":              rec.Status,
			"latitude":            rec.Latitude,
			"longitude":           rec.Longitude,
			"distance_from_home":  rec.DistanceFromHome,
			"is_late_request":     rec.IsLateRequest,
			"late_request_reason": rec.LateRequestReason,
			"approved_by":         rec.ApprovedBy,
			"approved_at":         nil,
			"created_at":          rec.CreatedAt.UTC().Format("2006-01-02T15:04:05.999999"),
		}
		if rec.ApprovedAt != nil {
			item["approved_at"] = rec.ApprovedAt.UTC().Format("2006-01-02T15:04:05.999999")
		}
		payload = append(payload, item)
	}
	writeJSON(w, http.StatusOK, payload)
}

func profileJSON(p application.UserProfile) map[string]any {
	return map[string]any{
		"id":               p.ID,
		"office_id":        p.OfficeID,
		"email":            p.Email,
		"role":             p.Role,
		"home_latitude":    p.HomeLatitude,
		"home_longitude":   p.HomeLongitude,
		"allowed_radius_m": p.AllowedRadiusM,
	}
}

func floatField(body map[string]any, key string) *float64 {
	v, ok := body[key].(float64)
	if !ok {
		return nil
	}
	return &v
}
