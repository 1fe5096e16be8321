package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/attendance-client/internal/application"
)

type loginRequest struct {
	OfficeID string `json:"office_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	OfficeID    string `json:"office_id"`
	Role        string `json:"role"`
}

type registerRequest struct {
	OfficeID  string  `json:"office_id"`
	Password  string  `json:"password"`
	Email     *string `json:"email,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type userResponse struct {
	ID             int64    `json:"id"`
	OfficeID       string   `json:"office_id"`
	Email          *string  `json:"email"`
	Role           string   `json:"role"`
	HomeLatitude   *float64 `json:"home_latitude"`
	HomeLongitude  *float64 `json:"home_longitude"`
	AllowedRadiusM int      `json:"allowed_radius_m"`
}

func (u userResponse) toProfile() application.UserProfile {
	return application.UserProfile{
		ID:             u.ID,
		OfficeID:       u.OfficeID,
		Email:          u.Email,
		Role:           application.Role(u.Role),
		HomeLatitude:   u.HomeLatitude,
		HomeLongitude:  u.HomeLongitude,
		AllowedRadiusM: u.AllowedRadiusM,
	}
}

type checkInRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type checkInResponse struct {
	Status            string   `json:"status"`
	Message           string   `json:"message"`
	DistanceFromHome  *float64 `json:"distance_from_home"`
	CheckInEnabled    bool     `json:"check_in_enabled"`
	CanRequestPresent bool     `json:"can_request_present"`
}

type lateRequestRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Reason    string  `json:"reason"`
}

type lateRequestResponse struct {
	Message   string `json:"message"`
	RequestID int64  `json:"request_id"`
	Status    string `json:"status"`
}

type attendanceResponse struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	Status            string     `json:"status"`
	Latitude          *float64   `json:"latitude"`
	Longitude         *float64   `json:"longitude"`
	DistanceFromHome  *float64   `json:"distance_from_home"`
	IsLateRequest     bool       `json:"is_late_request"`
	LateRequestReason *string    `json:"late_request_reason"`
	ApprovedBy        *int64     `json:"approved_by"`
	ApprovedAt        *timestamp `json:"approved_at"`
	CreatedAt         timestamp  `json:"created_at"`
}

func (a attendanceResponse) toRecord() application.AttendanceRecord {
	record := application.AttendanceRecord{
		ID:                a.ID,
		UserID:            a.UserID,
		Status:            application.AttendanceStatus(a.Status),
		Latitude:          a.Latitude,
		Longitude:         a.Longitude,
		DistanceFromHome:  a.DistanceFromHome,
		IsLateRequest:     a.IsLateRequest,
		LateRequestReason: a.LateRequestReason,
		ApprovedBy:        a.ApprovedBy,
		CreatedAt:         a.CreatedAt.Time,
	}
	if a.ApprovedAt != nil && !a.ApprovedAt.IsZero() {
		approvedAt := a.ApprovedAt.Time
		record.ApprovedAt = &approvedAt
	}
	return record
}

type approvalRequest struct {
	AttendanceID int64   `json:"attendance_id"`
	Approve      bool    `json:"approve"`
	Comment      *string `json:"comment,omitempty"`
}

type approvalResponse struct {
	Message      string `json:"message"`
	AttendanceID int64  `json:"attendance_id"`
	Status       string `json:"status"`
}

// timestampLayouts lists the formats the service is known to emit. Naive
// timestamps are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("api: unrecognised timestamp %q", raw)
}
