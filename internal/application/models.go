package application

import (
	"fmt"
	"math"
	"time"
)

// Role identifies the privileges granted to a user profile.
type Role string

const (
	// RoleEmployee may check in and review their own history.
	RoleEmployee Role = "employee"
	// RoleTeamLead may additionally decide pending late requests.
	RoleTeamLead Role = "team_lead"
	// RoleAdmin may additionally browse the employee directory.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one the client understands.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleTeamLead, RoleAdmin:
		return true
	}
	return false
}

// UserProfile is the read-only snapshot returned by the identity endpoint.
type UserProfile struct {
	ID             int64
	OfficeID       string
	Email          *string
	Role           Role
	HomeLatitude   *float64
	HomeLongitude  *float64
	AllowedRadiusM int
}

// HasHomeLocation reports whether a home coordinate is registered.
func (p UserProfile) HasHomeLocation() bool {
	return p.HomeLatitude != nil && p.HomeLongitude != nil
}

// AttendanceStatus is the state the attendance service assigns to a record.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusLate    AttendanceStatus = "LATE"
	StatusAbsent  AttendanceStatus = "ABSENT"
	StatusPending AttendanceStatus = "PENDING"
)

// AttendanceRecord is an entry produced by the attendance service.
type AttendanceRecord struct {
	ID                int64
	UserID            int64
	Status            AttendanceStatus
	Latitude          *float64
	Longitude         *float64
	DistanceFromHome  *float64
	IsLateRequest     bool
	LateRequestReason *string
	ApprovedBy        *int64
	ApprovedAt        *time.Time
	CreatedAt         time.Time
}

// IsPendingApproval reports whether the record awaits a team lead decision.
func (r AttendanceRecord) IsPendingApproval() bool {
	return r.Status == StatusPending && r.LateRequestReason != nil
}

// CheckInOutcome is the immediate result of a check-in attempt.
type CheckInOutcome struct {
	Status            AttendanceStatus
	Message           string
	DistanceFromHome  *float64
	CheckInEnabled    bool
	CanRequestPresent bool
}

// Coordinate is a transient location sample.
type Coordinate struct {
	Lat float64
	Lng float64
}

// String renders the coordinate with four decimals.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)
}

// LateRequest carries the evidence submitted for a late or out-of-range check-in.
type LateRequest struct {
	Location Coordinate
	Reason   string
}

// LateRequestReceipt acknowledges a submitted late request.
type LateRequestReceipt struct {
	Message   string
	RequestID int64
	Status    AttendanceStatus
}

// ApprovalDecision is the payload for approving or rejecting a pending request.
type ApprovalDecision struct {
	AttendanceID int64
	Approve      bool
	Comment      *string
}

// ApprovalReceipt acknowledges an approval decision.
type ApprovalReceipt struct {
	Message      string
	AttendanceID int64
	Status       AttendanceStatus
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	UserID      int64
	OfficeID    string
	Role        Role
}

// Registration carries the fields required to create an account.
type Registration struct {
	OfficeID string
	Password string
	Email    string
	Location Coordinate
}

// DirectoryEntry is a user profile as listed in the employee directory.
type DirectoryEntry struct {
	Profile     UserProfile
	LocationSet bool
}

// FormatDistance renders a distance in whole meters, or "Unknown" when absent.
func FormatDistance(distance *float64) string {
	if distance == nil {
		return "Unknown"
	}
	return fmt.Sprintf("%.0fm", math.Round(*distance))
}
