package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/attendance-client/internal/application"
)

var (
	profileCounter int64
	recordCounter  int64
)

var referenceTime = time.Date(2026, time.October, 16, 8, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Profile fixtures -----------------------------

// ProfileOption configures a generated profile.
type ProfileOption func(*application.UserProfile)

// NewProfile returns a deterministic employee profile with a registered home
// location and optional overrides.
func NewProfile(opts ...ProfileOption) application.UserProfile {
	idx := atomic.AddInt64(&profileCounter, 1)
	email := fmt.Sprintf("emp%03d@example.com", idx)
	lat, lng := 35.6812, 139.7671
	profile := application.UserProfile{
		ID:             idx,
		OfficeID:       fmt.Sprintf("EMP%03d", idx),
		Email:          &email,
		Role:           application.RoleEmployee,
		HomeLatitude:   &lat,
		HomeLongitude:  &lng,
		AllowedRadiusM: 100,
	}
	for _, opt := range opts {
		opt(&profile)
	}
	return profile
}

// WithProfileID overrides the numeric identifier.
func WithProfileID(id int64) ProfileOption {
	return func(p *application.UserProfile) { p.ID = id }
}

// WithOfficeID overrides the office identifier.
func WithOfficeID(officeID string) ProfileOption {
	return func(p *application.UserProfile) { p.OfficeID = officeID }
}

// WithRole overrides the role.
func WithRole(role application.Role) ProfileOption {
	return func(p *application.UserProfile) { p.Role = role }
}

// WithHome sets the registered home coordinate.
func WithHome(lat, lng float64) ProfileOption {
	return func(p *application.UserProfile) {
		p.HomeLatitude = &lat
		p.HomeLongitude = &lng
	}
}

// WithoutHome clears the registered home coordinate.
func WithoutHome() ProfileOption {
	return func(p *application.UserProfile) {
		p.HomeLatitude = nil
		p.HomeLongitude = nil
	}
}

// WithoutEmail clears the email address.
func WithoutEmail() ProfileOption {
	return func(p *application.UserProfile) { p.Email = nil }
}

// ----------------------------- Record fixtures -----------------------------

// RecordOption configures a generated attendance record.
type RecordOption func(*application.AttendanceRecord)

// NewRecord returns a deterministic PRESENT record for userID.
func NewRecord(userID int64, opts ...RecordOption) application.AttendanceRecord {
	idx := atomic.AddInt64(&recordCounter, 1)
	distance := 12.0
	record := application.AttendanceRecord{
		ID:               idx,
		UserID:           userID,
		Status:           application.StatusPresent,
		DistanceFromHome: &distance,
		CreatedAt:        referenceTime.Add(-time.Duration(idx) * 24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithRecordID overrides the record identifier.
func WithRecordID(id int64) RecordOption {
	return func(r *application.AttendanceRecord) { r.ID = id }
}

// WithStatus overrides the status.
func WithStatus(status application.AttendanceStatus) RecordOption {
	return func(r *application.AttendanceRecord) { r.Status = status }
}

// WithDistance overrides the distance from home. A negative value clears it.
func WithDistance(meters float64) RecordOption {
	return func(r *application.AttendanceRecord) {
		if meters < 0 {
			r.DistanceFromHome = nil
			return
		}
		r.DistanceFromHome = &meters
	}
}

// WithLateRequest marks the record as a pending late request with reason.
func WithLateRequest(reason string) RecordOption {
	return func(r *application.AttendanceRecord) {
		r.Status = application.StatusPending
		r.IsLateRequest = true
		r.LateRequestReason = &reason
	}
}

// WithCreatedAt overrides the creation time.
func WithCreatedAt(t time.Time) RecordOption {
	return func(r *application.AttendanceRecord) { r.CreatedAt = t }
}

// PendingRecord is shorthand for a late request awaiting approval.
func PendingRecord(userID int64, reason string, opts ...RecordOption) application.AttendanceRecord {
	return NewRecord(userID, append([]RecordOption{WithLateRequest(reason), WithDistance(850)}, opts...)...)
}
