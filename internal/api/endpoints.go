package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/attendance-client/internal/application"
)

const (
	EndpointLogin            = "/auth/login"
	EndpointRegister         = "/auth/register"
	EndpointMe               = "/auth/me"
	EndpointUsers            = "/auth/users"
	EndpointCheckIn          = "/attendance/check-in"
	EndpointLateRequest      = "/attendance/late-check-in-request"
	EndpointHistory          = "/attendance/history"
	EndpointPendingApprovals = "/attendance/pending-approvals"
	EndpointApproveRequest   = "/attendance/approve-request"
)

var _ application.RemoteService = (*Client)(nil)

// Login exchanges office credentials for a bearer token. No Authorization
// header is sent.
func (c *Client) Login(ctx context.Context, officeID, password string) (application.LoginResult, error) {
	var out loginResponse
	resp := c.do(ctx, EndpointLogin, http.MethodPost, loginRequest{OfficeID: officeID, Password: password}, false)
	if err := decodeResponse(EndpointLogin, resp, &out); err != nil {
		return application.LoginResult{}, err
	}
	return application.LoginResult{
		AccessToken: out.AccessToken,
		TokenType:   out.TokenType,
		UserID:      out.UserID,
		OfficeID:    out.OfficeID,
		Role:        application.Role(out.Role),
	}, nil
}

// Register creates an account anchored at the registration location.
func (c *Client) Register(ctx context.Context, registration application.Registration) error {
	body := registerRequest{
		OfficeID:  registration.OfficeID,
		Password:  registration.Password,
		Latitude:  registration.Location.Lat,
		Longitude: registration.Location.Lng,
	}
	if email := strings.TrimSpace(registration.Email); email != "" {
		body.Email = &email
	}
	resp := c.do(ctx, EndpointRegister, http.MethodPost, body, false)
	return decodeResponse(EndpointRegister, resp, nil)
}

// Me resolves the profile behind the active credential.
func (c *Client) Me(ctx context.Context) (application.UserProfile, error) {
	var out userResponse
	if err := decodeResponse(EndpointMe, c.Call(ctx, EndpointMe, http.MethodGet, nil), &out); err != nil {
		return application.UserProfile{}, err
	}
	return out.toProfile(), nil
}

// Users lists every registered user.
func (c *Client) Users(ctx context.Context) ([]application.UserProfile, error) {
	var out []userResponse
	if err := decodeResponse(EndpointUsers, c.Call(ctx, EndpointUsers, http.MethodGet, nil), &out); err != nil {
		return nil, err
	}
	profiles := make([]application.UserProfile, 0, len(out))
	for _, u := range out {
		profiles = append(profiles, u.toProfile())
	}
	return profiles, nil
}

// CheckIn submits a check-in at location.
func (c *Client) CheckIn(ctx context.Context, location application.Coordinate) (application.CheckInOutcome, error) {
	var out checkInResponse
	resp := c.Call(ctx, EndpointCheckIn, http.MethodPost, checkInRequest{Latitude: location.Lat, Longitude: location.Lng})
	if err := decodeResponse(EndpointCheckIn, resp, &out); err != nil {
		return application.CheckInOutcome{}, err
	}
	return application.CheckInOutcome{
		Status:            application.AttendanceStatus(out.Status),
		Message:           out.Message,
		DistanceFromHome:  out.DistanceFromHome,
		CheckInEnabled:    out.CheckInEnabled,
		CanRequestPresent: out.CanRequestPresent,
	}, nil
}

// SubmitLateRequest files a justification for a late or out-of-range check-in.
func (c *Client) SubmitLateRequest(ctx context.Context, request application.LateRequest) (application.LateRequestReceipt, error) {
	var out lateRequestResponse
	resp := c.Call(ctx, EndpointLateRequest, http.MethodPost, lateRequestRequest{
		Latitude:  request.Location.Lat,
		Longitude: request.Location.Lng,
		Reason:    request.Reason,
	})
	if err := decodeResponse(EndpointLateRequest, resp, &out); err != nil {
		return application.LateRequestReceipt{}, err
	}
	return application.LateRequestReceipt{
		Message:   out.Message,
		RequestID: out.RequestID,
		Status:    application.AttendanceStatus(out.Status),
	}, nil
}

// History lists the caller's attendance records.
func (c *Client) History(ctx context.Context) ([]application.AttendanceRecord, error) {
	return c.records(ctx, EndpointHistory)
}

// PendingApprovals lists late requests awaiting a decision.
func (c *Client) PendingApprovals(ctx context.Context) ([]application.AttendanceRecord, error) {
	return c.records(ctx, EndpointPendingApprovals)
}

// DecideApproval approves or rejects a pending late request.
func (c *Client) DecideApproval(ctx context.Context, decision application.ApprovalDecision) (application.ApprovalReceipt, error) {
	var out approvalResponse
	resp := c.Call(ctx, EndpointApproveRequest, http.MethodPost, approvalRequest{
		AttendanceID: decision.AttendanceID,
		Approve:      decision.Approve,
		Comment:      decision.Comment,
	})
	if err := decodeResponse(EndpointApproveRequest, resp, &out); err != nil {
		return application.ApprovalReceipt{}, err
	}
	return application.ApprovalReceipt{
		Message:      out.Message,
		AttendanceID: out.AttendanceID,
		Status:       application.AttendanceStatus(out.Status),
	}, nil
}

func (c *Client) records(ctx context.Context, endpoint string) ([]application.AttendanceRecord, error) {
	var out []attendanceResponse
	if err := decodeResponse(endpoint, c.Call(ctx, endpoint, http.MethodGet, nil), &out); err != nil {
		return nil, err
	}
	records := make([]application.AttendanceRecord, 0, len(out))
	for _, a := range out {
		records = append(records, a.toRecord())
	}
	return records, nil
}

// decodeResponse converts a classified response into a RemoteError or decodes
// its body into out. A nil out discards the body. An undecodable 2xx body is
// reported as a failed request.
func decodeResponse(endpoint string, resp Response, out any) error {
	switch resp.Outcome {
	case OutcomeOK:
	case OutcomeFailed:
		return &application.RemoteError{
			Kind:       application.ErrRequestFailed,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Detail:     resp.Detail,
		}
	default:
		return &application.RemoteError{
			Kind:     application.ErrTransport,
			Endpoint: endpoint,
			Cause:    resp.Err,
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &application.RemoteError{
			Kind:       application.ErrRequestFailed,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}
