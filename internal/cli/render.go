package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/attendance-client/internal/application"
	"github.com/example/attendance-client/internal/security"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func (r *runtime) credentialSummary() string {
	info, err := security.InspectCredential(r.app.Session.Credential())
	if err != nil {
		return "opaque token"
	}
	if info.ExpiresAt == nil {
		return "no expiry"
	}
	if info.Expired(r.now()) {
		return "expired " + info.ExpiresAt.Local().Format(timeLayout)
	}
	return "expires " + info.ExpiresAt.Local().Format(timeLayout)
}

func renderProfile(w io.Writer, profile application.UserProfile, credential string) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Office ID:\t%s\n", profile.OfficeID)
	fmt.Fprintf(tw, "Role:\t%s\n", profile.Role)
	fmt.Fprintf(tw, "Email:\t%s\n", valueOr(profile.Email, "-"))
	fmt.Fprintf(tw, "Home:\t%s\n", homeLocation(profile))
	fmt.Fprintf(tw, "Allowed radius:\t%dm\n", profile.AllowedRadiusM)
	if credential != "" {
		fmt.Fprintf(tw, "Credential:\t%s\n", credential)
	}
	tw.Flush()
}

func renderSections(w io.Writer, state application.NavState) {
	if !state.Authenticated {
		fmt.Fprintln(w, "Not logged in")
		return
	}
	fmt.Fprintf(w, "%s (%s)\n", state.Profile.OfficeID, state.Profile.Role)
	for _, section := range application.VisibleSections(state.Profile.Role) {
		marker := " "
		if section == state.Section {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %s\n", marker, section)
	}
}

func renderCheckIn(w io.Writer, view application.CheckInView) {
	switch view.Phase {
	case application.CheckInIdle:
		fmt.Fprintln(w, "Ready to check in (run `checkin`)")
	case application.CheckInLocating:
		fmt.Fprintln(w, "Getting location...")
	case application.CheckInSubmitting:
		fmt.Fprintln(w, "Checking in...")
	default:
		if view.Outcome != nil {
			fmt.Fprintf(w, "Status: %s\n", view.Outcome.Status)
			fmt.Fprintf(w, "Message: %s\n", view.Outcome.Message)
			fmt.Fprintf(w, "Distance: %s\n", application.FormatDistance(view.Outcome.DistanceFromHome))
		}
	}
	switch view.LateForm {
	case application.LateFormOpen:
		fmt.Fprintln(w, "You may request PRESENT status: late <reason>")
	case application.LateFormSubmitting:
		fmt.Fprintln(w, "Submitting late request...")
	}
	if view.LateMessage != "" {
		fmt.Fprintf(w, "Late request: %s\n", view.LateMessage)
	}
}

func renderHistory(w io.Writer, view application.ListView[application.AttendanceRecord]) {
	if renderListState(w, view.Phase, view.Error, view.EmptyMessage, len(view.Items)) {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tSTATUS\tDISTANCE\tLATE REQUEST")
	for _, record := range view.Items {
		late := "-"
		if record.IsLateRequest {
			late = valueOr(record.LateRequestReason, "yes")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			formatTime(record.CreatedAt), record.Status, application.FormatDistance(record.DistanceFromHome), late)
	}
	tw.Flush()
}

func renderApprovals(w io.Writer, view application.ApprovalView) {
	if !renderListState(w, view.List.Phase, view.List.Error, view.List.EmptyMessage, len(view.List.Items)) {
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tUSER\tDATE\tDISTANCE\tREASON")
		for _, record := range view.List.Items {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
				record.ID, record.UserID, formatTime(record.CreatedAt),
				application.FormatDistance(record.DistanceFromHome), valueOr(record.LateRequestReason, "-"))
		}
		tw.Flush()
	}
	if view.Dialog != nil {
		fmt.Fprintf(w, "Rejecting request %d: confirm [comment] or cancel\n", view.Dialog.AttendanceID)
	}
}

func renderDirectory(w io.Writer, view application.ListView[application.DirectoryEntry]) {
	if renderListState(w, view.Phase, view.Error, view.EmptyMessage, len(view.Items)) {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tOFFICE ID\tEMAIL\tROLE\tLOCATION SET\tRADIUS")
	for _, entry := range view.Items {
		locationSet := "No"
		if entry.LocationSet {
			locationSet = "Yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%dm\n",
			entry.Profile.ID, entry.Profile.OfficeID, valueOr(entry.Profile.Email, "-"),
			entry.Profile.Role, locationSet, entry.Profile.AllowedRadiusM)
	}
	tw.Flush()
}

// renderListState prints the non-table states of a list and reports whether
// nothing else should be rendered.
func renderListState(w io.Writer, phase application.LoadPhase, errMessage, emptyMessage string, items int) bool {
	switch {
	case phase == application.LoadLoading:
		fmt.Fprintln(w, "Loading...")
		return true
	case phase == application.LoadFailed && items == 0:
		fmt.Fprintln(w, errMessage)
		return true
	case phase == application.LoadLoaded && items == 0:
		fmt.Fprintln(w, emptyMessage)
		return true
	case phase == application.LoadIdle:
		return true
	}
	return false
}

func homeLocation(profile application.UserProfile) string {
	if !profile.HasHomeLocation() {
		return "not set"
	}
	return application.Coordinate{Lat: *profile.HomeLatitude, Lng: *profile.HomeLongitude}.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func valueOr(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}
