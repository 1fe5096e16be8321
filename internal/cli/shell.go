package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/attendance-client/internal/application"
)

const shellHelp = `commands:
  login <office_id> <password>        log in
  locate                              capture the registration location
  register <office_id> <password> [email]
                                      create an account at the captured location
  sections                            list the sections you may open
  goto <section>                      open checkin, history, approvals or employees
  checkin                             check in at the current location
  late <reason>                       request PRESENT status for the last check-in
  approve <id>                        approve a pending request
  reject <id>                         start rejecting a pending request
  confirm [comment]                   confirm the rejection
  cancel                              abandon the rejection
  refresh                             reload the current section
  export <path>                       export history to an .xlsx file
  whoami                              show the logged in profile
  logout                              log out
  quit                                leave the shell
`

type shell struct {
	r *runtime
}

func newShell(r *runtime) *shell {
	return &shell{r: r}
}

func (s *shell) run(ctx context.Context) error {
	out := s.r.out
	fmt.Fprintln(out, "attendance shell, type `help` for commands")
	s.renderCurrent()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(out, s.prompt())
		line, err := s.r.in.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if quit := s.exec(ctx, line); quit {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
	}
}

func (s *shell) prompt() string {
	state := s.r.app.Navigator.State()
	if !state.Authenticated {
		return "attendance> "
	}
	return fmt.Sprintf("attendance[%s@%s]> ", state.Profile.OfficeID, state.Section)
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	err := s.dispatch(ctx, command, rest, args)
	switch {
	case errors.Is(err, errQuit):
		return true
	case errors.Is(err, ErrUsage):
		fmt.Fprintln(s.r.out, err)
	case errors.Is(err, errNotHere):
		fmt.Fprintln(s.r.out, err)
	case errors.Is(err, application.ErrUnauthenticated) && !s.r.app.Session.Authenticated():
		fmt.Fprintln(s.r.out, "Not logged in")
	case err != nil:
		// Controllers have already notified the user.
		s.r.logger.DebugContext(ctx, "shell command failed", "command", command, "error", err)
	}
	return false
}

var (
	errQuit    = errors.New("quit")
	errNotHere = errors.New("not available in this section")
)

func (s *shell) dispatch(ctx context.Context, command, rest string, args []string) error {
	app := s.r.app
	switch command {
	case "help", "?":
		fmt.Fprint(s.r.out, shellHelp)
		return nil
	case "quit", "exit":
		return errQuit

	case "login":
		if len(args) != 2 {
			return fmt.Errorf("%w: login <office_id> <password>", ErrUsage)
		}
		if _, err := app.Auth.Login(ctx, application.LoginForm{OfficeID: args[0], Password: args[1]}); err != nil {
			return err
		}
		s.renderCurrent()
		return nil

	case "locate":
		_, err := app.Auth.CaptureRegistrationLocation(ctx)
		return err

	case "register":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("%w: register <office_id> <password> [email]", ErrUsage)
		}
		form := application.RegistrationForm{OfficeID: args[0], Password: args[1]}
		if len(args) == 3 {
			form.Email = args[2]
		}
		return app.Auth.SubmitRegistration(ctx, form)

	case "sections":
		renderSections(s.r.out, app.Navigator.State())
		return nil

	case "goto":
		if len(args) != 1 {
			return fmt.Errorf("%w: goto <section>", ErrUsage)
		}
		section, ok := application.ParseSection(args[0])
		if !ok {
			return fmt.Errorf("%w: unknown section %q", ErrUsage, args[0])
		}
		if !app.Navigator.Goto(ctx, section) {
			if !app.Session.Authenticated() {
				return application.ErrUnauthenticated
			}
			return fmt.Errorf("%w: %s is not available to you", errNotHere, section)
		}
		s.renderCurrent()
		return nil

	case "checkin":
		if err := s.require(application.SectionCheckIn); err != nil {
			return err
		}
		_, err := app.CheckIn.PerformCheckIn(ctx)
		renderCheckIn(s.r.out, app.CheckIn.View())
		return err

	case "late":
		if err := s.require(application.SectionCheckIn); err != nil {
			return err
		}
		_, err := app.CheckIn.SubmitLateRequest(ctx, rest)
		return err

	case "approve", "reject":
		if err := s.require(application.SectionApprovals); err != nil {
			return err
		}
		if len(args) != 1 {
			return fmt.Errorf("%w: %s <id>", ErrUsage, command)
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s <id>: %q is not a number", ErrUsage, command, args[0])
		}
		_, err = app.Approvals.HandleApproval(ctx, id, command == "approve")
		renderApprovals(s.r.out, app.Approvals.View())
		return err

	case "confirm":
		if err := s.require(application.SectionApprovals); err != nil {
			return err
		}
		_, err := app.Approvals.ConfirmRejection(ctx, rest)
		if errors.Is(err, application.ErrNoPendingRejection) {
			return fmt.Errorf("%w: no rejection in progress", errNotHere)
		}
		renderApprovals(s.r.out, app.Approvals.View())
		return err

	case "cancel":
		if err := s.require(application.SectionApprovals); err != nil {
			return err
		}
		if !app.Approvals.CancelRejection() {
			return fmt.Errorf("%w: no rejection in progress", errNotHere)
		}
		fmt.Fprintln(s.r.out, "Rejection cancelled")
		return nil

	case "refresh":
		if !app.Refresh(ctx) {
			return application.ErrUnauthenticated
		}
		s.renderCurrent()
		return nil

	case "export":
		if len(args) != 1 {
			return fmt.Errorf("%w: export <path>", ErrUsage)
		}
		return s.r.exportHistory(ctx, args[0])

	case "whoami":
		return s.r.whoami(s.r.out)

	case "logout":
		err := app.Navigator.Logout(ctx)
		fmt.Fprintln(s.r.out, "Logged out")
		return err
	}
	return fmt.Errorf("%w: unknown command %q (try help)", ErrUsage, command)
}

// require reports whether section is the open one.
func (s *shell) require(section application.Section) error {
	current := s.r.app.Navigator.Current()
	if current == section {
		return nil
	}
	if current == application.SectionNone {
		return application.ErrUnauthenticated
	}
	return fmt.Errorf("%w: open it with `goto %s`", errNotHere, section)
}

func (s *shell) renderCurrent() {
	app := s.r.app
	state := app.Navigator.State()
	if !state.Authenticated {
		fmt.Fprintln(s.r.out, "Not logged in. Use `login <office_id> <password>` or `register`.")
		return
	}
	fmt.Fprintf(s.r.out, "== %s ==\n", state.Section)
	switch state.Section {
	case application.SectionCheckIn:
		renderCheckIn(s.r.out, app.CheckIn.View())
	case application.SectionHistory:
		renderHistory(s.r.out, app.History.View())
	case application.SectionApprovals:
		renderApprovals(s.r.out, app.Approvals.View())
	case application.SectionEmployees:
		renderDirectory(s.r.out, app.Directory.View())
	}
}
