// Package cli implements the attendance command line front-end: an
// interactive shell over the application controllers plus a few one-shot
// commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/attendance-client/internal/application"
	"github.com/example/attendance-client/internal/config"
	"github.com/example/attendance-client/internal/export"
)

// ErrUsage marks errors caused by malformed command lines.
var ErrUsage = errors.New("usage")

// PrintUsage writes the top-level usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, `usage: attendance [command]

commands:
  shell                                   interactive session (default)
  login --office-id ID --password PASS    log in and store the credential
  logout                                  forget the stored credential
  whoami                                  show the logged in profile
  export --out history.xlsx               export attendance history

configuration is read from the environment and .env:
  ATTENDANCE_API_BASE_URL, ATTENDANCE_STATE_PATH, ATTENDANCE_STATE_SECRET,
  ATTENDANCE_LATITUDE, ATTENDANCE_LONGITUDE, ATTENDANCE_LOG_LEVEL,
  ATTENDANCE_LOG_FORMAT
`)
}

// Execute loads configuration and runs the command named by args.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return Run(ctx, cfg, args, stdin, stdout, stderr)
}

// Run executes args against an explicit configuration.
func Run(ctx context.Context, cfg config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer, opts ...Option) error {
	command := "shell"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	var run func(ctx context.Context, r *runtime, args []string) error
	switch command {
	case "shell":
		run = runShell
	case "login":
		run = runLogin
	case "logout":
		run = runLogout
	case "whoami":
		run = runWhoami
	case "export":
		run = runExport
	case "help", "-h", "--help":
		PrintUsage(stdout)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}

	r, err := newRuntime(ctx, cfg, stdin, stdout, stderr, opts...)
	if err != nil {
		return err
	}
	defer r.close()
	return run(ctx, r, args)
}

func runShell(ctx context.Context, r *runtime, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: attendance shell takes no arguments", ErrUsage)
	}
	if err := r.start(ctx); err != nil {
		return err
	}
	return newShell(r).run(ctx)
}

func runLogin(ctx context.Context, r *runtime, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	officeID := fs.String("office-id", "", "office identifier")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: attendance login --office-id ID --password PASS: %v", ErrUsage, err)
	}
	if _, err := r.app.Auth.Login(ctx, application.LoginForm{OfficeID: *officeID, Password: *password}); err != nil {
		return err
	}
	return nil
}

func runLogout(ctx context.Context, r *runtime, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: attendance logout takes no arguments", ErrUsage)
	}
	if err := r.app.Navigator.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Logged out")
	return nil
}

func runWhoami(ctx context.Context, r *runtime, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: attendance whoami takes no arguments", ErrUsage)
	}
	if err := r.start(ctx); err != nil {
		return err
	}
	return r.whoami(r.out)
}

func runExport(ctx context.Context, r *runtime, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("out", "history.xlsx", "destination .xlsx file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: attendance export --out FILE: %v", ErrUsage, err)
	}
	if err := r.start(ctx); err != nil {
		return err
	}
	return r.exportHistory(ctx, *out)
}

// whoami prints the session profile and, when the credential is a JWT, its
// expiry.
func (r *runtime) whoami(w io.Writer) error {
	profile, ok := r.app.Session.Profile()
	if !ok {
		return application.ErrUnauthenticated
	}
	renderProfile(w, profile, r.credentialSummary())
	return nil
}

// exportHistory loads the history section when needed and writes it to path.
func (r *runtime) exportHistory(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: export <path>", ErrUsage)
	}
	if !r.app.Session.Authenticated() {
		return application.ErrUnauthenticated
	}
	view := r.app.History.View()
	if r.app.Navigator.Current() != application.SectionHistory || view.Phase != application.LoadLoaded {
		r.app.Navigator.Goto(ctx, application.SectionHistory)
		view = r.app.History.View()
	}
	if view.Phase != application.LoadLoaded {
		return fmt.Errorf("history is not available: %s", view.Error)
	}

	err := replaceFile(path, func(w io.Writer) error {
		return export.WriteHistory(w, view.Items, nil)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Exported %d records to %s\n", len(view.Items), path)
	return nil
}

// replaceFile writes to a temporary file next to path and renames it into
// place, so a failed write never leaves a partial file at path.
func replaceFile(path string, write func(w io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
