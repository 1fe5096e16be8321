package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func setTestEnvironment(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("ATTENDANCE_API_BASE_URL", "http://127.0.0.1:1/api")
	t.Setenv("ATTENDANCE_STATE_PATH", filepath.Join(t.TempDir(), "state.db"))
	t.Setenv("ATTENDANCE_STATE_SECRET", "")
	t.Setenv("ATTENDANCE_LATITUDE", "")
	t.Setenv("ATTENDANCE_LONGITUDE", "")
	t.Setenv("ATTENDANCE_LOG_LEVEL", "error")
	t.Setenv("ATTENDANCE_LOG_FORMAT", "")
}

func TestRun_Help(t *testing.T) {
	setTestEnvironment(t)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"help"}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d (%s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "usage: attendance") {
		t.Fatalf("expected usage text, got %q", stdout.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	setTestEnvironment(t)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"frobnicate"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), `unknown command "frobnicate"`) || !strings.Contains(stderr.String(), "usage: attendance") {
		t.Fatalf("expected usage error on stderr, got %q", stderr.String())
	}
}

func TestRun_InvalidConfiguration(t *testing.T) {
	setTestEnvironment(t)
	t.Setenv("ATTENDANCE_API_BASE_URL", "ftp://example.com")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, strings.NewReader(""), &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "ATTENDANCE_API_BASE_URL") {
		t.Fatalf("expected the invalid key to be reported, got %q", stderr.String())
	}
}

func TestRun_WhoamiWithoutCredential(t *testing.T) {
	setTestEnvironment(t)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"whoami"}, strings.NewReader(""), &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "not logged in") {
		t.Fatalf("expected not logged in message, got %q", stderr.String())
	}
}

func TestRun_ShellExitsOnEOF(t *testing.T) {
	setTestEnvironment(t)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, strings.NewReader("help\n"), &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d (%s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "goto <section>") {
		t.Fatalf("expected shell help, got %q", stdout.String())
	}
}
