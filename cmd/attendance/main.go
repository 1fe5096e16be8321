package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/attendance-client/internal/application"
	"github.com/example/attendance-client/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := cli.Execute(ctx, args, stdin, stdout, stderr)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr)
		cli.PrintUsage(stderr)
		return 2
	case errors.Is(err, application.ErrUnauthenticated):
		fmt.Fprintln(stderr, "not logged in")
		return 1
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}
