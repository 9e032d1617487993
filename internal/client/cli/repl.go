package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Go(ctx context.Context, args []string) error
	Prefs(ctx context.Context, args []string) error
	Onboard(ctx context.Context) error
	Refresh(ctx context.Context) error
	Revalidate(ctx context.Context) error
	Debug(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the folio CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF, when ctx is done or
// when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help              show available commands
//	  - login             authenticate
//	  - status            show the readiness state
//	  - go <route>        open a route and follow the redirect decision
//	  - debug             dump the session coordinator state
//	  - exit | quit       leave the program
//
//	Logged in, additionally:
//	  - prefs [currency]  set the preferred currency
//	  - onboard           complete onboarding
//	  - refresh           reload the paper account
//	  - revalidate        re-fetch the identity
//	  - logout            log out
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("folio %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, go, prefs, onboard, refresh, revalidate, debug, logout, exit")
			} else {
				printlnFn("Available commands: login, status, go, debug, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "s", "status":
			_ = a.Status(ctx)

		case "go":
			_ = a.Go(ctx, args)

		case "prefs":
			_ = a.Prefs(ctx, args)

		case "onboard":
			_ = a.Onboard(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "revalidate":
			_ = a.Revalidate(ctx)

		case "debug":
			_ = a.Debug(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
