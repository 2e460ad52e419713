package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Fprintln

// execIface defines the command surface the REPL needs. App satisfies it;
// tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Verify(ctx context.Context, token string) error
	Resend(ctx context.Context, email string) error
	Avatar(ctx context.Context, path string) error
	Emails(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, verify <token>, resend <email>, exit"
	helpLoggedIn  = "Available commands: me, avatar <path>, emails, verify <token>, resend [email], logout, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// It exits on EOF or on "exit"/"quit". Handler errors are ignored here:
// handlers report their own failures.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "gophauth %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		arg := ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(out, helpLoggedIn)
			} else {
				printlnFn(out, helpLoggedOut)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "me":
			_ = a.Me(ctx)

		case "verify":
			if arg == "" {
				printlnFn(out, "Usage: verify <token>")
				continue
			}
			_ = a.Verify(ctx, arg)

		case "resend":
			_ = a.Resend(ctx, arg)

		case "avatar":
			if arg == "" {
				printlnFn(out, "Usage: avatar <path>")
				continue
			}
			_ = a.Avatar(ctx, arg)

		case "emails":
			_ = a.Emails(ctx)

		case "exit", "quit":
			printlnFn(out, "Bye!")
			return

		default:
			printlnFn(out, "Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
