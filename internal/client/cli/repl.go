package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Whoami(ctx context.Context) error
	Profile(ctx context.Context) error
	List(ctx context.Context) error
	Search(ctx context.Context, query string) error
	Create(ctx context.Context) error
	Open(ctx context.Context, id string) error
	Edit(ctx context.Context, id string) error
	Tag(ctx context.Context, id string, tags []string) error
	Move(ctx context.Context, id, targetID string) error
	Delete(ctx context.Context, id string) error
	AttachLink(ctx context.Context, id string) error
	AttachFile(ctx context.Context, id string) error
	Refresh(ctx context.Context) error
	Debug(ctx context.Context) error
}

// runREPL starts a read–eval–print loop for the notebook CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own messages. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("snot %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, search, create, open, edit, tag, move, delete, attachlink, attachfile, refresh, whoami, profile, logout, debug, exit")
			} else {
				printlnFn("Available commands: register, login, resetpw, debug, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "resetpw":
			_ = a.ResetPassword(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "search":
			_ = a.Search(ctx, strings.Join(args, " "))

		case "create":
			_ = a.Create(ctx)

		case "open":
			if len(args) == 0 {
				printlnFn("Usage: open <id>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "edit":
			if len(args) == 0 {
				printlnFn("Usage: edit <id>")
				continue
			}
			_ = a.Edit(ctx, args[0])

		case "tag":
			if len(args) == 0 {
				printlnFn("Usage: tag <id> [tag ...]")
				continue
			}
			_ = a.Tag(ctx, args[0], args[1:])

		case "move":
			if len(args) != 2 {
				printlnFn("Usage: move <id> <targetId>  (drop the first onto the second)")
				continue
			}
			_ = a.Move(ctx, args[0], args[1])

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "attachlink":
			if len(args) == 0 {
				printlnFn("Usage: attachlink <id>")
				continue
			}
			_ = a.AttachLink(ctx, args[0])

		case "attachfile":
			if len(args) == 0 {
				printlnFn("Usage: attachfile <id>")
				continue
			}
			_ = a.AttachFile(ctx, args[0])

		case "refresh":
			_ = a.Refresh(ctx)

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
