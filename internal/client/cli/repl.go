package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL needs. The real App satisfies
// it; tests can provide a lightweight stub.
type execIface interface {
	isSignedIn() bool
	SignUp(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context, includeDeleted bool) error
	Search(ctx context.Context, query string) error
	Show(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) error
	Recent(ctx context.Context) error
	NewCollection(ctx context.Context, name string) error
	Collect(ctx context.Context, collectionID, promptID string) error
	ListCollections(ctx context.Context) error
	Theme(ctx context.Context, name string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

const (
	helpGuest = "Available commands: add, (l)ist [all], search <q>, show <id>, delete <id>, fav <id>, recent, " +
		"collections, newcol <name>, collect <col> <id>, theme [name], status, signup, login, exit"
	helpUser = "Available commands: add, (l)ist [all], search <q>, show <id>, delete <id>, fav <id>, recent, " +
		"collections, newcol <name>, collect <col> <id>, theme [name], status, sync, logout, exit"
)

// runREPL reads commands from r until EOF or "exit". Commands that ask
// follow-up questions read from the same reader.
//
// Errors returned by command handlers are ignored here; handlers print what
// the user needs to see. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("pk (%s) > ", statusFn()))
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isSignedIn() {
				printlnFn(helpUser)
			} else {
				printlnFn(helpGuest)
			}

		case "signup":
			_ = a.SignUp(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "add":
			_ = a.Add(ctx)

		case "l", "list":
			_ = a.List(ctx, len(args) > 0 && args[0] == "all")

		case "search":
			_ = a.Search(ctx, strings.Join(args, " "))

		case "show", "delete", "fav":
			if len(args) != 1 {
				printlnFn("Usage:", cmd, "<id>")
				continue
			}
			switch cmd {
			case "show":
				_ = a.Show(ctx, args[0])
			case "delete":
				_ = a.Delete(ctx, args[0])
			default:
				_ = a.ToggleFavorite(ctx, args[0])
			}

		case "recent":
			_ = a.Recent(ctx)

		case "collections":
			_ = a.ListCollections(ctx)

		case "newcol":
			if len(args) == 0 {
				printlnFn("Usage: newcol <name>")
				continue
			}
			_ = a.NewCollection(ctx, strings.Join(args, " "))

		case "collect":
			if len(args) != 2 {
				printlnFn("Usage: collect <collection-id> <prompt-id>")
				continue
			}
			_ = a.Collect(ctx, args[0], args[1])

		case "theme":
			_ = a.Theme(ctx, strings.Join(args, " "))

		case "sync":
			_ = a.Sync(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

// REPL runs the interactive loop on the app's input.
func (a *App) REPL(ctx context.Context) {
	printlnFn("promptkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.statusLine, a.reader)
}
