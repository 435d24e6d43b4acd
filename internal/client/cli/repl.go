package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophfeed/internal/client/routing"
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
	WhoAmI(ctx context.Context) error
	Navigate(ctx context.Context, path string) error
	Nav(ctx context.Context) error
	List(ctx context.Context) error
	Create(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

// protectedCommands are only dispatched while a credential is held.
var protectedCommands = map[string]bool{
	"logout": true,
	"create": true,
	"post":   true,
	"edit":   true,
	"delete": true,
	"rm":     true,
}

// runREPL starts a simple read-eval-print loop for the gophfeed shell.
//
// It reads a line from in, parses the first token as the command, and
// dispatches to methods on a. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Always:
//	  - help               show available commands
//	  - nav                list navigation items
//	  - go <path>          open a view (/, /you, /about, /login, /signup)
//	  - posts | you | about   shortcuts for go
//	  - (l)ist | refresh   reload the current view
//	  - register | login   account commands
//	  - whoami             show the current user
//	  - exit | quit        leave the program
//
//	Logged in:
//	  - create | post      write a new post
//	  - edit <id>          change a post
//	  - delete <id>        remove a post
//	  - logout             log out
//
// Any errors returned by command handlers are ignored here; handlers
// report their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("gf %s > ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		if protectedCommands[cmd] && !a.isLoggedIn() {
			printlnFn("Log in first (type 'login')")
			continue
		}

		switch cmd {
		case "help", "?":
			if a.isLoggedIn() {
				printlnFn("Available commands: nav, go <path>, posts, you, about, (l)ist, create, edit <id>, delete <id>, whoami, logout, exit")
			} else {
				printlnFn("Available commands: nav, go <path>, posts, about, (l)ist, register, login, whoami, exit")
			}

		case "register", "signup":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "nav":
			_ = a.Nav(ctx)

		case "go", "cd":
			if len(args) == 0 {
				printlnFn("Usage: go <path>")
				continue
			}
			_ = a.Navigate(ctx, args[0])

		case "posts", "home":
			_ = a.Navigate(ctx, routing.PathPosts)

		case "you", "mine":
			_ = a.Navigate(ctx, routing.PathYourPosts)

		case "about":
			_ = a.Navigate(ctx, routing.PathAbout)

		case "l", "list", "refresh":
			_ = a.List(ctx)

		case "create", "post":
			_ = a.Create(ctx)

		case "edit":
			_ = a.Edit(ctx, args)

		case "delete", "rm":
			_ = a.Delete(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if errors.Is(err, io.EOF) {
			return
		}
	}
}
