package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Refresh(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Probe(ctx context.Context, name string) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line from reader until EOF, "exit" or
// "quit". Handler errors are printed and the loop continues.
//
//	Not logged in:
//	  - help | register | login | exit
//
//	Logged in:
//	  - help | whoami | refresh | probe <name> | logout | exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "credctl %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: whoami, refresh, probe <authenticated|admin|superadmin|useradmin>, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, exit")
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "refresh":
			cmdErr = a.Refresh(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "probe":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: probe <authenticated|admin|superadmin|useradmin>")
				continue
			}
			cmdErr = a.Probe(ctx, args[0])
		case "logout":
			cmdErr = a.Logout(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", cmdErr.Error())
		}
	}
}
