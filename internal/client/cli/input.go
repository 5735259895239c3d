package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// termReadPassword reads from the terminal with echo off. Tests replace it.
var termReadPassword = term.ReadPassword

var errEmptyUsername = errors.New("username must not be empty")

// PromptUsername asks for the account name used by register and login:
//
//	username: alice
//
// Surrounding blanks are dropped. A last line without a newline still
// counts; a blank answer is an error so no request is sent for it.
func PromptUsername(reader *bufio.Reader, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "username: "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	name := strings.TrimSpace(line)
	if name == "" {
		return "", errEmptyUsername
	}
	return name, nil
}

// PromptPassword asks for the account password on the controlling terminal
// without echo. The caller owns the returned bytes and wipes them with
// common.WipeByteArray once the request is sent.
func PromptPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "password: "); err != nil {
		return nil, err
	}
	pw, err := termReadPassword(int(os.Stdin.Fd()))
	// echo is off, so the user's Enter never reached the screen
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}
