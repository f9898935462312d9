package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads operator answers line by line.
type prompter struct {
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(in), out: out}
}

func (p *prompter) readLine(prompt string) string {
	fmt.Fprint(p.out, prompt)
	t, _ := p.r.ReadString('\n')
	return strings.TrimSpace(t)
}

// ask returns preset when it was given on the command line, otherwise prompts.
func (p *prompter) ask(preset, prompt string) string {
	if s := strings.TrimSpace(preset); s != "" {
		return s
	}
	return p.readLine(prompt)
}

func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("PRIVATE_KEY is not set and stdin is not a terminal")
	}
	fmt.Print(prompt)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read private key: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func yes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

func maskHex(h string) string {
	h = strings.TrimSpace(h)
	if len(h) <= 10 {
		return "***"
	}
	return h[:6] + "…" + h[len(h)-4:]
}

// die prints an error and, on an interactive console, waits for Enter before
// exiting so a double-clicked window does not close instantly.
func die(err error) {
	fmt.Fprintln(os.Stderr, "[X]", errorMessage(err))
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Press Enter to close...")
		_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')
	}
	os.Exit(1)
}
