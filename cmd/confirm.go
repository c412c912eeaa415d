package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/huh/v2"
	"golang.org/x/term"
)

// confirmAction asks before a destructive step. A terminal gets a huh
// prompt; anything else is read as a y/N line from stdin.
func confirmAction(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return confirm(os.Stdin, prompt)
	}
	var ok bool
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return err == nil && ok
}

// confirm prompts the user for y/n confirmation
func confirm(input io.Reader, prompt string) bool {
	reader := bufio.NewReader(input)
	fmt.Printf("%s [y/N]: ", prompt)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
