package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/aidanlsb/tendr/internal/shellquote"
	"github.com/aidanlsb/tendr/internal/ui"
)

func shouldPromptForConfirm() bool {
	if isJSONOutput() {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
}

func promptForConfirm(message string) bool {
	if !shouldPromptForConfirm() {
		return false
	}
	if message == "" {
		message = "Apply changes?"
	}
	fmt.Printf("%s %s ", message, ui.Hint("[y/N]"))
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// confirmCascade gates a mutating command. It returns nil when the command
// may proceed: --yes was given, or the user agreed at the prompt. Without a
// terminal and without --yes the command refuses and suggests rerun, the
// command line that would apply the change.
func confirmCascade(yes bool, message string, rerun []string) error {
	if yes {
		return nil
	}
	if !shouldPromptForConfirm() {
		return handleErrorMsg(ErrConfirmationRequired,
			"refusing to modify the garden without confirmation",
			"Re-run with --yes to apply: "+shellquote.Join(append(rerun, "--yes")...))
	}
	if !promptForConfirm(message) {
		return handleErrorMsg(ErrCancelled, "cancelled", "")
	}
	return nil
}
