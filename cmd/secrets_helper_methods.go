package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/workdaydebrief/debrief/internal/configs"
	kerrors "github.com/workdaydebrief/debrief/internal/errors"
	"github.com/workdaydebrief/debrief/internal/ui"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	return startSpinnerWithFlags(message, verbose, debug)
}

// startSpinnerWithFlags creates and starts a spinner with explicit verbose and debug flags.
// This is useful for commands that have their own flag variables (e.g., config commands).
func startSpinnerWithFlags(message string, verbose, debugFlag bool) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message

	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")

	quiet := !verbose && !debugFlag
	if quiet {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stderr)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// describeError turns a vault error into a one-line message and an optional hint.
func describeError(err error) (string, string) {
	switch {
	case errors.Is(err, kerrors.ErrInvalidSecretName):
		return err.Error(), ""
	case errors.Is(err, kerrors.ErrSecretNotFound):
		return err.Error(), "Run " + ui.Code.Sprint("debrief secrets list") + " to see stored names"
	case errors.Is(err, kerrors.ErrUnexpectedMethod):
		return "The vault was not written by debrief", ""
	case errors.Is(err, kerrors.ErrDecryption):
		return "Failed to decrypt the vault with the current master key",
			"Check " + ui.Code.Sprint(configs.MasterKeyEnvVar) + " or run " + ui.Code.Sprint("debrief secrets doctor")
	case errors.Is(err, kerrors.ErrSerialization):
		return "The vault decrypted but its contents are corrupt", ""
	case errors.Is(err, kerrors.ErrEmptyMasterKey):
		return err.Error(), "Run " + ui.Code.Sprint("debrief secrets doctor")
	default:
		return err.Error(), ""
	}
}

// failureMessage renders err for spinner.FinalMSG.
func failureMessage(action string, err error) string {
	msg, hint := describeError(err)
	out := ui.ErrorIcon() + " " + action + ": " + msg
	if hint != "" {
		out += "\n" + ui.HintIcon() + " " + hint
	}
	return out
}

// commandFailed puts err in the spinner's final message and returns it with
// cobra's own error and usage output silenced, so the failure is printed once
// and the process still exits non-zero.
func commandFailed(cmd *cobra.Command, s *spinner.Spinner, action string, err error) error {
	s.FinalMSG = failureMessage(action, err)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return err
}
