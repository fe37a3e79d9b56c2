package cliutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user cancels a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// ConfirmTOFU asks the user to accept a monitor's advertised identity
// the first time cephctl sees it — trust-on-first-use, the same
// confirm-before-cache shape as the teacher's prompt.Confirm, gating
// pkg/store's MonMap cache instead of a destructive filesystem op.
func ConfirmTOFU(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s [y/N]", label),
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrAborted
		}
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return strings.EqualFold(result, "y") || strings.EqualFold(result, "yes"), nil
}
