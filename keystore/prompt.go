package keystore

import (
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

// ConfirmOverwrite interactively asks whether an existing keystore file
// at path should be overwritten, used by the CLI's `keystore new`
// subcommand before it clobbers an existing document.
func ConfirmOverwrite(path string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     "Keystore " + path + " already exists. Overwrite",
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, errors.Wrap(err, "keystore: confirmation prompt")
	}
	return true, nil
}
