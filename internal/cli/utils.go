package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/famlink/internal/common"
)

// errUsage reports a command invoked with missing arguments.
type errUsage string

func (e errUsage) Error() string { return "usage: " + string(e) }

// describeError turns the errors the services return into a line for the user.
func describeError(err error) string {
	var pe *common.ProviderError
	switch {
	case errors.As(err, &pe) && pe.Kind == common.QuotaExceeded:
		return "translation quota exceeded, try again next month or use another key"
	case errors.As(err, &pe) && pe.Kind == common.InvalidCredential:
		return "the translation API key was rejected, set a new one with 'setkey'"
	case errors.Is(err, common.ErrServiceUnavailable):
		return fmt.Sprintf("%v (check the API key and your connection)", err)
	case errors.Is(err, common.ErrEmptyInput):
		return "nothing to translate"
	case errors.Is(err, common.ErrWrongPassword):
		return "wrong passphrase or the backup is corrupted"
	}
	return err.Error()
}

func argOrEmpty(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// hasFlag removes word from args and reports whether it was there.
func hasFlag(args []string, word string) ([]string, bool) {
	out := args[:0:0]
	found := false
	for _, a := range args {
		if a == word {
			found = true
			continue
		}
		out = append(out, a)
	}
	return out, found
}
