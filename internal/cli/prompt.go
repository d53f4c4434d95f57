package cli

import (
	"github.com/charmbracelet/huh"
)

// activityCharLimit caps activity notes typed at the prompt.
const activityCharLimit = 280

// ConfirmFunc prompts the user for confirmation and returns true if confirmed.
type ConfirmFunc func(prompt string) (bool, error)

// NewConfirmFunc creates a ConfirmFunc using huh's interactive confirm component.
func NewConfirmFunc() ConfirmFunc {
	return func(prompt string) (bool, error) {
		var result bool
		err := huh.NewConfirm().
			Title(prompt).
			Affirmative("Yes").
			Negative("No").
			Value(&result).
			Run()
		return result, err
	}
}

// AlwaysYes returns a ConfirmFunc that always confirms.
func AlwaysYes() ConfirmFunc {
	return func(_ string) (bool, error) {
		return true, nil
	}
}

// PromptFunc asks for free text, starting from initial.
type PromptFunc func(prompt, initial string) (string, error)

// NewPromptFunc creates a PromptFunc using huh's interactive input component.
func NewPromptFunc() PromptFunc {
	return func(prompt, initial string) (string, error) {
		result := initial
		err := huh.NewInput().
			Title(prompt).
			CharLimit(activityCharLimit).
			Value(&result).
			Run()
		return result, err
	}
}

// SelectFunc prompts the user to select one option from a list. Returns 0-based index.
type SelectFunc func(title string, options []string) (int, error)

// NewSelectFunc creates a SelectFunc using huh's interactive select component.
func NewSelectFunc() SelectFunc {
	return func(title string, options []string) (int, error) {
		var result int
		opts := make([]huh.Option[int], len(options))
		for i, o := range options {
			opts[i] = huh.NewOption(o, i)
		}
		err := huh.NewSelect[int]().
			Title(title).
			Options(opts...).
			Value(&result).
			Run()
		return result, err
	}
}

// PromptKit bundles the prompt functions commands use, so tests can inject
// scripted answers.
type PromptKit struct {
	Prompt  PromptFunc
	Confirm ConfirmFunc
	Select  SelectFunc
}

// NewPromptKit creates a PromptKit with huh-based interactive implementations.
func NewPromptKit() PromptKit {
	return PromptKit{
		Prompt:  NewPromptFunc(),
		Confirm: NewConfirmFunc(),
		Select:  NewSelectFunc(),
	}
}
