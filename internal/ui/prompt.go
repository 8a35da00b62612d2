package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/manifoldco/promptui"
	"github.com/quantmind-br/pkgkit/internal/core"
)

// ErrCancelled is returned when the user aborts a prompt
var ErrCancelled = errors.New("operation cancelled by user")

// ConfirmPrompt asks a yes/no confirmation question
func ConfirmPrompt(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			// promptui reports "n" as an abort for confirm prompts
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrCancelled
		}
		return false, err
	}

	// promptui returns "y" for yes
	return strings.EqualFold(result, "y"), nil
}

// SelectOption is one entry of a detailed selection list
type SelectOption struct {
	Label  string
	Detail string
}

// PackageOptions renders pkgs as selection entries
func PackageOptions(pkgs []core.Package) []SelectOption {
	options := make([]SelectOption, 0, len(pkgs))
	for _, pkg := range pkgs {
		detail := pkg.Data
		if pkg.Summary != "" {
			detail = pkg.Data + ", " + pkg.Summary
		}
		options = append(options, SelectOption{
			Label:  fmt.Sprintf("%s %s %s", pkg.Name, pkg.Version, pkg.Arch),
			Detail: detail,
		})
	}
	return options
}

// SelectPackage lets the user choose one of pkgs. Typing filters the list
// with a fuzzy match on the label.
func SelectPackage(label string, pkgs []core.Package) (core.Package, error) {
	if len(pkgs) == 0 {
		return core.Package{}, errors.New("no packages to select from")
	}

	options := PackageOptions(pkgs)
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ .Label | cyan }} ({{ .Detail | faint }})",
		Inactive: "  {{ .Label | faint }} ({{ .Detail | faint }})",
		Selected: "▸ {{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: templates,
		Size:      min(10, len(options)),
		Searcher:  optionSearcher(options),
	}

	index, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return core.Package{}, ErrCancelled
		}
		return core.Package{}, err
	}

	return pkgs[index], nil
}

func optionSearcher(options []SelectOption) func(input string, index int) bool {
	return func(input string, index int) bool {
		if index < 0 || index >= len(options) {
			return false
		}
		input = strings.TrimSpace(input)
		if input == "" {
			return true
		}
		return fuzzy.MatchNormalizedFold(input, options[index].Label)
	}
}
