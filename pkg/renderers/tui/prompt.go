// Package tui drives a selectsingle controller from an interactive terminal
// prompt.
package tui

import (
	"context"
	"fmt"

	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

const (
	defaultMessage   = "Select an option"
	defaultNoneLabel = "(none)"
)

// Prompter renders controller views as terminal select prompts.
type Prompter struct {
	driver    PromptDriver
	theme     Theme
	message   string
	noneLabel string
	pageSize  int
}

// New constructs a Prompter backed by survey unless a driver is supplied.
func New(options ...Option) *Prompter {
	p := &Prompter{
		message:   defaultMessage,
		noneLabel: defaultNoneLabel,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.driver == nil {
		p.driver = newSurveyDriver()
	}
	return p
}

type entry struct {
	label string
	index int // index into View.Options; -1 clears
}

// Prompt asks the user to pick one of the options in sel's current view and
// dispatches the choice back to sel. It returns the chosen option index, or
// -1 when the user picked the clearing entry.
func Prompt[M any, ID comparable](ctx context.Context, p *Prompter, sel selectsingle.Selector[M, ID]) (int, error) {
	if p == nil {
		p = New()
	}
	view := sel.View()
	if view.Disabled || view.Props.ReadOnly {
		return -1, ErrDisabled
	}

	entries := buildEntries(view, p.noneLabel)
	if len(entries) == 0 {
		if msg := view.Props.NotFoundContent; msg != "" {
			if err := p.driver.Info(ctx, p.theme.InfoPrefix+msg); err != nil {
				return -1, err
			}
		}
		return -1, ErrNoOptions
	}

	if view.Display.Kind == selectsingle.DisplayWarning && view.Display.Text != "" {
		if err := p.driver.Info(ctx, p.theme.WarningPrefix+view.Display.Text); err != nil {
			return -1, err
		}
	}

	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.label
	}

	message := p.message
	if view.Props.Placeholder != "" {
		message = view.Props.Placeholder
	}

	choice, err := p.driver.Select(ctx, SelectConfig{
		Message:      message,
		Options:      labels,
		DefaultIndex: defaultEntry(entries, view.SelectedIndex()),
		PageSize:     p.pageSize,
	})
	if err != nil {
		return -1, err
	}
	if choice < 0 || choice >= len(entries) {
		return -1, fmt.Errorf("tui: selection %d out of range", choice)
	}

	picked := entries[choice]
	if picked.index < 0 {
		sel.Clear()
		return -1, nil
	}
	sel.Select(view.Options[picked.index].Value)
	return picked.index, nil
}

// buildEntries lists the selectable rows. Disabled options are left out since
// survey has no notion of an unselectable row, and labels are made unique
// because survey answers with the label text.
func buildEntries[M any, ID comparable](view selectsingle.View[M, ID], noneLabel string) []entry {
	var out []entry
	seen := map[string]struct{}{}
	if view.Props.AllowClear && len(view.Options) > 0 {
		out = append(out, entry{label: noneLabel, index: -1})
		seen[noneLabel] = struct{}{}
	}
	for i, opt := range view.Options {
		if opt.Disabled {
			continue
		}
		label := opt.Label
		if label == "" {
			label = fmt.Sprint(opt.Value)
		}
		if _, dup := seen[label]; dup {
			label = fmt.Sprintf("%s [%v]", label, opt.Value)
		}
		seen[label] = struct{}{}
		out = append(out, entry{label: label, index: i})
	}
	return out
}

func defaultEntry(entries []entry, selected int) int {
	for i, e := range entries {
		if e.index == selected {
			return i
		}
	}
	return 0
}
