package tui

// Theme captures optional formatting hints applied to printed messages.
type Theme struct {
	InfoPrefix    string
	WarningPrefix string
}

// Option configures the Prompter.
type Option func(*Prompter)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithMessage sets the prompt message used when the props carry no
// placeholder.
func WithMessage(message string) Option {
	return func(p *Prompter) {
		if message != "" {
			p.message = message
		}
	}
}

// WithNoneLabel changes the label of the clearing entry.
func WithNoneLabel(label string) Option {
	return func(p *Prompter) {
		if label != "" {
			p.noneLabel = label
		}
	}
}

// WithPageSize limits how many entries are visible at once.
func WithPageSize(size int) Option {
	return func(p *Prompter) {
		p.pageSize = size
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(p *Prompter) {
		p.theme = theme
	}
}
