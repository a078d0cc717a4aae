package tui

// Option defines a functional option for model configuration.
type Option func(*Model)

// WithClipboard overrides the clipboard write function.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.writeClipboard = write
		}
	}
}

// WithMarkdownPreview toggles the glamour preview of comment/reporting text.
func WithMarkdownPreview(enabled bool) Option {
	return func(m *Model) {
		m.markdownPreview = enabled
	}
}
