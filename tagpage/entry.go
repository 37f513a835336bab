package tagpage

// tagEntry is the comma-separated tag text field.
type tagEntry struct {
	text       string
	handlers   []func(text string)
	suppressed bool
}

// Text returns the current text.
func (e *tagEntry) Text() string {
	return e.text
}

// onChanged registers fn for text changes made by the user.
func (e *tagEntry) onChanged(fn func(text string)) {
	e.handlers = append(e.handlers, fn)
}

// SetText replaces the text and notifies handlers unless suppressed.
func (e *tagEntry) SetText(text string) {
	e.text = text
	if e.suppressed {
		return
	}
	for _, fn := range e.handlers {
		fn(text)
	}
}

// rewrite sets the text without notifying.
func (e *tagEntry) rewrite(text string) {
	e.suppressed = true
	e.SetText(text)
	e.suppressed = false
}
