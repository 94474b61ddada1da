package retrace

// Config selects the expression and the output options of a Retrace.
type Config struct {
	// Regex is a regular expression with placeholders.
	Regex string
	// Template is a literal template with placeholders. It takes precedence
	// over Regex.
	Template string
	// Extended selects ExtendedStackTraceExpression when neither Template
	// nor Regex is set.
	Extended      bool
	Verbose       bool
	AllClassNames bool
}

// FramePattern compiles the expression selected by the config.
func (c Config) FramePattern() (*FramePattern, error) {
	switch {
	case c.Template != "":
		return NewTemplatePattern(c.Template)
	case c.Regex != "":
		return NewFramePattern(c.Regex)
	case c.Extended:
		return NewFramePattern(ExtendedStackTraceExpression)
	default:
		return NewFramePattern(StackTraceExpression)
	}
}
