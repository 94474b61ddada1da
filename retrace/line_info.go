package retrace

// LineInfo collects the retraced context of a single matched line. A fresh
// LineInfo is used for every line.
type LineInfo struct {
	// ClassName is the original name of the last class seen in the line.
	ClassName string
	// ClassRetraced is set when ClassName was found in the mapping.
	ClassRetraced bool
	// LineNumber is 0 when the line has no line number.
	LineNumber int
	Type       Hint
	Arguments  Hint

	// ExtraOutLines holds the alternatives of ambiguous field and method
	// names, to be printed after the line itself.
	ExtraOutLines []string
}
