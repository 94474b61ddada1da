package retrace

//go:generate stringer -type=ExpressionType -trimprefix=Expression

// ExpressionType is the role of a placeholder in a frame expression.
type ExpressionType int

const (
	ExpressionClassName      ExpressionType = iota // %c
	ExpressionClassNameSlash                       // %C
	ExpressionSourceFile                           // %s
	ExpressionLineNumber                           // %l
	ExpressionTypeName                             // %t
	ExpressionFieldName                            // %f
	ExpressionMethodName                           // %m
	ExpressionArguments                            // %a
)

const (
	REGEX_CLASS       = `\b(?:[A-Za-z0-9_$]+\.)*[A-Za-z0-9_$]+\b`
	REGEX_CLASS_SLASH = `\b(?:[A-Za-z0-9_$]+/)*[A-Za-z0-9_$]+\b`
	REGEX_SOURCE_FILE = `(?:[^:()\d][^:()]*)?`
	REGEX_LINE_NUMBER = `\b[0-9]+\b`
	REGEX_TYPE        = REGEX_CLASS + `(?:\[\])*`
	REGEX_MEMBER      = `<?\b[A-Za-z0-9_$]+\b>?`
	REGEX_ARGUMENTS   = `(?:` + REGEX_TYPE + `(?:\s*,\s*` + REGEX_TYPE + `)*)?`
)

// ParseExpressionType returns the role of the given placeholder character.
func ParseExpressionType(c byte) (ExpressionType, bool) {
	switch c {
	case 'c':
		return ExpressionClassName, true
	case 'C':
		return ExpressionClassNameSlash, true
	case 's':
		return ExpressionSourceFile, true
	case 'l':
		return ExpressionLineNumber, true
	case 't':
		return ExpressionTypeName, true
	case 'f':
		return ExpressionFieldName, true
	case 'm':
		return ExpressionMethodName, true
	case 'a':
		return ExpressionArguments, true
	}
	return 0, false
}

// Regex returns the regular expression matching values of this role.
func (t ExpressionType) Regex() string {
	switch t {
	case ExpressionClassName:
		return REGEX_CLASS
	case ExpressionClassNameSlash:
		return REGEX_CLASS_SLASH
	case ExpressionSourceFile:
		return REGEX_SOURCE_FILE
	case ExpressionLineNumber:
		return REGEX_LINE_NUMBER
	case ExpressionTypeName:
		return REGEX_TYPE
	case ExpressionFieldName, ExpressionMethodName:
		return REGEX_MEMBER
	case ExpressionArguments:
		return REGEX_ARGUMENTS
	}
	panic("unknown expression type " + t.String())
}
