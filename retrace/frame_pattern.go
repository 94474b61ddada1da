package retrace

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const groupPrefix = "_retrace"

// FramePattern matches lines of a stack trace against an expression with
// placeholders like %c (class name) or %m (method name), and locates the
// value of every placeholder in a matching line.
//
// Supported placeholders:
//
//	%c class name, with dots
//	%C class name, with slashes
//	%s source file
//	%l line number
//	%t type, possibly an array type
//	%f field name
//	%m method name
//	%a comma separated argument types
//	%% a literal percent sign
//
// Unknown placeholders are dropped.
type FramePattern struct {
	Expression      string
	ExpressionTypes []ExpressionType
	Pattern         *regexp.Regexp

	groups []int
}

// Group is the value of a single placeholder in a matched line. Start and
// End are byte offsets in the line.
type Group struct {
	Type  ExpressionType
	Start int
	End   int
	Value string
}

// NewFramePattern compiles a regular expression with placeholders. The text
// around the placeholders is regular expression syntax.
func NewFramePattern(regularExpression string) (*FramePattern, error) {
	return compileFramePattern(regularExpression, func(s string) string { return s })
}

// NewTemplatePattern compiles a template with placeholders. The text around
// the placeholders is matched literally.
func NewTemplatePattern(template string) (*FramePattern, error) {
	return compileFramePattern(template, regexp.QuoteMeta)
}

// MustFramePattern is like NewFramePattern but panics if the expression
// can't be compiled. It is meant for the built-in expressions.
func MustFramePattern(regularExpression string) *FramePattern {
	pattern, err := NewFramePattern(regularExpression)
	if err != nil {
		panic(err)
	}
	return pattern
}

func compileFramePattern(expression string, literal func(string) string) (*FramePattern, error) {
	var buffer strings.Builder
	var expressionTypes []ExpressionType

	buffer.WriteString(`^(?:`)

	index := 0
	for {
		nextIndex := IndexOf(expression, "%", index)
		if nextIndex < 0 || nextIndex == len(expression)-1 {
			break
		}

		// Copy a literal piece of the expression.
		buffer.WriteString(literal(expression[index:nextIndex]))

		placeholder := expression[nextIndex+1]
		if placeholder == '%' {
			buffer.WriteString(literal("%"))
		} else if expressionType, ok := ParseExpressionType(placeholder); ok {
			buffer.WriteString(`(?P<` + groupPrefix + strconv.Itoa(len(expressionTypes)) + `>`)
			buffer.WriteString(expressionType.Regex())
			buffer.WriteString(`)`)
			expressionTypes = append(expressionTypes, expressionType)
		}

		index = nextIndex + 2
	}

	// Copy the last literal piece of the expression.
	buffer.WriteString(literal(expression[index:]))
	buffer.WriteString(`)$`)

	pattern, err := regexp.Compile(buffer.String())
	if err != nil {
		return nil, errors.Wrapf(err, "invalid regular expression %q", expression)
	}

	groups := make([]int, len(expressionTypes))
	for i := range expressionTypes {
		groups[i] = pattern.SubexpIndex(groupPrefix + strconv.Itoa(i))
	}

	return &FramePattern{
		Expression:      expression,
		ExpressionTypes: expressionTypes,
		Pattern:         pattern,
		groups:          groups,
	}, nil
}

// Match matches the entire line and returns the placeholders that took part
// in the match, in expression order. It returns false if the line doesn't
// match.
func (f *FramePattern) Match(line string) ([]Group, bool) {
	results := f.Pattern.FindStringSubmatchIndex(line)
	if results == nil {
		return nil, false
	}

	var groups []Group
	for i, expressionType := range f.ExpressionTypes {
		startIndex := results[2*f.groups[i]]
		if startIndex < 0 {
			continue
		}
		endIndex := results[2*f.groups[i]+1]

		groups = append(groups, Group{
			Type:  expressionType,
			Start: startIndex,
			End:   endIndex,
			Value: line[startIndex:endIndex],
		})
	}

	return groups, true
}
