package retrace

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// StackTraceExpression is the default expression. It matches
// "    at com.example.Foo.bar(Foo.java:123)" frames and
// "Caused by: com.example.FooException: something" lines.
const StackTraceExpression = `(?:.*?\bat\s+%c\.%m\s*\(.*?(?::%l)?\)\s*)|(?:(?:.*?[:"]\s+)?%c(?::.*)?)`

// For example: "com.example.Foo.bar"
const REGULAR_EXPRESSION_CLASS_METHOD = `%c\.%m`

// For example:
// "(Foo.java:123:0) ~[0]"
// "()(Foo.java:123:0)"     (unknown origin, possibly Sentry)
// or no source line info   (Sentry)
const REGULAR_EXPRESSION_SOURCE_LINE = `(?:\(\))?(?:\((?:%s)?(?::?%l)?(?::\d+)?\))?\s*(?:~\[.*\])?`

// For example: "at o.afc.b + 45(:45)"
// Might be present in recent stacktraces accessible from crashlytics.
const REGULAR_EXPRESSION_OPTIONAL_SOURCE_LINE_INFO = `(?:\+\s+[0-9]+)?`

// For example: "    at com.example.Foo.bar(Foo.java:123:0) ~[0]"
const REGULAR_EXPRESSION_AT = `.*?\bat\s+` + REGULAR_EXPRESSION_CLASS_METHOD + `\s*` + REGULAR_EXPRESSION_OPTIONAL_SOURCE_LINE_INFO + REGULAR_EXPRESSION_SOURCE_LINE

// For example: "java.lang.ClassCastException: com.example.Foo cannot be cast to com.example.Bar"
// Every line can only have a single matched class, so we try to avoid
// longer non-obfuscated class names.
const REGULAR_EXPRESSION_CAST1 = `.*?\bjava\.lang\.ClassCastException: %c cannot be cast to .{5,}`
const REGULAR_EXPRESSION_CAST2 = `.*?\bjava\.lang\.ClassCastException: .* cannot be cast to %c`

// For example: "java.lang.NullPointerException: Attempt to read from field 'java.lang.String com.example.Foo.bar' on a null object reference"
const REGULAR_EXPRESSION_NULL_FIELD_READ = `.*?\bjava\.lang\.NullPointerException: Attempt to read from field '%t %c\.%f' on a null object reference`

// For example: "java.lang.NullPointerException: Attempt to write to field 'java.lang.String com.example.Foo.bar' on a null object reference"
const REGULAR_EXPRESSION_NULL_FIELD_WRITE = `.*?\bjava\.lang\.NullPointerException: Attempt to write to field '%t %c\.%f' on a null object reference`

// For example: "java.lang.NullPointerException: Attempt to invoke virtual method 'void com.example.Foo.bar(int,boolean)' on a null object reference"
const REGULAR_EXPRESSION_NULL_METHOD = `.*?\bjava\.lang\.NullPointerException: Attempt to invoke (?:virtual|interface) method '%t %c\.%m\(%a\)' on a null object reference`

// For example: java.lang.NullPointerException: Cannot invoke "java.lang.String.length()" because the return value of "com.example.Foo.bar()" is null
const REGULAR_EXPRESSION_RETURN_VALUE_NULL1 = `.*?\bjava\.lang\.NullPointerException: Cannot invoke ".*" because the return value of "%c\.%m\(%a\)" is null`

// For example: java.lang.NullPointerException: Cannot invoke "com.example.Foo.bar(int)" because the return value of "java.util.Map.get(java.lang.Object)" is null
const REGULAR_EXPRESSION_RETURN_VALUE_NULL2 = `.*?\bjava\.lang\.NullPointerException: Cannot invoke "%c\.%m\(%a\)" because .*`

// For example: Cannot invoke "java.net.ServerSocket.close()" because "com.example.Foo.bar" is null
const REGULAR_EXPRESSION_BECAUSE_IS_NULL = `.*?\bbecause "%c\.%f" is null`

// For example: "Something: com.example.FooException: something"
const REGULAR_EXPRESSION_THROW = `(?:.*?[:"]\s+)?%c(?::.*)?`

// ExtendedStackTraceExpression also understands Android and JDK exception
// messages that mention classes, fields and methods.
const ExtendedStackTraceExpression = "(?:" + REGULAR_EXPRESSION_AT + ")|" +
	"(?:" + REGULAR_EXPRESSION_CAST1 + ")|" +
	"(?:" + REGULAR_EXPRESSION_CAST2 + ")|" +
	"(?:" + REGULAR_EXPRESSION_NULL_FIELD_READ + ")|" +
	"(?:" + REGULAR_EXPRESSION_NULL_FIELD_WRITE + ")|" +
	"(?:" + REGULAR_EXPRESSION_NULL_METHOD + ")|" +
	"(?:" + REGULAR_EXPRESSION_RETURN_VALUE_NULL1 + ")|" +
	"(?:" + REGULAR_EXPRESSION_BECAUSE_IS_NULL + ")|" +
	"(?:" + REGULAR_EXPRESSION_RETURN_VALUE_NULL2 + ")|" +
	"(?:" + REGULAR_EXPRESSION_THROW + ")"

// R8 writes this instead of the real source file name.
const obfuscatedSourceFile = "SourceFile"

// Retrace rewrites the lines of a stack trace, replacing the obfuscated names
// that the pattern locates with their original names from the mapping.
// Alternatives for ambiguous names are printed on extra lines, aligned below
// the name they replace.
type Retrace struct {
	Mapping *Mapping
	Pattern *FramePattern
	// Verbose prints the types and arguments of fields and methods.
	Verbose bool
	// AllClassNames also retraces every token that looks like a class name.
	AllClassNames bool
}

func NewRetrace(mapping *Mapping, pattern *FramePattern) *Retrace {
	return &Retrace{
		Mapping: mapping,
		Pattern: pattern,
	}
}

// Retrace reads the stack trace from reader and writes the retraced lines to
// writer. Line terminators are preserved.
func (r *Retrace) Retrace(reader io.Reader, writer io.Writer) error {
	bufReader := bufio.NewReader(reader)
	bufWriter := bufio.NewWriter(writer)

	// Read and process the lines of the stack trace.
	for {
		obfuscatedLine, readErr := bufReader.ReadString('\n')
		if len(obfuscatedLine) > 0 {
			line, terminator := splitLineTerminator(obfuscatedLine)
			if err := r.writeLines(bufWriter, r.RetraceLine(line), terminator); err != nil {
				return errors.Wrap(err, "can't write retraced output")
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			bufWriter.Flush()
			return errors.Wrap(readErr, "can't read stack trace")
		}
	}

	if err := bufWriter.Flush(); err != nil {
		return errors.Wrap(err, "can't write retraced output")
	}

	return nil
}

func (r *Retrace) writeLines(writer *bufio.Writer, lines []string, terminator string) error {
	separator := terminator
	if separator == "" {
		separator = "\n"
	}

	for i, line := range lines {
		if _, err := writer.WriteString(line); err != nil {
			return err
		}
		// A last line without terminator stays without terminator.
		if i < len(lines)-1 || terminator != "" {
			if _, err := writer.WriteString(separator); err != nil {
				return err
			}
		}
	}

	return nil
}

// RetraceLine retraces a single line without its terminator. It returns the
// retraced line, followed by any alternatives for ambiguous names.
func (r *Retrace) RetraceLine(line string) []string {
	groups, ok := r.Pattern.Match(line)
	if !ok {
		// The line didn't match the expression.
		if r.AllClassNames {
			return []string{r.Deobfuscate(line)}
		}
		return []string{line}
	}

	var lineInfo LineInfo

	// Extract a class name, a line number, a type, and arguments.
	for _, group := range groups {
		r.setOriginalValue(group, &lineInfo)
	}

	// Deconstruct the input line and reconstruct the output line. Also
	// collect any additional output lines for this line.
	var outLine strings.Builder
	lineIndex := 0
	for _, group := range groups {
		if group.Start < lineIndex {
			continue
		}

		// Copy a literal piece of the input line.
		outLine.WriteString(line[lineIndex:group.Start])

		// Copy a matched and translated piece of the input line.
		r.appendOriginalValue(group, &lineInfo, &outLine)

		lineIndex = group.End
	}

	// Copy the last literal piece of the input line.
	outLine.WriteString(line[lineIndex:])

	retracedLine := outLine.String()
	if r.AllClassNames {
		retracedLine = r.Deobfuscate(retracedLine)
	}

	return append([]string{retracedLine}, lineInfo.ExtraOutLines...)
}

func (r *Retrace) setOriginalValue(group Group, lineInfo *LineInfo) {
	switch group.Type {
	case ExpressionClassName:
		lineInfo.ClassName, lineInfo.ClassRetraced = r.Mapping.lookupClassName(group.Value)
	case ExpressionClassNameSlash:
		lineInfo.ClassName, lineInfo.ClassRetraced = r.Mapping.lookupClassName(ExternalClassName(group.Value))
	case ExpressionLineNumber:
		if lineNumber, err := strconv.Atoi(group.Value); err == nil {
			lineInfo.LineNumber = lineNumber
		}
	case ExpressionTypeName:
		lineInfo.Type = NewHint(r.Mapping.OriginalType(group.Value))
	case ExpressionArguments:
		lineInfo.Arguments = NewHint(r.Mapping.OriginalArguments(group.Value))
	case ExpressionSourceFile, ExpressionFieldName, ExpressionMethodName:
		// Resolved while appending, with the context of the whole line.
	}
}

func (r *Retrace) appendOriginalValue(group Group, lineInfo *LineInfo, outLine *strings.Builder) {
	switch group.Type {
	case ExpressionClassName, ExpressionClassNameSlash:
		r.setOriginalValue(group, lineInfo)
		outLine.WriteString(lineInfo.ClassName)
	case ExpressionSourceFile:
		outLine.WriteString(r.originalSourceFile(group.Value, lineInfo))
	case ExpressionLineNumber:
		r.setOriginalValue(group, lineInfo)
		outLine.WriteString(group.Value)
	case ExpressionTypeName:
		r.setOriginalValue(group, lineInfo)
		outLine.WriteString(lineInfo.Type.Value)
	case ExpressionArguments:
		r.setOriginalValue(group, lineInfo)
		outLine.WriteString(lineInfo.Arguments.Value)
	case ExpressionFieldName:
		r.originalFieldName(group.Value, lineInfo, outLine)
	case ExpressionMethodName:
		r.originalMethodName(group.Value, lineInfo, outLine)
	}
}

func (r *Retrace) originalSourceFile(sourceFile string, lineInfo *LineInfo) string {
	if sourceFile == obfuscatedSourceFile && lineInfo.ClassRetraced {
		return SourceFileName(lineInfo.ClassName)
	}
	return sourceFile
}

// originalFieldName appends the first matching original field name to the
// out line, and any alternatives to the extra lines.
func (r *Retrace) originalFieldName(obfuscatedFieldName string, lineInfo *LineInfo, outLine *strings.Builder) {
	fields := r.Mapping.OriginalFields(lineInfo.ClassName, obfuscatedFieldName, lineInfo.Type)

	names := make([]string, len(fields))
	for i, fieldInfo := range fields {
		names[i] = r.formatField(fieldInfo)
	}

	r.appendAlternatives(obfuscatedFieldName, names, lineInfo, outLine)
}

// originalMethodName appends the first matching original method name to the
// out line, and any alternatives to the extra lines.
func (r *Retrace) originalMethodName(obfuscatedMethodName string, lineInfo *LineInfo, outLine *strings.Builder) {
	methods := r.Mapping.OriginalMethods(
		lineInfo.ClassName,
		obfuscatedMethodName,
		lineInfo.LineNumber,
		lineInfo.Type,
		lineInfo.Arguments)

	names := make([]string, len(methods))
	for i, methodInfo := range methods {
		names[i] = r.formatMethod(methodInfo, lineInfo.ClassName)
	}

	r.appendAlternatives(obfuscatedMethodName, names, lineInfo, outLine)
}

func (r *Retrace) appendAlternatives(obfuscatedName string, names []string, lineInfo *LineInfo, outLine *strings.Builder) {
	// Just append the obfuscated name if we haven't found any matching
	// members.
	if len(names) == 0 {
		outLine.WriteString(obfuscatedName)
		return
	}

	// The alternatives are aligned with the first name, in the output line.
	extraIndent := strings.Repeat(" ", columnOf(outLine.String()))

	outLine.WriteString(names[0])
	for _, name := range names[1:] {
		lineInfo.ExtraOutLines = append(lineInfo.ExtraOutLines, extraIndent+name)
	}
}

func (r *Retrace) formatField(fieldInfo FieldInfo) string {
	if !r.Verbose {
		return fieldInfo.OriginalName
	}
	return fieldInfo.OriginalType + " " + fieldInfo.OriginalName
}

func (r *Retrace) formatMethod(methodInfo MethodInfo, className string) string {
	if !r.Verbose {
		return methodInfo.OriginalName
	}

	var buffer strings.Builder
	buffer.WriteString(methodInfo.OriginalType)
	buffer.WriteString(" ")
	// Inlined methods come from another class.
	if methodInfo.OriginalClassName != className {
		buffer.WriteString(methodInfo.OriginalClassName)
		buffer.WriteString(".")
	}
	buffer.WriteString(methodInfo.OriginalName)
	buffer.WriteString("(")
	buffer.WriteString(methodInfo.OriginalArguments)
	buffer.WriteString(")")
	return buffer.String()
}

func deobfuscateFieldsFunc(c rune) bool {
	return unicode.IsSpace(c) ||
		c == '(' || c == ')' ||
		c == '<' || c == '>' ||
		c == '[' || c == ']' ||
		c == '{' || c == '}' ||
		c == ';' || c == ':' || c == ',' ||
		c == '\'' || c == '"' ||
		c == '/' || c == '\\'
}

// Deobfuscate replaces every token of the line that is an obfuscated class
// name with its original name.
func (r *Retrace) Deobfuscate(line string) string {
	var buff strings.Builder

	for _, token := range FieldsFuncWithDelims(line, deobfuscateFieldsFunc) {
		buff.WriteString(r.Mapping.OriginalClassName(token))
	}
	return buff.String()
}

func splitLineTerminator(line string) (string, string) {
	if strings.HasSuffix(line, "\r\n") {
		return line[:len(line)-2], "\r\n"
	}
	if strings.HasSuffix(line, "\n") {
		return line[:len(line)-1], "\n"
	}
	return line, ""
}
