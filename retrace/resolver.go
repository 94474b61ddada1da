package retrace

// Hint is an optional piece of context taken from a retraced line. A hint
// that is not valid matches every recorded value.
type Hint struct {
	Value string
	Valid bool
}

func NewHint(value string) Hint {
	return Hint{Value: value, Valid: true}
}

// Matches returns whether the hint is absent or equal to the recorded value.
func (h Hint) Matches(recorded string) bool {
	return !h.Valid || h.Value == recorded
}

type FieldInfo struct {
	OriginalClassName string
	OriginalType      string
	OriginalName      string
}

// Matches return whether the given type matches the original type of this field.
func (info FieldInfo) Matches(originalType Hint) bool {
	return originalType.Matches(info.OriginalType)
}

// MethodInfo describes one original method behind an obfuscated method name.
// Both line numbers are 0 when the mapping has no line information.
type MethodInfo struct {
	FirstLineNumber int
	LastLineNumber  int

	OriginalClassName string
	OriginalType      string
	OriginalName      string
	OriginalArguments string
}

// MatchesLine returns whether the given obfuscated line number falls in the
// range of this method. Line number 0 means unknown.
func (info MethodInfo) MatchesLine(lineNumber int) bool {
	return lineNumber == 0 ||
		info.LastLineNumber == 0 ||
		(info.FirstLineNumber <= lineNumber && lineNumber <= info.LastLineNumber)
}

func (info MethodInfo) Matches(lineNumber int, originalType Hint, originalArguments Hint) bool {
	return info.MatchesLine(lineNumber) &&
		originalType.Matches(info.OriginalType) &&
		originalArguments.Matches(info.OriginalArguments)
}

// OriginalFields returns all fields of the given original class that were
// obfuscated to the given name and match the type hint, in mapping order.
func (m *Mapping) OriginalFields(className string, obfuscatedFieldName string, originalType Hint) []FieldInfo {
	// Class name -> obfuscated field names
	fieldMap, ok := m.ClassFieldMap[className]
	if !ok {
		return nil
	}

	// Obfuscated field names -> fields
	fieldList, ok := fieldMap[obfuscatedFieldName]
	if !ok {
		return nil
	}

	var fields []FieldInfo
	for _, item := range fieldList.Values() {
		fieldInfo := item.(FieldInfo)
		if fieldInfo.Matches(originalType) {
			fields = append(fields, fieldInfo)
		}
	}
	return fields
}

// OriginalMethods returns all methods of the given original class that were
// obfuscated to the given name and match the line number, return type and
// arguments hints, in mapping order.
func (m *Mapping) OriginalMethods(
	className string,
	obfuscatedMethodName string,
	lineNumber int,
	originalType Hint,
	originalArguments Hint) []MethodInfo {

	// Class name -> obfuscated method names
	methodMap, ok := m.ClassMethodMap[className]
	if !ok {
		return nil
	}

	// Obfuscated method names -> methods
	methodList, ok := methodMap[obfuscatedMethodName]
	if !ok {
		return nil
	}

	var methods []MethodInfo
	for _, item := range methodList.Values() {
		methodInfo := item.(MethodInfo)
		if methodInfo.Matches(lineNumber, originalType, originalArguments) {
			methods = append(methods, methodInfo)
		}
	}
	return methods
}
