package retrace

// MappingProcessor receives the declarations of a mapping file, in file
// order. Mapping is the processor used for retracing; MappingReader drives
// it.
type MappingProcessor interface {
	// ProcessClassMapping is called for every "className -> newClassName:"
	// line. It returns whether the members of the class should be passed on.
	ProcessClassMapping(className string, newClassName string) bool

	// ProcessFieldMapping is called for every field of an accepted class.
	// The field type is an external type, e.g. java.lang.String[].
	ProcessFieldMapping(
		className string,
		fieldType string,
		fieldName string,
		newFieldName string)

	// ProcessMethodMapping is called for every method of an accepted class.
	// Line numbers are 0 when the mapping has none. The method name may be
	// qualified with the class it was inlined from, e.g. com.example.Util.max.
	ProcessMethodMapping(
		className string,
		firstLineNumber int,
		lastLineNumber int,
		methodReturnType string,
		methodName string,
		methodArguments string,
		newMethodName string)
}
