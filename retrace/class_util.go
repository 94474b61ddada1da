package retrace

import "strings"

const (
	javaPackageSeparator  = "."
	classPackageSeparator = "/"
	innerClassSeparator   = "$"
)

/*
* Convert an internal class name into an external class name.
* e.g. java/lang/Object -> java.lang.Object
 */
func ExternalClassName(name string) string {
	return strings.ReplaceAll(name, classPackageSeparator, javaPackageSeparator)
}

/*
* Convert an external class name into an internal class name.
* e.g. java.lang.Object -> java/lang/Object
 */
func InternalClassName(name string) string {
	return strings.ReplaceAll(name, javaPackageSeparator, classPackageSeparator)
}

// SourceFileName guesses the source file that declares the given external
// class name, e.g. com.example.Foo$Bar -> Foo.java.
func SourceFileName(className string) string {
	if len(className) == 0 {
		return className
	}

	simpleName := className[strings.LastIndex(className, javaPackageSeparator)+1:]
	if index := strings.Index(simpleName, innerClassSeparator); index > 0 {
		simpleName = simpleName[:index]
	}

	return simpleName + ".java"
}

// splitTypeSuffix splits an external type into its class name and its array
// suffix, e.g. a.b[][] -> (a.b, [][]).
func splitTypeSuffix(typeName string) (string, string) {
	index := strings.Index(typeName, "[")
	if index < 0 {
		return typeName, ""
	}
	return typeName[:index], typeName[index:]
}
