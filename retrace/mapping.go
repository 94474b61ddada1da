package retrace

import (
	"io"
	"strings"

	"github.com/emirpasic/gods/lists/arraylist"
)

// ObfuscatedNameListMap Obfuscated member name -> member infos, in mapping
// order. Every declaration is kept, duplicates included.
type ObfuscatedNameListMap map[string]*arraylist.List

// Mapping is the reverse lookup structure built from a mapping file. It is
// only written while it is being pumped; afterwards it is safe for
// concurrent readers.
type Mapping struct {
	// ClassMap Obfuscated class name -> original class name.
	ClassMap map[string]string
	// ClassFieldMap Original class name -> obfuscated field name -> fields.
	ClassFieldMap map[string]ObfuscatedNameListMap
	// ClassMethodMap Original class name -> obfuscated method name -> methods.
	ClassMethodMap map[string]ObfuscatedNameListMap
}

// MappingStats summarizes the content of a Mapping.
type MappingStats struct {
	Classes int
	Fields  int
	Methods int
}

func NewMapping() *Mapping {
	return &Mapping{
		ClassMap:       make(map[string]string),
		ClassFieldMap:  make(map[string]ObfuscatedNameListMap),
		ClassMethodMap: make(map[string]ObfuscatedNameListMap),
	}
}

// LoadMapping reads a complete mapping file.
func LoadMapping(mappingFileReader io.Reader) (*Mapping, error) {
	mapping := NewMapping()
	if err := NewMappingReader(mappingFileReader).Pump(mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

func (m *Mapping) ProcessClassMapping(className string, newClassName string) bool {
	// Obfuscated class name -> original class name
	m.ClassMap[newClassName] = className
	return true
}

func (m *Mapping) ProcessFieldMapping(
	className string,
	fieldType string,
	fieldName string,
	newFieldName string) {

	// Original class name -> obfuscated field names -> fields
	m.memberList(m.ClassFieldMap, className, newFieldName).Add(FieldInfo{
		OriginalClassName: className,
		OriginalType:      fieldType,
		OriginalName:      fieldName,
	})
}

func (m *Mapping) ProcessMethodMapping(
	className string,
	firstLineNumber int,
	lastLineNumber int,
	methodReturnType string,
	methodName string,
	methodArguments string,
	newMethodName string) {

	// Does the method name contain an explicit original class name ?
	originalClassName := className
	if dotIndex := strings.LastIndex(methodName, "."); dotIndex >= 0 {
		originalClassName = methodName[:dotIndex]
		methodName = methodName[dotIndex+1:]
	}

	// Original class name -> obfuscated method names -> methods
	m.memberList(m.ClassMethodMap, className, newMethodName).Add(MethodInfo{
		FirstLineNumber:   firstLineNumber,
		LastLineNumber:    lastLineNumber,
		OriginalClassName: originalClassName,
		OriginalType:      methodReturnType,
		OriginalName:      methodName,
		OriginalArguments: methodArguments,
	})
}

func (m *Mapping) memberList(classMap map[string]ObfuscatedNameListMap, className string, newMemberName string) *arraylist.List {
	memberMap, ok := classMap[className]
	if !ok {
		memberMap = make(ObfuscatedNameListMap)
		classMap[className] = memberMap
	}

	memberList, ok := memberMap[newMemberName]
	if !ok {
		memberList = arraylist.New()
		memberMap[newMemberName] = memberList
	}

	return memberList
}

// Stats counts the classes and members held by the mapping.
func (m *Mapping) Stats() MappingStats {
	stats := MappingStats{Classes: len(m.ClassMap)}
	for _, fieldMap := range m.ClassFieldMap {
		for _, fieldList := range fieldMap {
			stats.Fields += fieldList.Size()
		}
	}
	for _, methodMap := range m.ClassMethodMap {
		for _, methodList := range methodMap {
			stats.Methods += methodList.Size()
		}
	}
	return stats
}

// OriginalClassName returns the original name of the given obfuscated class,
// or the name itself if it is unknown.
func (m *Mapping) OriginalClassName(obfuscatedClassName string) string {
	originalClassName, _ := m.lookupClassName(obfuscatedClassName)
	return originalClassName
}

func (m *Mapping) lookupClassName(obfuscatedClassName string) (string, bool) {
	if originalClassName, ok := m.ClassMap[obfuscatedClassName]; ok {
		return originalClassName, true
	}
	return obfuscatedClassName, false
}

// OriginalType returns the original type of the given obfuscated type, which
// may be an array type.
func (m *Mapping) OriginalType(obfuscatedType string) string {
	className, suffix := splitTypeSuffix(obfuscatedType)
	return m.OriginalClassName(className) + suffix
}

// OriginalArguments returns the original types of the given comma separated
// obfuscated argument types.
func (m *Mapping) OriginalArguments(obfuscatedArguments string) string {
	tokens := strings.Split(obfuscatedArguments, ",")

	originalArguments := make([]string, len(tokens))
	for index, token := range tokens {
		originalArguments[index] = m.OriginalType(strings.TrimSpace(token))
	}

	return strings.Join(originalArguments, ",")
}
