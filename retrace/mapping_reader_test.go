package retrace

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classMapping struct {
	className    string
	newClassName string
}

type fieldMapping struct {
	className    string
	fieldType    string
	fieldName    string
	newFieldName string
}

type methodMapping struct {
	className        string
	firstLineNumber  int
	lastLineNumber   int
	methodReturnType string
	methodName       string
	methodArguments  string
	newMethodName    string
}

type MockMappingProcessor struct {
	classes []classMapping
	fields  []fieldMapping
	methods []methodMapping

	uninterested map[string]bool
}

func (processor *MockMappingProcessor) ProcessClassMapping(className string, newClassName string) bool {
	processor.classes = append(processor.classes, classMapping{className, newClassName})
	return !processor.uninterested[className]
}

func (processor *MockMappingProcessor) ProcessFieldMapping(
	className string,
	fieldType string,
	fieldName string,
	newFieldName string) {
	processor.fields = append(processor.fields, fieldMapping{className, fieldType, fieldName, newFieldName})
}

func (processor *MockMappingProcessor) ProcessMethodMapping(
	className string,
	firstLineNumber int,
	lastLineNumber int,
	methodReturnType string,
	methodName string,
	methodArguments string,
	newMethodName string) {
	processor.methods = append(processor.methods, methodMapping{
		className,
		firstLineNumber,
		lastLineNumber,
		methodReturnType,
		methodName,
		methodArguments,
		newMethodName,
	})
}

const r8Mapping = `# compiler: R8
# compiler_version: 1.4.94
# min_api: 21
android.arch.core.executor.ArchTaskExecutor -> c:
    android.arch.core.executor.TaskExecutor mDelegate -> qb
    android.arch.core.executor.TaskExecutor mDefaultTaskExecutor -> ne
    1:1:void <clinit>():42:42 -> <clinit>
    1:3:void <init>():57:59 -> <init>
    1:1:void executeOnDiskIO(java.lang.Runnable):96:96 -> b
    3:5:android.arch.core.executor.ArchTaskExecutor getInstance():72:74 -> getInstance
android.arch.core.executor.ArchTaskExecutor$1 -> a:
    2:2:void android.arch.core.executor.ArchTaskExecutor.postToMainThread(java.lang.Runnable):101:101 -> execute
    2:2:void execute(java.lang.Runnable):45 -> execute

android.arch.core.executor.TaskExecutor -> e:
    void executeOnDiskIO(java.lang.Runnable) -> b
    boolean isMainThread() -> ee
`

func TestJavaExceptionParser(t *testing.T) {
	processor := MockMappingProcessor{}
	err := NewMappingReader(strings.NewReader(r8Mapping)).Pump(&processor)
	require.NoError(t, err)

	assert.Equal(t, []classMapping{
		{"android.arch.core.executor.ArchTaskExecutor", "c"},
		{"android.arch.core.executor.ArchTaskExecutor$1", "a"},
		{"android.arch.core.executor.TaskExecutor", "e"},
	}, processor.classes)

	assert.Equal(t, []fieldMapping{
		{"android.arch.core.executor.ArchTaskExecutor", "android.arch.core.executor.TaskExecutor", "mDelegate", "qb"},
		{"android.arch.core.executor.ArchTaskExecutor", "android.arch.core.executor.TaskExecutor", "mDefaultTaskExecutor", "ne"},
	}, processor.fields)

	assert.Equal(t, []methodMapping{
		{"android.arch.core.executor.ArchTaskExecutor", 1, 1, "void", "<clinit>", "", "<clinit>"},
		{"android.arch.core.executor.ArchTaskExecutor", 1, 3, "void", "<init>", "", "<init>"},
		{"android.arch.core.executor.ArchTaskExecutor", 1, 1, "void", "executeOnDiskIO", "java.lang.Runnable", "b"},
		{"android.arch.core.executor.ArchTaskExecutor", 3, 5, "android.arch.core.executor.ArchTaskExecutor", "getInstance", "", "getInstance"},
		{"android.arch.core.executor.ArchTaskExecutor$1", 2, 2, "void", "android.arch.core.executor.ArchTaskExecutor.postToMainThread", "java.lang.Runnable", "execute"},
		{"android.arch.core.executor.ArchTaskExecutor$1", 2, 2, "void", "execute", "java.lang.Runnable", "execute"},
		{"android.arch.core.executor.TaskExecutor", 0, 0, "void", "executeOnDiskIO", "java.lang.Runnable", "b"},
		{"android.arch.core.executor.TaskExecutor", 0, 0, "boolean", "isMainThread", "", "ee"},
	}, processor.methods)
}

func TestMappingReaderSkipsMalformedLines(t *testing.T) {
	mapping := `com.example.Foo -> a:
    int count
    int -> b
    void bar( -> c
    x:1:void baz() -> d
    10:20:void qux():abc -> e
    5:void single() -> f
    void ok(int,java.lang.String) -> g
no arrow here:
    int orphan -> h
`
	processor := MockMappingProcessor{}
	err := NewMappingReader(strings.NewReader(mapping)).Pump(&processor)
	require.NoError(t, err)

	assert.Equal(t, []classMapping{{"com.example.Foo", "a"}}, processor.classes)
	assert.Empty(t, processor.fields)
	assert.Equal(t, []methodMapping{
		{"com.example.Foo", 5, 5, "void", "single", "", "f"},
		{"com.example.Foo", 0, 0, "void", "ok", "int,java.lang.String", "g"},
	}, processor.methods)
}

func TestMappingReaderUninterestedClass(t *testing.T) {
	mapping := `com.example.Skipped -> a:
    int count -> a
com.example.Kept -> b:
    int count -> a
`
	processor := MockMappingProcessor{uninterested: map[string]bool{"com.example.Skipped": true}}
	err := NewMappingReader(strings.NewReader(mapping)).Pump(&processor)
	require.NoError(t, err)

	assert.Equal(t, []fieldMapping{{"com.example.Kept", "int", "count", "a"}}, processor.fields)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestMappingReaderReadError(t *testing.T) {
	err := NewMappingReader(failingReader{}).Pump(&MockMappingProcessor{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't read mapping file")
	assert.Contains(t, err.Error(), "disk on fire")
}
