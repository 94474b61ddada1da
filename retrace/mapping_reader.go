package retrace

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

const maxMappingLineSize = 1024 * 1024

// MappingReader reads a mapping file as written by ProGuard or R8 and feeds
// its declarations to a MappingProcessor, in file order.
type MappingReader struct {
	fileReader io.Reader
}

func NewMappingReader(fileReader io.Reader) *MappingReader {
	reader := MappingReader{
		fileReader: fileReader,
	}

	return &reader
}

// Pump reads the whole mapping file. Lines that can't be parsed are skipped;
// only read errors are returned.
func (r *MappingReader) Pump(processor MappingProcessor) error {
	var className string
	var lineNumber int

	scanner := bufio.NewScanner(r.fileReader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMappingLineSize)
	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		// Is it a comment line ?
		if strings.HasPrefix(line, "#") {
			continue
		}

		// Is it a class mapping or a class member mapping
		if strings.HasSuffix(line, ":") {
			// Process the class mapping and remember the class's old name
			className = r.processClassMapping(line, processor)
		} else if len(className) > 0 {
			// Process the class member mapping, in the context of the current old class name
			if err := r.processClassMemberMapping(className, line, processor); err != nil {
				log.WithError(err).WithFields(log.Fields{
					"line":    lineNumber,
					"mapping": line,
				}).Debug("Skipping malformed mapping line")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "can't read mapping file")
	}

	return nil
}

func (r *MappingReader) processClassMapping(line string, processor MappingProcessor) string {
	// See if we can parse "____ -> ____:", containing the original
	// class name and the new class name
	arrowIndex := IndexOf(line, "->", 0)
	if arrowIndex < 0 {
		return ""
	}

	colonIndex := IndexOf(line, ":", arrowIndex+2)
	if colonIndex < 0 {
		return ""
	}

	// Extract the elements
	className := strings.TrimSpace(line[0:arrowIndex])
	newClassName := strings.TrimSpace(line[arrowIndex+2 : colonIndex])
	if len(className) == 0 || len(newClassName) == 0 {
		return ""
	}

	// Process this class name mapping
	if processor.ProcessClassMapping(className, newClassName) {
		return className
	}

	return ""
}

// processClassMemberMapping parses one of
//
//	___ ___ -> ___
//	___ ___(___) -> ___
//	___:___:___ ___(___) -> ___
//	___:___:___ ___(___):___ -> ___
//	___:___:___ ___(___):___:___ -> ___
//
// containing the optional obfuscated line numbers, the type, the original
// field/method name, optional arguments, the optional original line numbers,
// and the new field/method name. The original method name may contain the
// class it was inlined from, "___.___".
func (r *MappingReader) processClassMemberMapping(className string, line string, processor MappingProcessor) error {
	arrowIndex := IndexOf(line, "->", 0)
	if arrowIndex < 0 {
		return errors.New("missing '->'")
	}

	newClassMemberName := strings.TrimSpace(line[arrowIndex+2:])
	member := strings.TrimSpace(line[:arrowIndex])

	firstLineNumber, lastLineNumber, member, err := parseLineNumberPrefix(member)
	if err != nil {
		return err
	}

	spaceIndex := IndexOf(member, " ", 0)
	if spaceIndex < 0 {
		return errors.New("missing member type")
	}

	classMemberType := strings.TrimSpace(member[:spaceIndex])
	member = strings.TrimSpace(member[spaceIndex+1:])
	if strings.Contains(classMemberType, ":") {
		return errors.Errorf("invalid member type %q", classMemberType)
	}

	argumentIndex1 := IndexOf(member, "(", 0)
	if argumentIndex1 < 0 {
		// It's a field.
		if len(classMemberType) == 0 || len(member) == 0 || len(newClassMemberName) == 0 {
			return errors.New("incomplete field mapping")
		}
		processor.ProcessFieldMapping(className, classMemberType, member, newClassMemberName)
		return nil
	}

	argumentIndex2 := IndexOf(member, ")", argumentIndex1+1)
	if argumentIndex2 < 0 {
		return errors.New("missing ')'")
	}

	classMemberName := strings.TrimSpace(member[:argumentIndex1])
	arguments := strings.TrimSpace(member[argumentIndex1+1 : argumentIndex2])
	if len(classMemberType) == 0 || len(classMemberName) == 0 || len(newClassMemberName) == 0 {
		return errors.New("incomplete method mapping")
	}

	// The trailing range holds the line numbers in the original source. Only
	// the obfuscated range is matched against stack traces and line numbers
	// are printed as they are, so the trailing range is checked and dropped.
	if suffix := strings.TrimSpace(member[argumentIndex2+1:]); len(suffix) > 0 {
		if err := checkOriginalLineNumbers(suffix); err != nil {
			return err
		}
	}

	processor.ProcessMethodMapping(
		className,
		firstLineNumber,
		lastLineNumber,
		classMemberType,
		classMemberName,
		arguments,
		newClassMemberName,
	)

	return nil
}

// parseLineNumberPrefix splits an optional "first:last:" or "line:" prefix off
// a class member mapping.
func parseLineNumberPrefix(member string) (int, int, string, error) {
	colonIndex1 := IndexOf(member, ":", 0)
	if colonIndex1 < 0 || !isDigits(member[:colonIndex1]) {
		return 0, 0, member, nil
	}

	firstLineNumber, err := strconv.Atoi(member[:colonIndex1])
	if err != nil {
		return 0, 0, member, errors.Wrap(err, "invalid first line number")
	}

	colonIndex2 := IndexOf(member, ":", colonIndex1+1)
	if colonIndex2 < 0 || !isDigits(member[colonIndex1+1:colonIndex2]) {
		return firstLineNumber, firstLineNumber, member[colonIndex1+1:], nil
	}

	lastLineNumber, err := strconv.Atoi(member[colonIndex1+1 : colonIndex2])
	if err != nil {
		return 0, 0, member, errors.Wrap(err, "invalid last line number")
	}

	return firstLineNumber, lastLineNumber, member[colonIndex2+1:], nil
}

func checkOriginalLineNumbers(suffix string) error {
	if !strings.HasPrefix(suffix, ":") {
		return errors.Errorf("unexpected text %q after arguments", suffix)
	}

	for _, number := range strings.Split(suffix[1:], ":") {
		if !isDigits(strings.TrimSpace(number)) {
			return errors.Errorf("invalid original line number %q", number)
		}
	}

	return nil
}

func isDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
