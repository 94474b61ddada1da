package retrace

import (
	"strings"
	"unicode/utf8"
)

// IndexOf returns the index of the first instance of subStr in s at or after
// position, or -1 if it is not present.
func IndexOf(s string, subStr string, position int) int {
	if position < 0 {
		position = 0
	}
	if position > len(s) {
		return -1
	}

	index := strings.Index(s[position:], subStr)
	if index < 0 {
		return index
	}
	return position + index
}

// FieldsFuncWithDelims splits s like strings.FieldsFunc, but keeps every
// delimiter rune as a token of its own, so joining the tokens yields s again.
func FieldsFuncWithDelims(s string, isDelim func(rune) bool) []string {
	var tokens []string

	start := 0
	for index := 0; index < len(s); {
		r, size := utf8.DecodeRuneInString(s[index:])
		if isDelim(r) {
			if index > start {
				tokens = append(tokens, s[start:index])
			}
			tokens = append(tokens, s[index:index+size])
			start = index + size
		}
		index += size
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}

	return tokens
}

// columnOf returns the display column of the end of s, counted in runes.
func columnOf(s string) int {
	return utf8.RuneCountInString(s)
}
