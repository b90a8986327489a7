package expand

import (
	"sort"
)

// Method is one of the methods callable as `$name(...)` or `@name(...)`.
type Method int

const (
	MethodBasename Method = iota
	MethodBytes
	MethodChars
	MethodContains
	MethodEndsWith
	MethodEscape
	MethodExtension
	MethodFilename
	MethodFind
	MethodGraphemes
	MethodJoin
	MethodKeys
	MethodLen
	MethodLenBytes
	MethodLines
	MethodMatches
	MethodOr
	MethodParent
	MethodRegexReplace
	MethodRepeat
	MethodReplace
	MethodReplacen
	MethodReverse
	MethodSplit
	MethodSplitAt
	MethodStartsWith
	MethodToLowercase
	MethodToUppercase
	MethodTrim
	MethodTrimEnd
	MethodTrimLeft
	MethodTrimRight
	MethodTrimStart
	MethodUnescape
	MethodValues
)

// MethodInfo describes a method.
type MethodInfo struct {
	Name   string
	Method Method
	// String and Array tell whether the method can be called with `$` and
	// `@` respectively.
	String bool
	Array  bool
	// MinArgs is the number of arguments after the receiver the method
	// needs.
	MinArgs     int
	Description string
}

// methodTable is sorted by name.
var methodTable = []MethodInfo{
	{Name: "basename", Method: MethodBasename, String: true, Description: "last element of a path"},
	{Name: "bytes", Method: MethodBytes, Array: true, Description: "bytes of a string as decimal numbers"},
	{Name: "chars", Method: MethodChars, Array: true, Description: "characters of a string"},
	{Name: "contains", Method: MethodContains, String: true, MinArgs: 1, Description: "whether the string contains any pattern"},
	{Name: "ends_with", Method: MethodEndsWith, String: true, MinArgs: 1, Description: "whether the string ends with any pattern"},
	{Name: "escape", Method: MethodEscape, String: true, Description: "escape control and special characters"},
	{Name: "extension", Method: MethodExtension, String: true, Description: "extension of a file name"},
	{Name: "filename", Method: MethodFilename, String: true, Description: "file name without its extension"},
	{Name: "find", Method: MethodFind, String: true, MinArgs: 1, Description: "byte offset of a pattern, -1 if absent"},
	{Name: "graphemes", Method: MethodGraphemes, Array: true, Description: "grapheme clusters of a string"},
	{Name: "join", Method: MethodJoin, String: true, Description: "join an array with a separator, space by default"},
	{Name: "keys", Method: MethodKeys, Array: true, Description: "keys of a map"},
	{Name: "len", Method: MethodLen, String: true, Description: "number of elements or graphemes"},
	{Name: "len_bytes", Method: MethodLenBytes, String: true, Description: "number of bytes"},
	{Name: "lines", Method: MethodLines, Array: true, Description: "lines of a string"},
	{Name: "matches", Method: MethodMatches, String: true, MinArgs: 1, Description: "whether the string matches a regular expression"},
	{Name: "or", Method: MethodOr, String: true, Description: "the value, or the first non-empty argument if it is empty"},
	{Name: "parent", Method: MethodParent, String: true, Description: "parent directory of a path"},
	{Name: "regex_replace", Method: MethodRegexReplace, String: true, MinArgs: 2, Description: "replace every regular expression match"},
	{Name: "repeat", Method: MethodRepeat, String: true, MinArgs: 1, Description: "repeat a string n times"},
	{Name: "replace", Method: MethodReplace, String: true, MinArgs: 2, Description: "replace every occurrence of a pattern"},
	{Name: "replacen", Method: MethodReplacen, String: true, MinArgs: 3, Description: "replace the first n occurrences of a pattern"},
	{Name: "reverse", Method: MethodReverse, String: true, Array: true, Description: "reverse a string or an array"},
	{Name: "split", Method: MethodSplit, String: true, Array: true, Description: "split on a pattern, whitespace by default"},
	{Name: "split_at", Method: MethodSplitAt, Array: true, MinArgs: 1, Description: "split a string in two at a byte offset"},
	{Name: "starts_with", Method: MethodStartsWith, String: true, MinArgs: 1, Description: "whether the string starts with any pattern"},
	{Name: "to_lowercase", Method: MethodToLowercase, String: true, Description: "lowercase a string"},
	{Name: "to_uppercase", Method: MethodToUppercase, String: true, Description: "uppercase a string"},
	{Name: "trim", Method: MethodTrim, String: true, Description: "strip surrounding whitespace"},
	{Name: "trim_end", Method: MethodTrimEnd, String: true, Description: "strip trailing whitespace"},
	{Name: "trim_left", Method: MethodTrimLeft, String: true, Description: "strip leading whitespace"},
	{Name: "trim_right", Method: MethodTrimRight, String: true, Description: "strip trailing whitespace"},
	{Name: "trim_start", Method: MethodTrimStart, String: true, Description: "strip leading whitespace"},
	{Name: "unescape", Method: MethodUnescape, String: true, Description: "resolve backslash escapes"},
	{Name: "values", Method: MethodValues, Array: true, Description: "values of a map"},
}

// LookupMethod finds a method by name.
func LookupMethod(name string) (MethodInfo, bool) {
	i := sort.Search(len(methodTable), func(i int) bool {
		return methodTable[i].Name >= name
	})
	if i < len(methodTable) && methodTable[i].Name == name {
		return methodTable[i], true
	}
	return MethodInfo{}, false
}

// Methods lists every method sorted by name.
func Methods() []MethodInfo {
	return append([]MethodInfo(nil), methodTable...)
}

func (m Method) String() string {
	for _, info := range methodTable {
		if info.Method == m {
			return info.Name
		}
	}
	return "unknown"
}

// resolveMethod checks name exists and can be used in the given context.
func resolveMethod(name string, array bool) (MethodInfo, error) {
	info, ok := LookupMethod(name)
	switch {
	case !ok:
		return info, &UnknownMethodError{Name: name}
	case array && !info.Array:
		return info, &ContextError{Method: name, Array: false}
	case !array && !info.String:
		return info, &ContextError{Method: name, Array: true}
	}
	return info, nil
}
