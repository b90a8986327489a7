package expand

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/redox-os/ion-sub003/core/types"
	"github.com/rivo/uniseg"
)

// maxRepeatBytes caps the output of repeat.
const maxRepeatBytes = 1 << 24

// methodCall is a method with its receiver and expanded arguments.
type methodCall struct {
	info     MethodInfo
	receiver types.Value
	args     []string
	hasArgs  bool
}

func (c methodCall) pattern() Pattern {
	if !c.hasArgs {
		return WhitespacePattern
	}
	return LiteralPattern(strings.Join(c.args, " "))
}

func (c methodCall) checkArgs() error {
	if len(c.args) < c.info.MinArgs {
		return &ArgCountError{Method: c.info.Name, Want: c.info.MinArgs, Got: len(c.args)}
	}
	return nil
}

func (c methodCall) typeError(reason string) error {
	return &ArgTypeError{Method: c.info.Name, Reason: reason}
}

// stringMethod evaluates a method called with `$`.
func stringMethod(c methodCall) (string, error) {
	if err := c.checkArgs(); err != nil {
		return "", err
	}
	value := c.receiver.String()

	switch c.info.Method {
	case MethodBasename:
		return pathBase(value), nil
	case MethodExtension:
		_, ext := splitExtension(pathBase(value))
		return ext, nil
	case MethodFilename:
		stem, _ := splitExtension(pathBase(value))
		return stem, nil
	case MethodParent:
		return pathParent(value), nil
	case MethodToLowercase:
		return strings.ToLower(value), nil
	case MethodToUppercase:
		return strings.ToUpper(value), nil
	case MethodTrim:
		return strings.TrimSpace(value), nil
	case MethodTrimEnd, MethodTrimRight:
		return strings.TrimRightFunc(value, unicode.IsSpace), nil
	case MethodTrimStart, MethodTrimLeft:
		return strings.TrimLeftFunc(value, unicode.IsSpace), nil

	case MethodRepeat:
		n, err := strconv.Atoi(c.pattern().Literal)
		if err != nil || n < 0 {
			return "", c.typeError("argument is not a valid positive integer")
		}
		if n > 0 && len(value) > maxRepeatBytes/n {
			return "", c.typeError("result is too large")
		}
		return strings.Repeat(value, n), nil

	case MethodReplace:
		return strings.ReplaceAll(value, c.args[0], c.args[1]), nil

	case MethodReplacen:
		n, err := strconv.Atoi(c.args[2])
		if err != nil || n < 0 {
			return "", c.typeError("third argument isn't a valid integer")
		}
		return strings.Replace(value, c.args[0], c.args[1], n), nil

	case MethodRegexReplace:
		re, err := compile(c.info.Name, c.args[0])
		if err != nil {
			return "", err
		}
		return re.ReplaceAllString(value, c.args[1]), nil

	case MethodJoin:
		sep := " "
		if c.hasArgs {
			sep = c.pattern().Literal
		}
		return strings.Join(c.receiver.Words(), sep), nil

	case MethodLen:
		if c.receiver.IsArray() {
			return strconv.Itoa(c.receiver.Len()), nil
		}
		return strconv.Itoa(uniseg.GraphemeClusterCount(value)), nil

	case MethodLenBytes:
		return strconv.Itoa(len(value)), nil

	case MethodReverse:
		clusters := graphemes(value)
		var sb strings.Builder
		for i := len(clusters) - 1; i >= 0; i-- {
			sb.WriteString(clusters[i])
		}
		return sb.String(), nil

	case MethodFind:
		return strconv.Itoa(strings.Index(value, c.pattern().Literal)), nil

	case MethodUnescape:
		return Unescape(value), nil

	case MethodEscape:
		return Escape(value), nil

	case MethodOr:
		if value != "" {
			return value, nil
		}
		for _, arg := range c.args {
			if arg != "" && arg != "," {
				return strings.TrimSuffix(arg, ","), nil
			}
		}
		return "", nil

	case MethodContains, MethodStartsWith, MethodEndsWith:
		return strconv.FormatBool(matchAny(c.info.Method, value, c.args)), nil

	case MethodMatches:
		re, err := compile(c.info.Name, c.args[0])
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(re.MatchString(value)), nil

	case MethodSplit:
		parts := split(value, c.pattern())
		return strings.Join(parts, " "), nil
	}

	return "", &ContextError{Method: c.info.Name, Array: true}
}

func matchAny(method Method, value string, patterns []string) bool {
	for _, p := range patterns {
		var ok bool
		switch method {
		case MethodStartsWith:
			ok = strings.HasPrefix(value, p)
		case MethodEndsWith:
			ok = strings.HasSuffix(value, p)
		default:
			ok = strings.Contains(value, p)
		}
		if ok {
			return true
		}
	}
	return false
}

func compile(method, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &RegexError{Method: method, Pattern: pattern, Err: err}
	}
	return re, nil
}

func split(value string, p Pattern) []string {
	if p.Whitespace {
		return strings.Fields(value)
	}
	return strings.Split(value, p.Literal)
}

func graphemes(value string) []string {
	var out []string
	g := uniseg.NewGraphemes(value)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// pathBase returns the last element of a path, the path itself if it has
// none.
func pathBase(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return path
	}
	base := trimmed[strings.LastIndexByte(trimmed, '/')+1:]
	if base == ".." {
		return path
	}
	return base
}

// pathParent returns everything before the last element of a path.
func pathParent(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return path
	}
	switch i := strings.LastIndexByte(trimmed, '/'); {
	case i < 0:
		return ""
	case i == 0:
		return "/"
	default:
		return strings.TrimRight(trimmed[:i], "/")
	}
}

// splitExtension splits a file name at its last dot. Names starting with
// their only dot have no extension.
func splitExtension(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || name == ".." {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// Escape backslash escapes control characters and ASCII punctuation.
func Escape(input string) string {
	var sb strings.Builder
	sb.Grow(len(input) * 2)
	for _, r := range input {
		switch r {
		case 0:
			sb.WriteString(`\0`)
		case 7:
			sb.WriteString(`\a`)
		case 8:
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\v':
			sb.WriteString(`\v`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		case 27:
			sb.WriteString(`\e`)
		default:
			if needsEscape(r) {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// needsEscape reports ASCII punctuation other than `;` and `_`.
func needsEscape(r rune) bool {
	if r >= 127 || r == ';' || r == '_' {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Unescape resolves backslash escapes. `\c` ends the output.
func Unescape(input string) string {
	var (
		sb    strings.Builder
		check bool
	)
	for _, r := range input {
		if !check {
			if r == '\\' {
				check = true
			} else {
				sb.WriteRune(r)
			}
			continue
		}

		check = false
		switch r {
		case '\\', '\'', '"', ' ':
			sb.WriteRune(r)
		case 'a':
			sb.WriteByte(7)
		case 'b':
			sb.WriteByte(8)
		case 'c':
			return sb.String()
		case 'e':
			sb.WriteByte(27)
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}
	if check {
		sb.WriteByte('\\')
	}
	return sb.String()
}
