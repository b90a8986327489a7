package expand

// Conditional evaluates the builtin form of starts_with, ends_with, contains
// and matches. args[0] is the name, args[1] the value and the rest are
// patterns; the string tests succeed if any pattern matches.
func Conditional(args []string) (bool, error) {
	if len(args) == 0 {
		return false, &ArgCountError{Want: 2}
	}

	name := args[0]
	info, ok := LookupMethod(name)
	if !ok {
		return false, &UnknownMethodError{Name: name}
	}

	switch info.Method {
	case MethodStartsWith, MethodEndsWith, MethodContains:
		if len(args) < 3 {
			return false, &ArgCountError{Method: name, Want: 2, Got: len(args) - 1}
		}
		return matchAny(info.Method, args[1], args[2:]), nil

	case MethodMatches:
		if len(args) != 3 {
			return false, &ArgCountError{Method: name, Want: 2, Got: len(args) - 1, Exact: true}
		}
		re, err := compile(name, args[2])
		if err != nil {
			return false, err
		}
		return re.MatchString(args[1]), nil
	}

	return false, &UnknownMethodError{Name: name}
}
