// Package assignments parses the `keys op values` form of let statements
// and checks values against the types annotated on the keys.
package assignments

import "strings"

// Statement is an assignment split into its three parts. Keys and Value are
// left unparsed.
type Statement struct {
	Keys     string
	Op       Operator
	HasOp    bool
	Value    string
	HasValue bool
}

// Lex splits stmt at the first operator outside quotes and brackets. A
// statement without an operator is a declaration and has only keys.
func Lex(stmt string) Statement {
	stmt = strings.TrimSpace(stmt)

	var (
		depth          int
		squote, dquote bool
	)
	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		switch {
		case squote:
			if c == '\'' {
				squote = false
			}
			continue
		case dquote:
			if c == '\\' {
				i++
			} else if c == '"' {
				dquote = false
			}
			continue
		}

		switch c {
		case '\'':
			squote = true
			continue
		case '"':
			dquote = true
			continue
		case '[', '(', '{':
			depth++
			continue
		case ']', ')', '}':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth > 0 {
			continue
		}

		op, n, ok := operatorAt(stmt, i)
		if !ok {
			continue
		}
		value := strings.TrimSpace(stmt[i+n:])
		return Statement{
			Keys:     strings.TrimSpace(stmt[:i]),
			Op:       op,
			HasOp:    true,
			Value:    value,
			HasValue: value != "",
		}
	}

	return Statement{Keys: stmt}
}

// String reassembles the statement in canonical spacing.
func (s Statement) String() string {
	var sb strings.Builder
	sb.WriteString(s.Keys)
	if s.HasOp {
		sb.WriteByte(' ')
		sb.WriteString(s.Op.String())
	}
	if s.HasValue {
		sb.WriteByte(' ')
		sb.WriteString(s.Value)
	}
	return sb.String()
}
