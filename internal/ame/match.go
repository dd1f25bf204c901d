package ame

import "strings"

// Match reports whether text matches pattern under the variable-title
// wildcard rules: "*" matches anything, "x*" matches a prefix, "*x" a
// suffix, and "*x*" a substring. Any other pattern must match exactly.
// Empty text or an empty pattern never matches.
func Match(text, pattern string) bool {
	if text == "" || pattern == "" {
		return false
	}

	if pattern == "*" {
		return true
	}

	if text == pattern {
		return true
	}

	var stars []int
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '*' {
			stars = append(stars, i)
		}
	}

	switch {
	case len(stars) == 1:
		if len(pattern)-1 > len(text) {
			return false
		}
		if stars[0] == len(pattern)-1 {
			return text[:stars[0]] == pattern[:stars[0]]
		}
		if stars[0] == 0 {
			return text[len(text)-len(pattern)+1:] == pattern[1:]
		}
	case len(stars) == 2 && stars[0] == 0 && stars[1] == len(pattern)-1:
		return strings.Contains(text, pattern[1:len(pattern)-1])
	}

	return false
}

// SelectVars extracts the columns of rs whose names match pattern.
// The pattern and the names are compared after trimming.
func SelectVars(rs *ResultSet, pattern string) *ResultSet {
	out := &ResultSet{System: rs.System}
	pattern = strings.TrimSpace(pattern)

	for i, name := range rs.Names {
		if Match(strings.TrimSpace(name), pattern) {
			out.Names = append(out.Names, strings.TrimSpace(name))
			out.Data = append(out.Data, rs.Data[i])
		}
	}

	return out
}
