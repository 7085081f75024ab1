package token

import "fortio.org/sets"

// Info enables introspection of known keywords and operator tokens.
// Used by the repl for completion.
type CalqInfo struct {
	Keywords sets.Set[string]
	Tokens   sets.Set[string]
}

var info = CalqInfo{}

func Info() CalqInfo {
	return info
}
