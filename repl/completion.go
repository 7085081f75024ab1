package repl

import (
	"fmt"

	"calq.dev/calq/lexer"
	"calq.dev/calq/token"
	"calq.dev/calq/trie"
	"fortio.org/terminal"
)

type AutoComplete struct {
	Trie *trie.Trie
}

// NewCompletion returns a completer knowing the keywords. Top level names
// are added as they are declared once the trie is registered on a runtime.
func NewCompletion() *AutoComplete {
	t := trie.NewTrie()
	for kw := range token.Info().Keywords {
		t.Insert(kw)
	}
	return &AutoComplete{t}
}

func (a *AutoComplete) AutoComplete() terminal.AutoCompleteCallback {
	return func(t *terminal.Terminal, line string, pos int, key rune) (newLine string, newPos int, ok bool) {
		if key != '\t' {
			return // only tab for now
		}
		var choices []string
		newLine, newPos, choices, ok = a.Complete(line, pos)
		if len(choices) > 1 {
			fmt.Fprint(t.Out, "One of: ")
			for _, c := range choices {
				fmt.Fprint(t.Out, c, " ")
			}
			fmt.Fprintln(t.Out)
		}
		return newLine, newPos, ok
	}
}

// Complete extends the word ending at pos to the longest common prefix of
// the known names starting with it. Choices lists them when ambiguous.
func (a *AutoComplete) Complete(line string, pos int) (newLine string, newPos int, choices []string, ok bool) {
	start := pos
	for start > 0 && lexer.IsAlphaNum(line[start-1]) {
		start--
	}
	word := line[start:pos]
	if word == "" {
		return
	}
	l, words := a.Trie.PrefixAll(word)
	if len(words) == 0 {
		return
	}
	completion := words[0][:l]
	return line[:start] + completion + line[pos:], start + l, words, true
}
