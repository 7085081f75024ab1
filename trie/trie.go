// Trie implements a byte trie data structure, used for completion of
// keywords and declared names.
// It is fast as it uses arrays instead of maps.
package trie // import "calq.dev/calq/trie"

type Trie struct {
	// Children of this node
	children [256]*Trie
	// This node itself is a valid leaf (end of a word) in addition having children.
	valid bool
}

func NewTrie() *Trie {
	return &Trie{}
}

func (t *Trie) Insert(word string) {
	for i := range len(word) {
		char := word[i]
		if t.children[char] == nil {
			t.children[char] = &Trie{}
		}
		t = t.children[char]
	}
	t.valid = true
}

func (t *Trie) Contains(word string) bool {
	return t.Prefix(word).IsValid()
}

// Prefix returns the node reached by following word, nil if there is none.
func (t *Trie) Prefix(word string) *Trie {
	for i := range len(word) {
		char := word[i]
		t = t.children[char]
		if t == nil {
			return nil
		}
	}
	return t
}

func (t *Trie) IsValid() bool {
	return t != nil && t.valid
}

// PrefixAll returns all the words starting with prefix, in byte order, and
// the length of their longest common prefix.
func (t *Trie) PrefixAll(prefix string) (int, []string) {
	node := t.Prefix(prefix)
	if node == nil {
		return 0, nil
	}
	var res []string
	node.collect([]byte(prefix), &res)
	if len(res) == 0 {
		return 0, nil
	}
	common := len(prefix)
	// Extend while there is a single path with no word ending on it.
	for !node.valid {
		var next *Trie
		n := 0
		for _, child := range node.children {
			if child != nil {
				n++
				next = child
			}
		}
		if n != 1 {
			break
		}
		node = next
		common++
	}
	return common, res
}

func (t *Trie) collect(current []byte, res *[]string) {
	if t.valid {
		*res = append(*res, string(current))
	}
	for c, child := range t.children {
		if child != nil {
			child.collect(append(current, byte(c)), res) //nolint:gosec // range of a [256] array.
		}
	}
}
