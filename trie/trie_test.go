package trie_test

import (
	"slices"
	"testing"

	"calq.dev/calq/trie"
)

func TestTrie_InsertAndContains(t *testing.T) {
	trie := trie.NewTrie()

	// Insert "ABC" and check containment
	trie.Insert("ABC")
	if !trie.Contains("ABC") {
		t.Error("Expected to find 'ABC', but it was not found.")
	}
	if trie.Contains("AB") {
		t.Error("Expected 'AB' to be not found, but it was found.")
	}
	if trie.Contains("ABCD") {
		t.Error("Expected 'ABCD' to be not found, but it was found.")
	}
	trie.Insert("AB2")
	if trie.Contains("AB") {
		t.Error("Expected 'AB' to be not found, but it was found after adding 'AB2'.")
	}
	if !trie.Contains("AB2") {
		t.Error("Expected to find 'AB2', but it was not found.")
	}
	// Insert "ABCD" and check both "ABC" and "ABCD"
	trie.Insert("ABCD")
	if !trie.Contains("ABC") {
		t.Error("Expected to find 'ABC', but it was not found after adding 'ABCD'.")
	}
	if !trie.Contains("ABCD") {
		t.Error("Expected to find 'ABCD', but it was not found.")
	}
}

func TestTrie_PrefixAll(t *testing.T) {
	tr := trie.NewTrie()
	for _, w := range []string{"while", "var", "value", "valid", "x"} {
		tr.Insert(w)
	}
	l, words := tr.PrefixAll("va")
	if !slices.Equal(words, []string{"valid", "value", "var"}) {
		t.Errorf("PrefixAll(va) = %v", words)
	}
	if l != 2 {
		t.Errorf("common prefix length %d, expected 2", l)
	}
	l, words = tr.PrefixAll("w")
	if !slices.Equal(words, []string{"while"}) || l != 5 {
		t.Errorf("PrefixAll(w) = %d %v", l, words)
	}
	l, words = tr.PrefixAll("vali")
	if !slices.Equal(words, []string{"valid"}) || l != 5 {
		t.Errorf("PrefixAll(vali) = %d %v", l, words)
	}
	if _, words = tr.PrefixAll("z"); words != nil {
		t.Errorf("PrefixAll(z) = %v, expected none", words)
	}
}
