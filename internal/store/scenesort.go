package store

import (
	"sort"
	"strconv"
	"unicode"
)

// Scene names interleave numeric and literal runs ("1_ARC_01"). They
// sort by decomposing into tokens and comparing token-wise, with an
// explicit rule for mixed kinds: a numeric token orders before a
// literal one.

type tokenKind int

const (
	numberToken tokenKind = iota
	literalToken
)

type nameToken struct {
	kind    tokenKind
	number  int
	literal string
}

// tokenizeName splits a scene name into maximal digit runs and literal
// runs. A digit run too large for int stays literal.
func tokenizeName(s string) []nameToken {
	var tokens []nameToken
	runes := []rune(s)
	for i := 0; i < len(runes); {
		j := i
		if unicode.IsDigit(runes[i]) {
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			run := string(runes[i:j])
			if n, err := strconv.Atoi(run); err == nil {
				tokens = append(tokens, nameToken{kind: numberToken, number: n})
			} else {
				tokens = append(tokens, nameToken{kind: literalToken, literal: run})
			}
		} else {
			for j < len(runes) && !unicode.IsDigit(runes[j]) {
				j++
			}
			tokens = append(tokens, nameToken{kind: literalToken, literal: string(runes[i:j])})
		}
		i = j
	}
	return tokens
}

// CompareSceneNames orders two scene names naturally: numeric runs by
// value, literal runs lexically, numeric before literal when the kinds
// differ, and a strict prefix before its extension.
func CompareSceneNames(a, b string) int {
	ta := tokenizeName(a)
	tb := tokenizeName(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		x, y := ta[i], tb[i]
		if x.kind != y.kind {
			if x.kind == numberToken {
				return -1
			}
			return 1
		}
		if x.kind == numberToken {
			if x.number != y.number {
				if x.number < y.number {
					return -1
				}
				return 1
			}
			continue
		}
		if x.literal != y.literal {
			if x.literal < y.literal {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ta) < len(tb):
		return -1
	case len(ta) > len(tb):
		return 1
	default:
		return 0
	}
}

// SortSceneNames sorts scene names in place in natural order.
func SortSceneNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return CompareSceneNames(names[i], names[j]) < 0
	})
}
