package classify

import "strings"

// ErrorPattern is a categorical diagnosis of why a submitted word differed
// from the target.
type ErrorPattern string

const (
	PatternLengthMismatch    ErrorPattern = "length_mismatch"
	PatternVowelConfusion    ErrorPattern = "vowel_confusion"
	PatternLetterOrder       ErrorPattern = "letter_order"
	PatternPhoneticConfusion ErrorPattern = "phonetic_confusion"
	PatternSingleLetter      ErrorPattern = "single_letter"
	PatternLetterSwap        ErrorPattern = "letter_swap"
	PatternOther             ErrorPattern = "other"
)

// rule pairs a predicate with the pattern it diagnoses.
type rule struct {
	pattern ErrorPattern
	matches func(target, input string) bool
}

// rules are evaluated in order and the first match wins. The ordering is
// load-bearing: pedagogical recommendations are keyed to the tag, so a
// mismatch must classify as the most specific diagnostic reachable first.
var rules = []rule{
	{PatternLengthMismatch, lengthMismatch},
	{PatternVowelConfusion, vowelConfusion},
	{PatternLetterOrder, letterOrder},
	{PatternPhoneticConfusion, phoneticConfusion},
	{PatternSingleLetter, singleLetter},
	{PatternLetterSwap, letterSwap},
}

// Classify diagnoses a wrong answer. It is pure and deterministic; callers
// normally only invoke it when input differs from target, but an exact match
// falls through to "other" rather than panicking.
func Classify(target, input string) ErrorPattern {
	target = strings.ToLower(target)
	input = strings.ToLower(input)
	for _, r := range rules {
		if r.matches(target, input) {
			return r.pattern
		}
	}
	return PatternOther
}

func lengthMismatch(target, input string) bool {
	return len(input) != len(target)
}

const vowels = "aeiou"

// vowelConfusion matches when the set of vowels present differs between
// target and input. Lengths are known equal by the time this rule runs.
func vowelConfusion(target, input string) bool {
	return vowelSet(target) != vowelSet(input)
}

func vowelSet(s string) [5]bool {
	var set [5]bool
	for _, c := range s {
		if i := strings.IndexRune(vowels, c); i >= 0 {
			set[i] = true
		}
	}
	return set
}

// letterOrder matches anagrams: same multiset of letters, different sequence.
// A bare adjacent transposition is carved out so it falls through to the
// letter_swap rule, which is the more specific diagnostic for that case.
func letterOrder(target, input string) bool {
	if target == input || letterSwap(target, input) {
		return false
	}
	counts := make(map[byte]int, len(target))
	for i := 0; i < len(target); i++ {
		counts[target[i]]++
	}
	for i := 0; i < len(input); i++ {
		counts[input[i]]--
		if counts[input[i]] < 0 {
			return false
		}
	}
	return true
}

// phoneticPairs are letters children commonly confuse by sound.
var phoneticPairs = map[byte]byte{
	'b': 'p', 'p': 'b',
	'd': 't', 't': 'd',
	'g': 'k', 'k': 'g',
	'v': 'f', 'f': 'v',
	'z': 's', 's': 'z',
}

// phoneticConfusion matches when every positional difference substitutes one
// member of a known confusable pair for the other, with at least one such
// substitution present.
func phoneticConfusion(target, input string) bool {
	substitutions := 0
	for i := 0; i < len(target); i++ {
		if target[i] == input[i] {
			continue
		}
		if phoneticPairs[target[i]] != input[i] {
			return false
		}
		substitutions++
	}
	return substitutions > 0
}

// singleLetter matches exactly one positional mismatch.
func singleLetter(target, input string) bool {
	return len(mismatchPositions(target, input)) == 1
}

// letterSwap matches an adjacent transposition: exactly two neighbouring
// mismatches that are each other's values.
func letterSwap(target, input string) bool {
	pos := mismatchPositions(target, input)
	if len(pos) != 2 || pos[1] != pos[0]+1 {
		return false
	}
	i, j := pos[0], pos[1]
	return target[i] == input[j] && target[j] == input[i]
}

func mismatchPositions(target, input string) []int {
	var pos []int
	for i := 0; i < len(target); i++ {
		if target[i] != input[i] {
			pos = append(pos, i)
		}
	}
	return pos
}
