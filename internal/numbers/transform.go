// Package numbers converts spoken number phrases in transcribed text to
// digit form: cardinals ("three hundred and two" -> "302"), ordinals
// ("sixty second" -> "62nd") and digit series ("two four six eight" ->
// "2468"). Anything that does not parse as a number passes through as
// literal words.
package numbers

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
)

// Options control rendering of recognized number phrases.
type Options struct {
	// UseSeparator renders values with comma grouping ("3,000,562").
	// Grouped digit series without a leading zero are reformatted too, so
	// "two four six eight" becomes "2,468" rather than "2468".
	UseSeparator bool
	// MinValue, when set, keeps values below it as spoken words, so
	// "no one" is not rewritten to "no 1".
	MinValue *int
	// NoSuffix skips phrases that carry an ordinal or plural suffix.
	NoSuffix bool
}

// Transform rewrites spoken number phrases in text to digit form. Words
// that do not form a valid number phrase are left untouched.
func Transform(text string, opts Options) string {
	words := strings.Split(text, " ")
	return strings.Join(TransformWords(words, opts), " ")
}

// TransformWords is Transform over a pre-split word list. The input slice
// is not modified.
func TransformWords(words []string, opts Options) []string {
	words = append([]string(nil), words...)
	// Original spoken words, kept index-aligned with the rewritten list so
	// MinValue can restore the exact words of a rejected phrase.
	orig := append([]string(nil), words...)

	i := 0
	numberPrev := -1
	for i < len(words) {
		if !digitWords[words[i]] {
			i++
			continue
		}
		res := parseNumber(words, i, true)
		if res.next == i {
			i++
			continue
		}
		if opts.NoSuffix && res.suffix != "" {
			i++
			continue
		}

		rendered := res.value
		if opts.UseSeparator {
			rendered = withSeparators(res.value)
		}
		orig = splice(orig, i, res.next, strings.Join(orig[i:res.next], " "))
		words = splice(words, i, res.next, rendered+res.suffix)

		// Join adjacent numbers across simple spoken operators:
		// "three point five" -> "3.5", "ten divided by two" -> "10 / 2".
		if numberPrev != -1 && numberPrev+1 != i {
			if op, ok := operatorBetween(words[numberPrev+1 : i]); ok {
				merged := words[numberPrev] + op + words[i]
				orig = splice(orig, numberPrev, i+1, strings.Join(orig[numberPrev:i+1], " "))
				words = splice(words, numberPrev, i+1, merged)
				i = numberPrev
			}
		}

		numberPrev = i
		i++
	}

	// Group runs of short digit results so digits recited individually
	// concatenate: "two four six eight" -> "2468", "twenty twenty" ->
	// "2020". Useful for phone-number style dictation.
	i = 0
	for i < len(words) {
		if !isShortDigits(words[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(words) && isShortDigits(words[j]) {
			j++
		}
		if i+1 != j {
			orig = splice(orig, i, j, strings.Join(orig[i:j], " "))
			words = splice(words, i, j, strings.Join(words[i:j], ""))
			// A leading zero marks a literal series (phone numbers);
			// never reformat those.
			if opts.UseSeparator && !strings.HasPrefix(words[i], "0") {
				words[i] = withSeparators(words[i])
			}
		}
		if opts.MinValue != nil {
			if v, ok := new(big.Int).SetString(strings.ReplaceAll(words[i], ",", ""), 10); ok {
				if v.Cmp(big.NewInt(int64(*opts.MinValue))) < 0 {
					words[i] = orig[i]
				}
			}
		}
		i++
	}

	return words
}

func splice(words []string, i, j int, repl string) []string {
	out := make([]string, 0, len(words)-(j-i)+1)
	out = append(out, words[:i]...)
	out = append(out, repl)
	return append(out, words[j:]...)
}

func operatorBetween(between []string) (string, bool) {
	switch strings.Join(between, " ") {
	case "point":
		return ".", true
	case "minus":
		return " - ", true
	case "plus":
		return " + ", true
	case "divided by":
		return " / ", true
	case "multiplied by", "times":
		return " * ", true
	case "modulo":
		return " % ", true
	}
	return "", false
}

func withSeparators(value string) string {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return value
	}
	return humanize.BigComma(v)
}

func isShortDigits(s string) bool {
	if s == "" || len(s) > 2 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
