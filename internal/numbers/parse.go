package numbers

import "math/big"

// parseResult is the outcome of parsing one number phrase: the rendered
// digit string, the suffix carried by the trailing word, and the index of
// the first word not consumed. value is empty and next == start when no
// phrase was recognized.
type parseResult struct {
	value  string
	suffix string
	next   int
}

// parseWhole accumulates a single grammatically composed number starting at
// start, reading no further than limit. Unit and tens values add within the
// current hundred-scale; scale words multiply the accumulated sub-value and,
// above a hundred, fold it into the running total.
//
// implySingleUnit lets a bare scale word stand alone ("hundred" -> 100).
// forceSingleUnits replaces every non-zero increment with one; the delimiter
// passes use this so phrase lengths can be compared independent of the
// actual digits spoken.
func parseWhole(words []string, limit, start int, implySingleUnit, forceSingleUnits bool) parseResult {
	var (
		current = new(big.Int)
		result  = new(big.Int)

		suffix  string
		isFinal bool

		incrementFinalReal int
		scaleFinal         = new(big.Int)
		wordIndexFinal     = -1
		resultFinal        = parseResult{next: start}

		onlyScale = implySingleUnit
	)

	i := start
	for i < limit {
		info, ok := numberWords[words[i]]
		if !ok {
			break
		}
		// An explicit zero terminates the running number; "fifty zero"
		// does not compose the way "fifty one" does.
		if wordIndexFinal != -1 && zeroWords[words[i]] {
			break
		}

		suffix = info.suffix
		isFinal = info.final
		increment := info.increment
		incrementReal := increment
		if forceSingleUnits && increment != 0 {
			increment = 1
		}

		if wordIndexFinal != -1 {
			// Prevents "three and two" resolving to 5, while still
			// allowing "three hundred and two" -> 302.
			if !isFinal && unitWords[words[wordIndexFinal-1]] {
				break
			}
			// Unit words must combine: "twenty one" is fine, "twenty
			// twelve" and "ninety fifty" are two numbers.
			if scaleFinal.Cmp(info.scale) == 0 && unitWords[words[i]] && unitWords[words[wordIndexFinal]] {
				if !(incrementFinalReal >= 20 && incrementReal < 10) {
					break
				}
			}
		}

		if implySingleUnit && onlyScale {
			if !scaleWords[words[i]] {
				onlyScale = false
			}
			if onlyScale && current.Sign() == 0 && result.Sign() == 0 {
				current.Set(info.scale)
				i++
				break
			}
		}

		current.Mul(current, info.scale)
		current.Add(current, big.NewInt(int64(increment)))
		if info.scale.Cmp(big100) > 0 {
			result.Add(result, current)
			current.SetInt64(0)
		}

		i++

		if isFinal {
			resultFinal = parseResult{
				value:  new(big.Int).Add(result, current).String(),
				suffix: suffix,
				next:   i,
			}
			wordIndexFinal = i
			scaleFinal = info.scale
			incrementFinalReal = incrementReal
		}

		// A suffix closes the phrase; "second thousand" is not a number.
		if suffix != "" {
			break
		}
	}

	if !isFinal {
		// Fall back to the last completed value; this resolves a
		// trailing "and" that had no valid continuation.
		return resultFinal
	}
	return parseResult{
		value:  new(big.Int).Add(result, current).String(),
		suffix: suffix,
		next:   i,
	}
}

// allowFollowOn reports whether w may extend the phrase directly after
// prev without acting as a delimiter ("fifty five").
func allowFollowOn(prev, w string) bool {
	if !unitWords[prev] || !unitWords[w] {
		return false
	}
	incPrev := numberWords[prev].increment
	inc := numberWords[w].increment
	return incPrev >= 20 && inc < 10 && inc != 0
}

// delimitFromSeries finds where a spoken series of same-length numbers
// should split, so "one hundred two hundred" does not accumulate to 300.
func delimitFromSeries(words []string, start, limit int) int {
	i := start
	spanBeg := start
	prev := ""
	var resultPrev, resultTest *parseResult

	for i < limit {
		w := words[i]
		if _, ok := numberWords[w]; !ok {
			break
		}
		if i != start && allowFollowOn(words[i-1], w) {
			// Leave prev unchanged so "thirteen and fifty five" is not
			// delimited at the trailing "five".
		} else {
			if prev != "" && prev != "and" && unitWords[w] {
				resultPrev = resultTest
				r := parseWhole(words, i, spanBeg, false, true)
				resultTest = &r
				if r.next == i && resultPrev != nil && len(resultPrev.value) == len(r.value) {
					return resultPrev.next
				}
				spanBeg = i
			}
			prev = w
		}
		i++
	}

	resultPrev = resultTest
	r := parseWhole(words, i, spanBeg, false, true)
	if resultPrev != nil && len(resultPrev.value) == len(r.value) {
		return resultPrev.next
	}
	return limit
}

// delimitFromSlide splits when the value on the right of a candidate
// boundary would be at least as large as the value on the left, which
// means the words after the boundary were spoken as a separate number.
func delimitFromSlide(words []string, start, limit int) int {
	i := start
	prev := ""
	for i < limit {
		w := words[i]
		if _, ok := numberWords[w]; !ok {
			break
		}
		if i != start && allowFollowOn(words[i-1], w) {
			// See delimitFromSeries.
		} else {
			if prev != "" && prev != "and" && unitWords[w] {
				lhs := parseWhole(words, i, start, false, true)
				rhs := parseWhole(words, limit, i, false, true)
				if len(lhs.value) <= len(rhs.value) {
					return lhs.next
				}
			}
			prev = w
		}
		i++
	}
	return limit
}

// parseNumber parses the longest valid number phrase at start, after both
// delimiter passes have bounded the span.
func parseNumber(words []string, start int, implySingleUnit bool) parseResult {
	limit := delimitFromSeries(words, start, len(words))
	limit = delimitFromSlide(words, start, limit)
	return parseWhole(words, limit, start, implySingleUnit, false)
}
