package numbers

import "math/big"

// Each spoken number word maps to a scale (multiplier), an increment
// (added value), the suffix it carries in rendered form ("st", "nd",
// "'s", ...) and whether the word can terminate a number phrase.
// "and" is the one connector word that cannot.
type wordInfo struct {
	scale     *big.Int
	increment int
	suffix    string
	final     bool
}

var (
	numberWords map[string]wordInfo
	// Words that may start a number phrase (everything except "and").
	digitWords map[string]bool
	// Unit and tens words, used for phrase-compatibility checks.
	unitWords map[string]bool
	// Scale words (hundred, thousand, ...).
	scaleWords map[string]bool
	// Forms of "zero"; an explicit zero always starts a new value.
	zeroWords map[string]bool

	big100 = big.NewInt(100)
)

// word/suffix pairs: cardinal, plural, ordinal.
type wordForms [3][2]string

var unitForms = []wordForms{
	{{"zero", ""}, {"zeroes", "'s"}, {"zeroth", "th"}},
	{{"one", ""}, {"ones", "'s"}, {"first", "st"}},
	{{"two", ""}, {"twos", "'s"}, {"second", "nd"}},
	{{"three", ""}, {"threes", "'s"}, {"third", "rd"}},
	{{"four", ""}, {"fours", "'s"}, {"fourth", "th"}},
	{{"five", ""}, {"fives", "'s"}, {"fifth", "th"}},
	{{"six", ""}, {"sixes", "'s"}, {"sixth", "th"}},
	{{"seven", ""}, {"sevens", "'s"}, {"seventh", "th"}},
	{{"eight", ""}, {"eights", "'s"}, {"eighth", "th"}},
	{{"nine", ""}, {"nines", "'s"}, {"ninth", "th"}},
	{{"ten", ""}, {"tens", "'s"}, {"tenth", "th"}},
	{{"eleven", ""}, {"elevens", "'s"}, {"eleventh", "th"}},
	{{"twelve", ""}, {"twelves", "'s"}, {"twelfth", "th"}},
	{{"thirteen", ""}, {"thirteens", "'s"}, {"thirteenth", "th"}},
	{{"fourteen", ""}, {"fourteens", "'s"}, {"fourteenth", "th"}},
	{{"fifteen", ""}, {"fifteens", "'s"}, {"fifteenth", "th"}},
	{{"sixteen", ""}, {"sixteens", "'s"}, {"sixteenth", "th"}},
	{{"seventeen", ""}, {"seventeens", "'s"}, {"seventeenth", "th"}},
	{{"eighteen", ""}, {"eighteens", "'s"}, {"eighteenth", "th"}},
	{{"nineteen", ""}, {"nineteens", "'s"}, {"nineteenth", "th"}},
}

// Index * 10 is the value; the first two slots are unused.
var tensForms = []wordForms{
	{},
	{},
	{{"twenty", ""}, {"twenties", "'s"}, {"twentieth", "th"}},
	{{"thirty", ""}, {"thirties", "'s"}, {"thirtieth", "th"}},
	{{"forty", ""}, {"forties", "'s"}, {"fortieth", "th"}},
	{{"fifty", ""}, {"fifties", "'s"}, {"fiftieth", "th"}},
	{{"sixty", ""}, {"sixties", "'s"}, {"sixtieth", "th"}},
	{{"seventy", ""}, {"seventies", "'s"}, {"seventieth", "th"}},
	{{"eighty", ""}, {"eighties", "'s"}, {"eightieth", "th"}},
	{{"ninety", ""}, {"nineties", "'s"}, {"ninetieth", "th"}},
}

var scaleForms = []struct {
	forms wordForms
	power int
}{
	{wordForms{{"hundred", ""}, {"hundreds", "s"}, {"hundredth", "th"}}, 2},
	{wordForms{{"thousand", ""}, {"thousands", "s"}, {"thousandth", "th"}}, 3},
	{wordForms{{"million", ""}, {"millions", "s"}, {"millionth", "th"}}, 6},
	{wordForms{{"billion", ""}, {"billions", "s"}, {"billionth", "th"}}, 9},
	{wordForms{{"trillion", ""}, {"trillions", "s"}, {"trillionth", "th"}}, 12},
	{wordForms{{"quadrillion", ""}, {"quadrillions", "s"}, {"quadrillionth", "th"}}, 15},
	{wordForms{{"quintillion", ""}, {"quintillions", "s"}, {"quintillionth", "th"}}, 18},
	{wordForms{{"sextillion", ""}, {"sextillions", "s"}, {"sextillionth", "th"}}, 21},
	{wordForms{{"septillion", ""}, {"septillions", "s"}, {"septillionth", "th"}}, 24},
	{wordForms{{"octillion", ""}, {"octillions", "s"}, {"octillionth", "th"}}, 27},
	{wordForms{{"nonillion", ""}, {"nonillions", "s"}, {"nonillionth", "th"}}, 30},
	{wordForms{{"decillion", ""}, {"decillions", "s"}, {"decillionth", "th"}}, 33},
	{wordForms{{"undecillion", ""}, {"undecillions", "s"}, {"undecillionth", "th"}}, 36},
	{wordForms{{"duodecillion", ""}, {"duodecillions", "s"}, {"duodecillionth", "th"}}, 39},
	{wordForms{{"tredecillion", ""}, {"tredecillions", "s"}, {"tredecillionth", "th"}}, 42},
	{wordForms{{"quattuordecillion", ""}, {"quattuordecillions", "s"}, {"quattuordecillionth", "th"}}, 45},
	{wordForms{{"quindecillion", ""}, {"quindecillions", "s"}, {"quindecillionth", "th"}}, 48},
	{wordForms{{"sexdecillion", ""}, {"sexdecillions", "s"}, {"sexdecillionth", "th"}}, 51},
	{wordForms{{"septendecillion", ""}, {"septendecillions", "s"}, {"septendecillionth", "th"}}, 54},
	{wordForms{{"octodecillion", ""}, {"octodecillions", "s"}, {"octodecillionth", "th"}}, 57},
	{wordForms{{"novemdecillion", ""}, {"novemdecillions", "s"}, {"novemdecillionth", "th"}}, 60},
	{wordForms{{"vigintillion", ""}, {"vigintillions", "s"}, {"vigintillionth", "th"}}, 63},
	{wordForms{{"centillion", ""}, {"centillions", "s"}, {"centillionth", "th"}}, 303},
}

func init() {
	numberWords = make(map[string]wordInfo)
	digitWords = make(map[string]bool)
	unitWords = make(map[string]bool)
	scaleWords = make(map[string]bool)
	zeroWords = make(map[string]bool)

	one := big.NewInt(1)

	numberWords["and"] = wordInfo{scale: one, increment: 0, final: false}

	for value, forms := range unitForms {
		for _, pair := range forms {
			numberWords[pair[0]] = wordInfo{scale: one, increment: value, suffix: pair[1], final: true}
			unitWords[pair[0]] = true
		}
	}
	for idx, forms := range tensForms {
		for _, pair := range forms {
			if pair[0] == "" {
				continue
			}
			numberWords[pair[0]] = wordInfo{scale: one, increment: idx * 10, suffix: pair[1], final: true}
			unitWords[pair[0]] = true
		}
	}
	for _, entry := range scaleForms {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(entry.power)), nil)
		for _, pair := range entry.forms {
			numberWords[pair[0]] = wordInfo{scale: scale, increment: 0, suffix: pair[1], final: true}
			scaleWords[pair[0]] = true
		}
	}
	for _, pair := range unitForms[0] {
		zeroWords[pair[0]] = true
	}

	for word := range numberWords {
		if word != "and" {
			digitWords[word] = true
		}
	}
}
