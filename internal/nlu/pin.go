package nlu

import "strings"

// numberWords maps spoken number words to their digit strings. Words
// from "ten" up contribute two characters, so a spoken "twenty" adds
// "20" to the PIN string. That can push a PIN past 4 characters from a
// single word; length validation belongs to the PIN-change flow, and
// this quirk is kept as-is.
var numberWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
	"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
	"eighteen": "18", "nineteen": "19", "twenty": "20",
}

// ExtractPIN concatenates the digits spoken in text. Tokens are
// whitespace-delimited with trailing punctuation stripped; number
// words and numeric tokens contribute digits, everything else is
// skipped silently. The result is not length-validated here.
func ExtractPIN(text string) string {
	var digits strings.Builder

	for _, word := range strings.Fields(strings.ToLower(text)) {
		clean := strings.Trim(word, ".,!?")
		if d, ok := numberWords[clean]; ok {
			digits.WriteString(d)
			continue
		}
		if clean != "" && isNumeric(clean) {
			digits.WriteString(clean)
		}
	}

	return digits.String()
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
