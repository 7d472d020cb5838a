package turn

import (
	"regexp"
	"strings"
)

// Validation is the completeness verdict for an accumulating buffer.
type Validation struct {
	Complete bool
	Reason   string
}

// minPhoneDigits is the least number of extracted digits that counts as a
// dialable phone number (short national formats included).
const minPhoneDigits = 8

var digitWords = map[string]byte{
	"zero": '0', "oh": '0', "o": '0',
	"one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
}

var repeatWords = map[string]int{"double": 2, "triple": 3}

var tokenTrim = regexp.MustCompile(`^[^a-z0-9]+|[^a-z0-9]+$`)

// ExtractSpokenDigits collects digits from spoken text: literal digit runs,
// spoken digit words including "oh"/"o" for zero, and "double"/"triple"
// multiplier phrases ("double five" -> "55").
func ExtractSpokenDigits(text string) string {
	var out strings.Builder
	repeat := 1

	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = tokenTrim.ReplaceAllString(tok, "")
		if tok == "" {
			continue
		}

		if n, ok := repeatWords[tok]; ok {
			repeat = n
			continue
		}

		if d, ok := digitWords[tok]; ok {
			for i := 0; i < repeat; i++ {
				out.WriteByte(d)
			}
			repeat = 1
			continue
		}

		wrote := false
		for i := 0; i < len(tok); i++ {
			if tok[i] >= '0' && tok[i] <= '9' {
				out.WriteByte(tok[i])
				wrote = true
			}
		}
		if wrote {
			// "double 5" with a literal digit repeats the digit just heard.
			if repeat > 1 && out.Len() > 0 {
				last := out.String()[out.Len()-1]
				for i := 1; i < repeat; i++ {
					out.WriteByte(last)
				}
			}
		}
		repeat = 1
	}
	return out.String()
}

var (
	emailTLD = regexp.MustCompile(`(?i)(\.|\bdot\s+)(com|net|org|edu|gov|mil|io|co|ai|au|uk|nz|ca|us|de|fr|in|jp|id|sg)\b`)

	addressPostcode = regexp.MustCompile(`\b\d{4,5}\b`)
	addressStreet   = regexp.MustCompile(`(?i)\b\d+\s+\w+(\s+\w+)?\s+(st|street|rd|road|ave|avenue|dr|drive|ln|lane|ct|court|pl|place|blvd|boulevard|way|cres|crescent|tce|terrace|hwy|highway)\b`)

	dateRef = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow|today|tonight|\d{1,2}(st|nd|rd|th)|(next|this)\s+\w+)\b`)
	timeRef = regexp.MustCompile(`(?i)\b(\d{1,2}(:\d{2})?\s*(am|pm|a\.m\.|p\.m\.)|morning|afternoon|evening|noon|midday|midnight|o'?clock)\b`)
)

// ValidateInput reports whether enough has been said for the given category.
// Pure function of (t, text); every rule is a found-anywhere search over the
// accumulated text, so a complete verdict stays complete as the buffer grows.
func ValidateInput(t InputType, text string) Validation {
	switch t {
	case InputPhone:
		digits := ExtractSpokenDigits(text)
		if len(digits) >= minPhoneDigits {
			return Validation{Complete: true, Reason: "enough digits"}
		}
		return Validation{Reason: "waiting for more digits"}

	case InputEmail:
		if emailTLD.MatchString(text) {
			return Validation{Complete: true, Reason: "domain suffix heard"}
		}
		return Validation{Reason: "no domain suffix yet"}

	case InputName:
		if len(strings.Fields(text)) >= 2 {
			return Validation{Complete: true, Reason: "two or more words"}
		}
		return Validation{Reason: "waiting for full name"}

	case InputAddress:
		if addressPostcode.MatchString(text) || addressStreet.MatchString(text) {
			return Validation{Complete: true, Reason: "postcode or street heard"}
		}
		return Validation{Reason: "no postcode or street yet"}

	case InputDateTime:
		if dateRef.MatchString(text) || timeRef.MatchString(text) {
			return Validation{Complete: true, Reason: "day or time heard"}
		}
		return Validation{Reason: "no day or time yet"}

	default: // InputGeneral and anything unrecognized
		return Validation{Complete: true, Reason: "free-form input"}
	}
}
