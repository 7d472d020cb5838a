// Package turn decides when a caller has finished speaking. It classifies
// what kind of answer the assistant's last utterance is fishing for,
// validates the accumulating transcript against that category, and runs the
// debounce/ceiling timers that delimit a turn.
package turn

import "regexp"

// InputType is the category of information the caller is expected to say
// next. The set is closed; ConfigFor and ValidateInput switch over it
// exhaustively.
type InputType string

const (
	InputPhone    InputType = "phone"
	InputEmail    InputType = "email"
	InputName     InputType = "name"
	InputAddress  InputType = "address"
	InputDateTime InputType = "date_time"
	InputGeneral  InputType = "general"
)

// detectionOrder fixes the order categories are tested in so classification
// is reproducible: phone, email, name, address, date_time, then general as
// the fallback. An utterance matching two categories always resolves to the
// earlier one.
var detectionOrder = []InputType{
	InputPhone,
	InputEmail,
	InputName,
	InputAddress,
	InputDateTime,
}

var detectionPatterns = map[InputType][]*regexp.Regexp{
	InputPhone: {
		regexp.MustCompile(`(?i)phone number`),
		regexp.MustCompile(`(?i)contact number`),
		regexp.MustCompile(`(?i)mobile( number)?`),
		regexp.MustCompile(`(?i)best number`),
		regexp.MustCompile(`(?i)number (to|we can) (call|reach)`),
		regexp.MustCompile(`(?i)call you back (on|at)`),
	},
	InputEmail: {
		regexp.MustCompile(`(?i)e-?mail( address)?`),
	},
	InputName: {
		regexp.MustCompile(`(?i)your (full )?name`),
		regexp.MustCompile(`(?i)name,? please`),
		regexp.MustCompile(`(?i)who am i speaking (with|to)`),
		regexp.MustCompile(`(?i)may i ask who`),
		regexp.MustCompile(`(?i)who('s| is) calling`),
	},
	InputAddress: {
		regexp.MustCompile(`(?i)(street |your |the )?address`),
		regexp.MustCompile(`(?i)post ?code`),
		regexp.MustCompile(`(?i)zip code`),
		regexp.MustCompile(`(?i)where (are you|is it) located`),
		regexp.MustCompile(`(?i)suburb`),
	},
	InputDateTime: {
		regexp.MustCompile(`(?i)what (day|date|time)`),
		regexp.MustCompile(`(?i)when (would|works|suits|are you)`),
		regexp.MustCompile(`(?i)(day|date|time) (works|suits|would suit)`),
		regexp.MustCompile(`(?i)prefer(red)? (day|date|time)`),
		regexp.MustCompile(`(?i)available`),
		regexp.MustCompile(`(?i)schedule`),
	},
}

// DetectExpectedInput predicts what category of answer the caller will give
// next from the assistant's most recent utterance. Pure and deterministic;
// returns InputGeneral when no category cue matches.
func DetectExpectedInput(utterance string) InputType {
	for _, t := range detectionOrder {
		for _, re := range detectionPatterns[t] {
			if re.MatchString(utterance) {
				return t
			}
		}
	}
	return InputGeneral
}
