package survey

import (
	"fmt"
	"strconv"
	"strings"
)

// QuestionKind names one of the four inputs rendered on every survey page.
type QuestionKind string

const (
	Persuasiveness        QuestionKind = "persuasive"
	PersuasivenessComment QuestionKind = "persuasive_comments"
	Diversity             QuestionKind = "diversity"
	DiversityComment      QuestionKind = "diversity_comments"
)

// Identity page inputs.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldAffiliation = "affiliation"
)

var questionKinds = []QuestionKind{Persuasiveness, PersuasivenessComment, Diversity, DiversityComment}

var (
	persuasivenessOptions = []string{"Set A-1", "Set A-2", "Set A-3", "Set B-1", "Set B-2", "Set B-3", "Hard to decide"}
	diversityOptions      = []string{"Set A", "Set B", "Hard to decide"}
)

// Required reports whether the kind gates forward navigation.
func (k QuestionKind) Required() bool {
	return k == Persuasiveness || k == Diversity
}

// Label is the question title shown to the participant.
func (k QuestionKind) Label() string {
	switch k {
	case Persuasiveness:
		return "Which counterargument is most persuasive?"
	case Diversity:
		return "Which set has more diverse counterarguments?"
	case PersuasivenessComment, DiversityComment:
		return "Comments (optional)"
	}
	return string(k)
}

// Options returns the mutually exclusive choices, or nil for free text.
func (k QuestionKind) Options() []string {
	switch k {
	case Persuasiveness:
		return append([]string(nil), persuasivenessOptions...)
	case Diversity:
		return append([]string(nil), diversityOptions...)
	}
	return nil
}

func (k QuestionKind) allows(value string) bool {
	opts := k.Options()
	if opts == nil || value == "" {
		return true
	}
	for _, o := range opts {
		if o == value {
			return true
		}
	}
	return false
}

func parseKind(s string) (QuestionKind, bool) {
	for _, k := range questionKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// FieldKey builds the ledger key for a question on a survey page.
func FieldKey(page int, kind QuestionKind) string {
	return fmt.Sprintf("q%d_%s", page, kind)
}

// ParseFieldKey splits a ledger key back into its page and kind.
func ParseFieldKey(key string) (int, QuestionKind, bool) {
	if !strings.HasPrefix(key, "q") {
		return 0, "", false
	}
	num, rest, ok := strings.Cut(key[1:], "_")
	if !ok {
		return 0, "", false
	}
	page, err := strconv.Atoi(num)
	if err != nil || page < 1 {
		return 0, "", false
	}
	kind, ok := parseKind(rest)
	if !ok {
		return 0, "", false
	}
	return page, kind, true
}
