package survey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"arguesurvey/models"
)

// DefaultAffiliation replaces a blank affiliation.
const DefaultAffiliation = "Not provided"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrIncomplete      = errors.New("required questions are unanswered")
	ErrInvalidIdentity = errors.New("invalid participant information")
)

// ValidationError lists what blocked a forward transition.
type ValidationError struct {
	Page    int
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("page %d is incomplete: %s", e.Page, strings.Join(e.Missing, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrIncomplete
}

// NormalizeIdentity validates the participant fields and fills the default affiliation.
func NormalizeIdentity(name, email, affiliation string) (models.Identity, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return models.Identity{}, fmt.Errorf("%w: please fill in all required fields (Name and Email)", ErrInvalidIdentity)
	}
	if !emailPattern.MatchString(email) {
		return models.Identity{}, fmt.Errorf("%w: please enter a valid email address", ErrInvalidIdentity)
	}
	affiliation = strings.TrimSpace(affiliation)
	if affiliation == "" {
		affiliation = DefaultAffiliation
	}
	return models.Identity{Name: name, Email: email, Affiliation: affiliation}, nil
}

// Gate decides whether the active page may be left in the forward direction.
// It reads the draft, so selections that were entered but not saved count.
type Gate struct {
	surveyPages int
}

func (g Gate) IsComplete(page int, d *Draft) bool {
	return len(g.MissingLabels(page, d)) == 0
}

// MissingLabels names every unmet requirement on the page.
func (g Gate) MissingLabels(page int, d *Draft) []string {
	if page == 0 {
		var missing []string
		if strings.TrimSpace(d.Get(FieldName)) == "" {
			missing = append(missing, "Name")
		}
		email := strings.TrimSpace(d.Get(FieldEmail))
		switch {
		case email == "":
			missing = append(missing, "Email")
		case !emailPattern.MatchString(email):
			missing = append(missing, "Valid email address")
		}
		return missing
	}
	if page < 1 || page > g.surveyPages {
		return nil
	}

	var missing []string
	for _, kind := range questionKinds {
		if !kind.Required() {
			continue
		}
		if v := d.Get(string(kind)); v == "" || !kind.allows(v) {
			missing = append(missing, kind.Label())
		}
	}
	return missing
}
