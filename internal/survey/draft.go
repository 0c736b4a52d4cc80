package survey

import (
	"arguesurvey/models"
)

// Draft holds what the participant has entered on the active page but not yet
// committed to the ledger. Validation and persistence both read from it.
type Draft struct {
	page   int
	values map[string]string
}

func newDraft(page int) *Draft {
	return &Draft{page: page, values: make(map[string]string)}
}

// draftFromLedger rebuilds the inputs of a survey page from stored answers.
func draftFromLedger(page int, l *Ledger) *Draft {
	d := newDraft(page)
	for _, kind := range questionKinds {
		if v, ok := l.Get(FieldKey(page, kind)); ok {
			d.values[string(kind)] = v
		}
	}
	return d
}

func draftFromIdentity(id models.Identity) *Draft {
	d := newDraft(0)
	if id.Name != "" {
		d.values[FieldName] = id.Name
	}
	if id.Email != "" {
		d.values[FieldEmail] = id.Email
	}
	if id.Affiliation != "" {
		d.values[FieldAffiliation] = id.Affiliation
	}
	return d
}

func (d *Draft) Set(field, value string) {
	if value == "" {
		delete(d.values, field)
		return
	}
	d.values[field] = value
}

func (d *Draft) Get(field string) string {
	return d.values[field]
}

// Values returns a copy of the entered values keyed by field name.
func (d *Draft) Values() map[string]string {
	out := make(map[string]string, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

// commit writes every question of the draft's page into the ledger.
func (d *Draft) commit(l *Ledger) {
	for _, kind := range questionKinds {
		l.Record(FieldKey(d.page, kind), d.values[string(kind)])
	}
}
