package survey

import "strings"

// Ledger maps question field keys to answers. A key exists only while its
// trimmed value is non-empty.
type Ledger struct {
	entries map[string]string
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]string)}
}

// Record stores the trimmed value, or removes the key when nothing is left.
func (l *Ledger) Record(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		delete(l.entries, key)
		return
	}
	l.entries[key] = value
}

func (l *Ledger) Get(key string) (string, bool) {
	v, ok := l.entries[key]
	return v, ok
}

func (l *Ledger) Has(key string) bool {
	_, ok := l.entries[key]
	return ok
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the ledger contents.
func (l *Ledger) Entries() map[string]string {
	out := make(map[string]string, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}

// Replace swaps in restored entries, dropping blank values.
func (l *Ledger) Replace(entries map[string]string) {
	l.entries = make(map[string]string, len(entries))
	for k, v := range entries {
		l.Record(k, v)
	}
}

// CompletedPages counts survey pages 1..surveyPages that have a
// persuasiveness answer. Keys for pages outside that range are ignored.
func (l *Ledger) CompletedPages(surveyPages int) int {
	n := 0
	for key := range l.entries {
		if page, kind, ok := ParseFieldKey(key); ok && kind == Persuasiveness && page <= surveyPages {
			n++
		}
	}
	return n
}
