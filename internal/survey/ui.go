package survey

import "fmt"

type EventType string

const (
	EventPageChanged      EventType = "page_changed"
	EventValidationFailed EventType = "validation_failed"
	EventModalDismissed   EventType = "modal_dismissed"
	EventStatus           EventType = "status"
	EventBackupExported   EventType = "backup_exported"
	EventCompleted        EventType = "completed"
)

// Event is a cosmetic notification for whatever surface renders the session.
type Event struct {
	Type     EventType `json:"type"`
	ClientID string    `json:"clientId"`
	Page     int       `json:"page"`
	Message  string    `json:"message,omitempty"`
	Missing  []string  `json:"missing,omitempty"`
	Summary  *Summary  `json:"summary,omitempty"`
}

// Notifier receives session events. Implementations must not block and must
// not call back into the session.
type Notifier interface {
	Notify(ev Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}

// ValidationModal blocks interaction with the page until acknowledged.
type ValidationModal struct {
	open    bool
	missing []string
}

func (m *ValidationModal) Open(missing []string) {
	m.open = true
	m.missing = append([]string(nil), missing...)
}

// Dismiss closes the modal and reports whether it was open.
func (m *ValidationModal) Dismiss() bool {
	was := m.open
	m.open = false
	m.missing = nil
	return was
}

// HandleKey dismisses on Escape or Enter, the only keys the modal reacts to.
func (m *ValidationModal) HandleKey(key string) bool {
	switch key {
	case "", "Escape", "Enter":
		return m.Dismiss()
	}
	return false
}

func (m *ValidationModal) IsOpen() bool {
	return m.open
}

func (m *ValidationModal) Missing() []string {
	return append([]string(nil), m.missing...)
}

// PageIndicator is the transient "Page X of Y" badge.
type PageIndicator struct {
	text string
}

func (p *PageIndicator) Flash(index, totalPages int) string {
	p.text = fmt.Sprintf("Page %d of %d", index+1, totalPages)
	return p.text
}

func (p *PageIndicator) Text() string {
	return p.text
}

type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusSuccess StatusKind = "success"
	StatusWarning StatusKind = "warning"
	StatusError   StatusKind = "error"
)

// StatusLine is the non-blocking status text for load and submission outcomes.
type StatusLine struct {
	Kind StatusKind `json:"kind,omitempty"`
	Text string     `json:"text,omitempty"`
}

func (s *StatusLine) Set(kind StatusKind, text string) {
	s.Kind = kind
	s.Text = text
}
