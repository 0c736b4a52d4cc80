package survey

import "arguesurvey/models"

type PageKind string

const (
	PageIdentity PageKind = "identity"
	PageSurvey   PageKind = "survey"
	PageTerminal PageKind = "terminal"
	PageLoading  PageKind = "loading"
)

// Question is one input on a survey page, with its current draft value.
type Question struct {
	Field    string   `json:"field"`
	Kind     string   `json:"kind"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Value    string   `json:"value,omitempty"`
}

// View is everything a surface needs to render the active page.
type View struct {
	ClientID   string            `json:"clientId"`
	Index      int               `json:"index"`
	TotalPages int               `json:"totalPages"`
	Kind       PageKind          `json:"kind"`
	Record     *models.Record    `json:"record,omitempty"`
	Identity   map[string]string `json:"identity,omitempty"`
	Questions  []Question        `json:"questions,omitempty"`
	Progress   float64           `json:"progress"`
	NextLabel  string            `json:"nextLabel,omitempty"`
	CanRetreat bool              `json:"canRetreat"`
	Indicator  string            `json:"indicator,omitempty"`
	Modal      []string          `json:"modal,omitempty"`
	Status     StatusLine        `json:"status"`
	Submission string            `json:"submission"`
	Summary    *Summary          `json:"summary,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ClientID:   s.clientID,
		Index:      s.index,
		Status:     *s.status,
		Submission: s.coordinator.State().String(),
		Summary:    s.summary,
		Indicator:  s.indicator.Text(),
	}
	if s.modal.IsOpen() {
		v.Modal = s.modal.Missing()
	}
	if s.records == nil {
		v.Kind = PageLoading
		return v
	}

	v.TotalPages = s.totalPages()
	v.Progress = float64(s.index) / float64(v.TotalPages) * 100
	v.CanRetreat = s.index > 0 && !s.coordinator.State().Done()

	switch {
	case s.index == 0:
		v.Kind = PageIdentity
		v.Identity = s.draft.Values()
		v.NextLabel = "Start Survey"
	case s.index <= s.surveyPages():
		v.Kind = PageSurvey
		rec, _ := s.records.Page(s.index)
		v.Record = &rec
		v.NextLabel = "Next"
		for _, kind := range questionKinds {
			v.Questions = append(v.Questions, Question{
				Field:    FieldKey(s.index, kind),
				Kind:     string(kind),
				Label:    kind.Label(),
				Required: kind.Required(),
				Options:  kind.Options(),
				Value:    s.draft.Get(string(kind)),
			})
		}
	default:
		v.Kind = PageTerminal
		v.Progress = 100
		if !s.coordinator.State().Done() {
			v.NextLabel = "Complete"
		}
	}
	return v
}
