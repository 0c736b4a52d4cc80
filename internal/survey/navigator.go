package survey

import (
	"context"
	"fmt"

	"arguesurvey/models"

	"go.uber.org/zap"
)

// submissionJob carries what the coordinator needs once the lock is released.
type submissionJob struct {
	payload    models.SubmissionPayload
	exportName string
	exportData []byte
}

// GoTo activates a page and hydrates its inputs. Callers validate the index.
func (s *Session) GoTo(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	s.goToLocked(index)
	s.persistLocked(ctx)
	return nil
}

// Advance leaves the active page forward. An incomplete page blocks with a
// *ValidationError; leaving the last survey page submits instead.
func (s *Session) Advance(ctx context.Context) error {
	s.mu.Lock()
	job, err := s.advanceLocked(ctx)
	s.mu.Unlock()
	if err != nil || job == nil {
		return err
	}
	s.runSubmission(ctx, job)
	return nil
}

func (s *Session) advanceLocked(ctx context.Context) (*submissionJob, error) {
	if err := s.interactiveLocked(); err != nil {
		return nil, err
	}

	if missing := s.gate.MissingLabels(s.index, s.draft); len(missing) > 0 {
		s.modal.Open(missing)
		s.emit(Event{Type: EventValidationFailed, Missing: missing})
		return nil, &ValidationError{Page: s.index, Missing: missing}
	}

	if err := s.commitDraftLocked(ctx); err != nil {
		return nil, err
	}

	if s.index < s.surveyPages() {
		s.goToLocked(s.index + 1)
		s.persistLocked(ctx)
		if s.index%s.backupEvery == 0 || (s.index > 1 && s.index%s.backupEvery == 1) {
			s.backupLocked(ctx)
		}
		return nil, nil
	}

	if err := s.coordinator.begin(); err != nil {
		return nil, err
	}
	s.persistLocked(ctx)
	s.status.Set(StatusInfo, "Submitting responses...")

	now := s.now()
	responses := s.ledger.Entries()
	exportData, err := MarshalExport(BuildExport(s.identity, responses, s.surveyPages(), s.env, now))
	if err != nil {
		s.logger.Warn("failed to build export", zap.Error(err))
	}
	return &submissionJob{
		payload:    BuildSubmission(s.identity, responses, s.surveyPages(), s.env, now),
		exportName: ExportFilename(s.identity.Email, now),
		exportData: exportData,
	}, nil
}

// runSubmission delivers outside the lock so other calls can observe the
// Submitting state. The remote call is bound to the session's lifetime.
func (s *Session) runSubmission(ctx context.Context, job *submissionJob) {
	saved := s.coordinator.deliver(s.ctx, job.payload, job.exportName, job.exportData)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.coordinator.finish(saved)
	s.summary = buildSummary(s.identity, s.ledger, s.surveyPages(), saved)
	if saved {
		s.status.Set(StatusSuccess, s.summary.Message)
	} else {
		s.status.Set(StatusWarning, s.summary.Message)
	}
	s.goToLocked(s.terminalIndex())
	if !s.closed {
		s.persistLocked(ctx)
	}
	s.emit(Event{Type: EventCompleted, Message: s.summary.Message, Summary: s.summary})
}

// Retreat moves back one page without validation, keeping what was entered.
func (s *Session) Retreat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.interactiveLocked(); err != nil {
		return err
	}
	if s.index == 0 {
		return ErrAtFirstPage
	}
	if s.index <= s.surveyPages() {
		s.draft.commit(s.ledger)
	}
	s.goToLocked(s.index - 1)
	s.persistLocked(ctx)
	return nil
}

// SetField records one input change on the active page. Identity fields are
// validated and stored as soon as they form a valid identity; survey answers
// are committed to the ledger and persisted on every change.
func (s *Session) SetField(ctx context.Context, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.interactiveLocked(); err != nil {
		return err
	}

	if s.index == 0 {
		switch field {
		case FieldName, FieldEmail, FieldAffiliation:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
		s.draft.Set(field, value)
		id, err := NormalizeIdentity(s.draft.Get(FieldName), s.draft.Get(FieldEmail), s.draft.Get(FieldAffiliation))
		if err == nil {
			s.identity = id
			if err := s.mirror.SaveIdentity(ctx, id); err != nil {
				s.logger.Warn("failed to persist user info", zap.Error(err))
			}
		}
		return nil
	}
	if s.index > s.surveyPages() {
		return fmt.Errorf("%w: %q on the completion page", ErrUnknownField, field)
	}

	kind, ok := s.resolveKind(field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if !kind.allows(value) {
		return fmt.Errorf("%w: %q for %s", ErrInvalidOption, value, kind)
	}
	s.draft.Set(string(kind), value)
	s.draft.commit(s.ledger)
	s.persistLocked(ctx)

	if s.index%s.backupEvery == 0 {
		s.backupLocked(ctx)
	}
	return nil
}

func (s *Session) resolveKind(field string) (QuestionKind, bool) {
	if kind, ok := parseKind(field); ok {
		return kind, true
	}
	page, kind, ok := ParseFieldKey(field)
	if !ok || page != s.index {
		return "", false
	}
	return kind, true
}

func (s *Session) commitDraftLocked(ctx context.Context) error {
	if s.index == 0 {
		id, err := NormalizeIdentity(s.draft.Get(FieldName), s.draft.Get(FieldEmail), s.draft.Get(FieldAffiliation))
		if err != nil {
			return err
		}
		s.identity = id
		if err := s.mirror.SaveIdentity(ctx, id); err != nil {
			s.logger.Warn("failed to persist user info", zap.Error(err))
		}
		return nil
	}
	if s.index <= s.surveyPages() {
		s.draft.commit(s.ledger)
	}
	return nil
}

func (s *Session) goToLocked(index int) {
	s.index = index
	switch {
	case index == 0:
		s.draft = draftFromIdentity(s.identity)
	case index <= s.surveyPages():
		s.draft = draftFromLedger(index, s.ledger)
	default:
		s.draft = newDraft(index)
	}
	s.emit(Event{Type: EventPageChanged, Message: s.indicator.Flash(index, s.totalPages())})
}

// backupLocked exports a silent backup at most once per page index.
func (s *Session) backupLocked(ctx context.Context) {
	if s.index < 1 || s.index > s.surveyPages() || s.backedUp[s.index] {
		return
	}
	s.backedUp[s.index] = true
	if s.exporter == nil {
		return
	}

	now := s.now()
	data, err := MarshalExport(BuildExport(s.identity, s.ledger.Entries(), s.surveyPages(), s.env, now))
	if err != nil {
		s.logger.Warn("failed to build backup", zap.Error(err))
		return
	}
	name := ExportFilename(s.identity.Email, now)
	if err := s.exporter.Export(ctx, name, data); err != nil {
		s.logger.Warn("silent backup failed", zap.Int("page", s.index), zap.Error(err))
		return
	}
	s.logger.Info("auto-saved backup", zap.Int("page", s.index), zap.String("file", name))
	s.emit(Event{Type: EventBackupExported, Message: name})
}

// BackedUp reports whether a backup was already exported for a page.
func (s *Session) BackedUp(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backedUp[index]
}

func (s *Session) usableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.loadErr != nil {
		return fmt.Errorf("%w: %v", ErrNotLoaded, s.loadErr)
	}
	if s.records == nil {
		return ErrNotLoaded
	}
	return nil
}

// interactiveLocked rejects input while the page underneath cannot be used.
func (s *Session) interactiveLocked() error {
	if err := s.usableLocked(); err != nil {
		return err
	}
	if s.modal.IsOpen() {
		return ErrModalOpen
	}
	switch st := s.coordinator.State(); {
	case st == SubmissionSubmitting:
		return ErrSubmissionInProgress
	case st.Done():
		return ErrCompleted
	}
	return nil
}
