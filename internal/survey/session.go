package survey

import (
	"context"
	"errors"
	"sync"
	"time"

	"arguesurvey/models"

	"go.uber.org/zap"
)

var (
	ErrNotLoaded            = errors.New("survey data is not loaded")
	ErrAtFirstPage          = errors.New("already on the first page")
	ErrModalOpen            = errors.New("validation message must be acknowledged first")
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrCompleted            = errors.New("survey already completed")
	ErrUnknownField         = errors.New("unknown field")
	ErrInvalidOption        = errors.New("value is not one of the offered options")
	ErrClosed               = errors.New("session closed")
)

const defaultBackupEvery = 10

// Options wires a Session to its collaborators.
type Options struct {
	ClientID    string
	Store       DurableStore
	Submitter   Submitter
	Exporter    Exporter
	Notifier    Notifier
	Logger      *zap.Logger
	Env         ClientEnv
	BackupEvery int
	Now         func() time.Time
}

// Session owns the whole state of one participant's run through the survey.
// All transitions are serialized by mu.
type Session struct {
	mu sync.Mutex

	clientID    string
	env         ClientEnv
	backupEvery int
	now         func() time.Time
	logger      *zap.Logger
	notifier    Notifier
	exporter    Exporter

	records *RecordStore
	loadErr error

	index       int
	pending     int
	hasPending  bool
	ledger      *Ledger
	identity    models.Identity
	draft       *Draft
	gate        Gate
	mirror      *Mirror
	coordinator *Coordinator

	modal     *ValidationModal
	indicator *PageIndicator
	status    *StatusLine

	backedUp map[int]bool
	summary  *Summary

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("client", opts.ClientID))
	notifier := opts.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	every := opts.BackupEvery
	if every <= 0 {
		every = defaultBackupEvery
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		clientID:    opts.ClientID,
		env:         opts.Env,
		backupEvery: every,
		now:         now,
		logger:      logger,
		notifier:    notifier,
		exporter:    opts.Exporter,
		ledger:      NewLedger(),
		draft:       newDraft(0),
		mirror:      NewMirror(opts.Store, logger),
		coordinator: NewCoordinator(opts.Submitter, opts.Exporter, logger),
		modal:       &ValidationModal{},
		indicator:   &PageIndicator{},
		status:      &StatusLine{},
		backedUp:    make(map[int]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *Session) ClientID() string {
	return s.clientID
}

// Restore seeds ledger, identity and the page to resume from. It must run
// before Load; the page itself is applied once records exist.
func (s *Session) Restore(ctx context.Context) {
	snap := s.mirror.Restore(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Replace(snap.Responses)
	s.identity = snap.Identity
	s.draft = draftFromIdentity(s.identity)
	if snap.HasPage {
		s.pending = snap.PageIndex
		s.hasPending = true
		s.logger.Debug("will resume after pages are created", zap.Int("page", snap.PageIndex))
	}
}

// Load attaches the record store, or records a terminal load failure.
// On success it performs the single hydration pass for the resume page.
func (s *Session) Load(ctx context.Context, records *RecordStore, loadErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loadErr == nil && records.Len() == 0 {
		loadErr = ErrNoRecords
	}
	if loadErr != nil {
		s.loadErr = loadErr
		s.status.Set(StatusError, "Error Loading Data: "+loadErr.Error())
		s.emit(Event{Type: EventStatus, Message: s.status.Text})
		return loadErr
	}

	s.records = records
	s.gate = Gate{surveyPages: records.Len()}

	target := 0
	if s.hasPending {
		target = clamp(s.pending, 0, s.terminalIndex())
		if target != s.pending {
			s.logger.Warn("restored page out of range, clamped",
				zap.Int("stored", s.pending), zap.Int("page", target))
		}
		s.hasPending = false
	}
	s.goToLocked(target)
	return nil
}

// Close cancels outstanding work. The session rejects further changes.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
}

// Index is the active page.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) Identity() models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Responses returns a copy of the ledger.
func (s *Session) Responses() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Entries()
}

func (s *Session) SubmissionState() SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coordinator.State()
}

// PeriodicSave writes the snapshot when the participant is past the identity
// page and has answered something.
func (s *Session) PeriodicSave(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.records == nil {
		return false, nil
	}
	if s.index == 0 || s.ledger.Len() == 0 {
		return false, nil
	}
	if err := s.mirror.Save(ctx, s.snapshotLocked()); err != nil {
		return false, err
	}
	s.logger.Debug("periodic auto-save")
	return true, nil
}

// DismissModal acknowledges the validation modal. key may be empty (click),
// "Escape" or "Enter".
func (s *Session) DismissModal(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.modal.HandleKey(key) {
		return false
	}
	s.emit(Event{Type: EventModalDismissed})
	return true
}

// Download builds the same artifact the final export writes, on demand.
func (s *Session) Download() (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	payload := BuildExport(s.identity, s.ledger.Entries(), s.records.Len(), s.env, now)
	data, err := MarshalExport(payload)
	if err != nil {
		return "", nil, err
	}
	return ExportFilename(s.identity.Email, now), data, nil
}

func (s *Session) surveyPages() int {
	return s.records.Len()
}

// totalPages counts the identity page plus every survey page.
func (s *Session) totalPages() int {
	return s.surveyPages() + 1
}

func (s *Session) terminalIndex() int {
	return s.surveyPages() + 1
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Responses: s.ledger.Entries(),
		Identity:  s.identity,
		PageIndex: s.index,
		HasPage:   true,
	}
}

func (s *Session) persistLocked(ctx context.Context) {
	if err := s.mirror.Save(ctx, s.snapshotLocked()); err != nil {
		s.logger.Warn("failed to persist progress", zap.Error(err))
	}
}

func (s *Session) emit(ev Event) {
	ev.ClientID = s.clientID
	ev.Page = s.index
	s.notifier.Notify(ev)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
