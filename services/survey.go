package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"arguesurvey/config"
	"arguesurvey/internal/durable"
	"arguesurvey/internal/export"
	"arguesurvey/internal/survey"
	"arguesurvey/internal/transport"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnknownClient is returned for client ids without an open session.
var ErrUnknownClient = errors.New("no survey session for client")

// SurveyDeps are the collaborators shared by every session.
type SurveyDeps struct {
	Backend   durable.Backend
	Exporter  *export.DirExporter
	Submitter survey.Submitter
	Notifier  survey.Notifier
	Logger    *zap.Logger
}

// OpenRequest carries what the browser knows about itself.
type OpenRequest struct {
	ClientID         string `json:"clientId"`
	UserAgent        string `json:"userAgent"`
	ScreenResolution string `json:"screenResolution"`
}

// SurveyService is the registry of live participant sessions. Records are
// loaded once and shared.
type SurveyService struct {
	deps        SurveyDeps
	logger      *zap.Logger
	backupEvery int
	autosaver   *survey.Autosaver

	records *survey.RecordStore
	loadErr error

	sessions map[string]*survey.Session
	mutex    sync.RWMutex
}

var (
	surveyService   *SurveyService
	surveyServiceMu sync.RWMutex
)

func NewSurveyService(cfg *config.Config, deps SurveyDeps) *SurveyService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
		deps.Logger = logger
	}
	if deps.Notifier == nil {
		deps.Notifier = discardNotifier{}
	}
	svc := &SurveyService{
		deps:        deps,
		logger:      logger,
		backupEvery: cfg.Survey.BackupEvery,
		autosaver:   survey.NewAutosaver(cfg.Survey.AutosaveInterval, logger),
		sessions:    make(map[string]*survey.Session),
	}
	svc.autosaver.Start()
	return svc
}

// InitSurveyService builds the process-wide service from config: the durable
// backend, exporter and submitter come from their config sections.
func InitSurveyService(ctx context.Context, cfg *config.Config, notifier survey.Notifier, logger *zap.Logger) error {
	backend, err := durable.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open durable store: %w", err)
	}
	exporter, err := export.NewDirExporter(cfg.Survey.ExportDir)
	if err != nil {
		backend.Close()
		return err
	}

	svc := NewSurveyService(cfg, SurveyDeps{
		Backend:   backend,
		Exporter:  exporter,
		Submitter: transport.NewHTTPSubmitter(cfg.Survey.SubmitURL, &http.Client{}),
		Notifier:  notifier,
		Logger:    logger,
	})
	svc.LoadRecords(ctx, cfg.Survey.DataPath, nil)
	SetSurveyService(svc)
	return nil
}

// SetSurveyService replaces the process-wide service.
func SetSurveyService(svc *SurveyService) {
	surveyServiceMu.Lock()
	surveyService = svc
	surveyServiceMu.Unlock()
}

func GetSurveyService() *SurveyService {
	surveyServiceMu.RLock()
	defer surveyServiceMu.RUnlock()
	return surveyService
}

// LoadRecords fetches the dataset. A failure is kept and reported by every
// session opened afterwards.
func (s *SurveyService) LoadRecords(ctx context.Context, source string, client *http.Client) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	records, err := survey.FetchRecords(ctx, source, client)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records, s.loadErr = records, err
	if err != nil {
		s.logger.Error("error loading survey data", zap.String("source", source), zap.Error(err))
		return
	}
	s.logger.Info("loaded survey data", zap.String("source", source), zap.Int("records", records.Len()))
}

// SetRecords installs an already parsed dataset.
func (s *SurveyService) SetRecords(records *survey.RecordStore) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records, s.loadErr = records, nil
}

// Open returns the live session for req.ClientID, or restores one from the
// durable store. An empty id gets a fresh one. created is false for a live
// session.
func (s *SurveyService) Open(ctx context.Context, req OpenRequest) (sess *survey.Session, created bool, err error) {
	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	s.mutex.RLock()
	existing, ok := s.sessions[clientID]
	records, loadErr := s.records, s.loadErr
	s.mutex.RUnlock()
	if ok {
		return existing, false, nil
	}

	store, err := s.deps.Backend.For(clientID)
	if err != nil {
		return nil, false, err
	}

	var exporter survey.Exporter
	if s.deps.Exporter != nil {
		exporter = s.deps.Exporter.ForClient(clientID)
	}
	sess = survey.NewSession(survey.Options{
		ClientID:    clientID,
		Store:       store,
		Submitter:   s.deps.Submitter,
		Exporter:    exporter,
		Notifier:    s.deps.Notifier,
		Logger:      s.logger,
		Env:         survey.ClientEnv{UserAgent: req.UserAgent, ScreenResolution: req.ScreenResolution},
		BackupEvery: s.backupEvery,
	})

	// Restore reads the durable store, so it runs without the registry lock.
	sess.Restore(ctx)
	loaded := sess.Load(ctx, records, loadErr) == nil

	s.mutex.Lock()
	if existing, ok := s.sessions[clientID]; ok {
		s.mutex.Unlock()
		sess.Close()
		return existing, false, nil
	}
	// A load failure still registers the session so the error can be shown.
	s.sessions[clientID] = sess
	s.mutex.Unlock()

	if loaded {
		if err := s.autosaver.Add(sess); err != nil {
			s.logger.Warn("auto-save not scheduled", zap.String("client", clientID), zap.Error(err))
		}
	}
	s.logger.Info("survey session opened", zap.String("client", clientID), zap.Int("page", sess.Index()))
	return sess, true, nil
}

// Get returns a live session.
func (s *SurveyService) Get(clientID string) (*survey.Session, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	sess, ok := s.sessions[clientID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
	}
	return sess, nil
}

// Close ends a session: its periodic save stops and an outstanding
// submission is cancelled. Durable progress is kept.
func (s *SurveyService) Close(clientID string) error {
	s.mutex.Lock()
	sess, ok := s.sessions[clientID]
	delete(s.sessions, clientID)
	s.mutex.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
	}
	s.autosaver.Remove(clientID)
	sess.Close()
	s.logger.Info("survey session closed", zap.String("client", clientID))
	return nil
}

func (s *SurveyService) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}

// Shutdown closes every session, stops the autosave scheduler and releases
// the durable backend.
func (s *SurveyService) Shutdown() error {
	s.autosaver.Stop()

	s.mutex.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*survey.Session)
	s.mutex.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
	if s.deps.Backend != nil {
		return s.deps.Backend.Close()
	}
	return nil
}

type discardNotifier struct{}

func (discardNotifier) Notify(survey.Event) {}
