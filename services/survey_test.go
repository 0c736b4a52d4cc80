package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"arguesurvey/config"
	"arguesurvey/internal/durable"
	"arguesurvey/internal/survey"
	"arguesurvey/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords(n int) *survey.RecordStore {
	records := make([]models.Record, n)
	for i := range records {
		records[i] = models.Record{Ordinal: i + 1, Opinion: "Opinion"}
	}
	return survey.NewRecordStore(records)
}

func newTestSurveyService(t *testing.T, backend durable.Backend) *SurveyService {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Survey.AutosaveInterval = time.Hour
	svc := NewSurveyService(cfg, SurveyDeps{Backend: backend})
	t.Cleanup(func() { _ = svc.Shutdown() })
	return svc
}

func TestSurveyServiceOpenAndResume(t *testing.T) {
	backend := durable.NewMemory()
	svc := newTestSurveyService(t, backend)
	svc.SetRecords(testRecords(2))
	ctx := context.Background()

	sess, created, err := svc.Open(ctx, OpenRequest{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, sess.ClientID())

	again, created, err := svc.Open(ctx, OpenRequest{ClientID: sess.ClientID()})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, sess, again)

	require.NoError(t, sess.SetField(ctx, survey.FieldName, "Ada"))
	require.NoError(t, sess.SetField(ctx, survey.FieldEmail, "ada@example.com"))
	require.NoError(t, sess.Advance(ctx))
	require.NoError(t, svc.Close(sess.ClientID()))
	assert.Equal(t, 0, svc.Len())

	_, err = svc.Get(sess.ClientID())
	assert.ErrorIs(t, err, ErrUnknownClient)

	resumed, created, err := svc.Open(ctx, OpenRequest{ClientID: sess.ClientID()})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, resumed.Index())
	assert.Equal(t, "Ada", resumed.Identity().Name)
}

func TestSurveyServiceLoadFailure(t *testing.T) {
	svc := newTestSurveyService(t, durable.NewMemory())
	svc.LoadRecords(context.Background(), "testdata/does-not-exist.csv", nil)

	sess, _, err := svc.Open(context.Background(), OpenRequest{ClientID: "c1"})
	require.NoError(t, err)
	assert.ErrorIs(t, sess.Advance(context.Background()), survey.ErrNotLoaded)
	assert.Equal(t, survey.StatusError, sess.View().Status.Kind)
}

func TestSurveyServiceRejectsBadClientID(t *testing.T) {
	svc := newTestSurveyService(t, durable.NewMemory())
	svc.SetRecords(testRecords(1))

	_, _, err := svc.Open(context.Background(), OpenRequest{ClientID: "../etc"})
	assert.ErrorIs(t, err, durable.ErrInvalidClientID)
	assert.ErrorIs(t, svc.Close("nobody"), ErrUnknownClient)
}

// stallingBackend blocks reads for one client until released.
type stallingBackend struct {
	*durable.Memory
	stallID string
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

type stallingStore struct {
	survey.DurableStore
	backend *stallingBackend
}

func (b *stallingBackend) For(clientID string) (survey.DurableStore, error) {
	store, err := b.Memory.For(clientID)
	if err != nil || clientID != b.stallID {
		return store, err
	}
	return &stallingStore{DurableStore: store, backend: b}, nil
}

func (s *stallingStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.backend.once.Do(func() { close(s.backend.started) })
	<-s.backend.release
	return s.DurableStore.Get(ctx, key)
}

func TestSurveyServiceSlowRestoreDoesNotBlockOthers(t *testing.T) {
	backend := &stallingBackend{
		Memory:  durable.NewMemory(),
		stallID: "slow",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestSurveyService(t, backend)
	svc.SetRecords(testRecords(1))
	ctx := context.Background()

	slowDone := make(chan *survey.Session)
	go func() {
		sess, _, err := svc.Open(ctx, OpenRequest{ClientID: "slow"})
		assert.NoError(t, err)
		slowDone <- sess
	}()
	<-backend.started

	fastDone := make(chan struct{})
	go func() {
		defer close(fastDone)
		_, _, err := svc.Open(ctx, OpenRequest{ClientID: "fast"})
		assert.NoError(t, err)
		_, err = svc.Get("fast")
		assert.NoError(t, err)
	}()
	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatal("open for another client waited on a slow store read")
	}

	close(backend.release)
	slow := <-slowDone
	again, created, err := svc.Open(ctx, OpenRequest{ClientID: "slow"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, slow, again)
	assert.Equal(t, 2, svc.Len())
}
