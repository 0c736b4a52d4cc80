package survey

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"arguesurvey/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceFromIdentityPage(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()

	err := h.session.Advance(ctx)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, []string{"Name", "Email"}, verr.Missing)
	assert.Equal(t, 0, h.session.Index())

	// The modal blocks everything until acknowledged.
	assert.ErrorIs(t, h.session.SetField(ctx, FieldName, "Ada"), ErrModalOpen)
	assert.True(t, h.session.DismissModal("Escape"))
	assert.False(t, h.session.DismissModal("Enter"))

	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))
	assert.Equal(t, 1, h.session.Index())
	assert.Equal(t, models.Identity{Name: "Ada", Email: "ada@example.com", Affiliation: DefaultAffiliation}, h.session.Identity())
}

func TestAdvanceBlockedUntilBothRequiredAnswered(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()
	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))

	require.NoError(t, h.session.SetField(ctx, string(Persuasiveness), "Set A-1"))
	require.NoError(t, h.session.SetField(ctx, string(PersuasivenessComment), "strong point"))

	err := h.session.Advance(ctx)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{Diversity.Label()}, verr.Missing)
	assert.Equal(t, 1, h.session.Index())
	assert.Len(t, h.notifier.ofType(EventValidationFailed), 1)

	// Entered data survives the failed attempt.
	require.True(t, h.session.DismissModal(""))
	view := h.session.View()
	assert.Equal(t, []string(nil), view.Modal)
	assert.Equal(t, "Set A-1", view.Questions[0].Value)

	require.NoError(t, h.session.SetField(ctx, "q1_diversity", "Set B"))
	require.NoError(t, h.session.Advance(ctx))
	assert.Equal(t, 2, h.session.Index())
}

func TestSetFieldRejectsUnknownInput(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	assert.ErrorIs(t, h.session.SetField(ctx, "q1_persuasive", "x"), ErrUnknownField)

	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))
	assert.ErrorIs(t, h.session.SetField(ctx, string(Persuasiveness), "Set C-9"), ErrInvalidOption)
	assert.ErrorIs(t, h.session.SetField(ctx, "q2_persuasive", "Set A-1"), ErrUnknownField)
	assert.ErrorIs(t, h.session.SetField(ctx, "bogus", "Set A-1"), ErrUnknownField)
}

func TestRetreatSkipsValidation(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()
	assert.ErrorIs(t, h.session.Retreat(ctx), ErrAtFirstPage)

	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))
	h.answer(t)
	require.NoError(t, h.session.Advance(ctx))
	require.Equal(t, 2, h.session.Index())

	require.NoError(t, h.session.SetField(ctx, string(DiversityComment), "  half done  "))
	require.NoError(t, h.session.Retreat(ctx))
	assert.Equal(t, 1, h.session.Index())
	assert.Empty(t, h.notifier.ofType(EventValidationFailed))
	assert.Equal(t, "half done", h.session.Responses()["q2_diversity_comments"])

	require.NoError(t, h.session.Retreat(ctx))
	assert.Equal(t, 0, h.session.Index())
}

func TestHydrationRoundTrip(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()
	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))

	answers := map[int][2]string{1: {"Set A-2", "Set A"}, 2: {"Hard to decide", "Set B"}, 3: {"Set B-3", "Hard to decide"}}
	for page := 1; page <= 3; page++ {
		require.NoError(t, h.session.SetField(ctx, string(Persuasiveness), answers[page][0]))
		require.NoError(t, h.session.SetField(ctx, string(Diversity), answers[page][1]))
		if page < 3 {
			require.NoError(t, h.session.Advance(ctx))
		}
	}

	for page := 1; page <= 3; page++ {
		require.NoError(t, h.session.GoTo(ctx, page))
		view := h.session.View()
		values := map[string]string{}
		for _, q := range view.Questions {
			values[q.Kind] = q.Value
		}
		assert.Equal(t, h.session.Responses()[FieldKey(page, Persuasiveness)], values[string(Persuasiveness)])
		assert.Equal(t, h.session.Responses()[FieldKey(page, Diversity)], values[string(Diversity)])
		assert.Equal(t, answers[page][0], values[string(Persuasiveness)])
	}
}

func TestClearingCommentRemovesKey(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))

	require.NoError(t, h.session.SetField(ctx, string(PersuasivenessComment), "because"))
	assert.Contains(t, h.session.Responses(), "q1_persuasive_comments")

	require.NoError(t, h.session.SetField(ctx, string(PersuasivenessComment), "   "))
	assert.NotContains(t, h.session.Responses(), "q1_persuasive_comments")

	var stored map[string]string
	raw, _, _ := h.store.Get(ctx, KeyResponses)
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.NotContains(t, stored, "q1_persuasive_comments")
}

func TestEndToEndSubmission(t *testing.T) {
	for _, tc := range []struct {
		name   string
		result models.SaveResult
		err    error
		saved  bool
	}{
		{name: "remote success", result: models.SaveResult{Success: true}, saved: true},
		{name: "remote refusal", result: models.SaveResult{Success: false, Error: "disk full"}},
		{name: "transport failure", err: errTransport},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, 3)
			h.submitter.result = tc.result
			h.submitter.err = tc.err
			ctx := context.Background()

			assert.Equal(t, 4, h.session.View().TotalPages)

			h.fillIdentity(t)
			require.NoError(t, h.session.Advance(ctx))
			for page := 1; page <= 3; page++ {
				h.answer(t)
				require.NoError(t, h.session.Advance(ctx))
			}

			assert.Equal(t, 1, h.submitter.callCount())
			assert.Equal(t, 1, h.exporter.count())
			assert.Equal(t, 4, h.session.Index())

			state := h.session.SubmissionState()
			if tc.saved {
				assert.Equal(t, SubmissionSucceeded, state)
			} else {
				assert.Equal(t, SubmissionFailedFallback, state)
			}

			payload := h.submitter.payloads[0]
			assert.Equal(t, 3, payload.SurveyMetadata.TotalPages)
			assert.Equal(t, "1920x1080", payload.SurveyMetadata.ScreenResolution)
			assert.Equal(t, "2025-03-01T12:30:45Z", payload.SurveyMetadata.CompletedAt)
			assert.Len(t, payload.Responses, 6)

			exp := h.exporter.exports[0]
			assert.Equal(t, "argument_survey_ada_at_example.com_2025-03-01T12-30-45.json", exp.name)
			var exported models.SubmissionPayload
			require.NoError(t, json.Unmarshal(exp.data, &exported))
			assert.Equal(t, payload.Responses, exported.Responses)
			assert.Empty(t, exported.SurveyMetadata.ScreenResolution)

			view := h.session.View()
			assert.Equal(t, PageTerminal, view.Kind)
			require.NotNil(t, view.Summary)
			assert.Equal(t, 3, view.Summary.CompletedPages)
			assert.Equal(t, 3, view.Summary.TotalSurveyPages)
			assert.Equal(t, tc.saved, view.Summary.Saved)

			// The run is over; nothing submits twice.
			assert.ErrorIs(t, h.session.Advance(ctx), ErrCompleted)
			assert.ErrorIs(t, h.session.Retreat(ctx), ErrCompleted)
			assert.Equal(t, 1, h.submitter.callCount())
			assert.Len(t, h.notifier.ofType(EventCompleted), 1)
		})
	}
}

func TestNavigationRejectedWhileSubmitting(t *testing.T) {
	h := newHarness(t, 1)
	h.submitter.release = make(chan struct{})
	h.submitter.started = make(chan struct{})
	ctx := context.Background()

	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))
	h.answer(t)

	done := make(chan error, 1)
	go func() { done <- h.session.Advance(ctx) }()
	<-h.submitter.started

	assert.ErrorIs(t, h.session.Advance(ctx), ErrSubmissionInProgress)
	assert.ErrorIs(t, h.session.Retreat(ctx), ErrSubmissionInProgress)
	assert.Equal(t, SubmissionSubmitting, h.session.SubmissionState())

	close(h.submitter.release)
	require.NoError(t, <-done)
	assert.Equal(t, SubmissionSucceeded, h.session.SubmissionState())
	assert.Equal(t, 1, h.submitter.callCount())
}

func TestCloseAbortsOutstandingSubmission(t *testing.T) {
	h := newHarness(t, 1)
	h.submitter.release = make(chan struct{})
	h.submitter.started = make(chan struct{})
	ctx := context.Background()

	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))
	h.answer(t)

	done := make(chan error, 1)
	go func() { done <- h.session.Advance(ctx) }()
	<-h.submitter.started
	h.session.Close()

	require.NoError(t, <-done)
	assert.Equal(t, SubmissionFailedFallback, h.session.SubmissionState())
	assert.Equal(t, 1, h.exporter.count())
}

func TestBackupOnThreshold(t *testing.T) {
	h := newHarness(t, 15)
	ctx := context.Background()
	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))

	for h.session.Index() < 11 {
		h.answer(t)
		require.NoError(t, h.session.Advance(ctx))
	}
	require.Equal(t, 11, h.session.Index())
	assert.True(t, h.session.BackedUp(11))
	before := h.exporter.count()
	backups := len(h.notifier.ofType(EventBackupExported))

	require.NoError(t, h.session.Retreat(ctx))
	require.NoError(t, h.session.Advance(ctx))
	assert.Equal(t, 11, h.session.Index())
	assert.Equal(t, before, h.exporter.count())
	assert.Len(t, h.notifier.ofType(EventBackupExported), backups)

	pages := map[int]int{}
	for _, ev := range h.notifier.ofType(EventBackupExported) {
		pages[ev.Page]++
	}
	assert.Equal(t, 1, pages[11])
	assert.Equal(t, 1, pages[10])
}

func TestSnapshotRoundTrip(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()
	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))
	h.answer(t)
	require.NoError(t, h.session.SetField(ctx, string(DiversityComment), "similar"))
	require.NoError(t, h.session.Advance(ctx))

	wantResponses := h.session.Responses()
	wantIdentity := h.session.Identity()
	wantIndex := h.session.Index()

	restored := h.open(t)
	restored.Restore(ctx)
	require.NoError(t, restored.Load(ctx, makeRecords(3), nil))

	assert.Equal(t, wantResponses, restored.Responses())
	assert.Equal(t, wantIdentity, restored.Identity())
	assert.Equal(t, wantIndex, restored.Index())
}

func TestRestoreClampsPageIndex(t *testing.T) {
	for _, tc := range []struct {
		stored string
		want   int
	}{
		{stored: "42", want: 4},
		{stored: "-3", want: 0},
		{stored: "2", want: 2},
		{stored: "garbage", want: 0},
	} {
		t.Run(tc.stored, func(t *testing.T) {
			h := &harness{store: newMemStore(), exporter: &recordingExporter{}, submitter: &fakeSubmitter{}, notifier: &recordingNotifier{}}
			ctx := context.Background()
			require.NoError(t, h.store.Set(ctx, KeyCurrentPage, tc.stored))
			require.NoError(t, h.store.Set(ctx, KeyResponses, "{not json"))

			s := h.open(t)
			s.Restore(ctx)
			require.NoError(t, s.Load(ctx, makeRecords(3), nil))
			assert.Equal(t, tc.want, s.Index())
			assert.Empty(t, s.Responses())
		})
	}
}

func TestTerminalPageRejectsAnswers(t *testing.T) {
	h := &harness{store: newMemStore(), exporter: &recordingExporter{}, submitter: &fakeSubmitter{result: models.SaveResult{Success: true}}, notifier: &recordingNotifier{}}
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, KeyUserInfo, `{"name":"Ada","email":"ada@example.com","affiliation":"Lab"}`))
	require.NoError(t, h.store.Set(ctx, KeyResponses,
		`{"q1_persuasive":"Set A-1","q2_persuasive":"Set A-2","q3_persuasive":"Set A-3","q7_persuasive":"Set B-1"}`))
	require.NoError(t, h.store.Set(ctx, KeyCurrentPage, "4"))

	s := h.open(t)
	s.Restore(ctx)
	require.NoError(t, s.Load(ctx, makeRecords(3), nil))
	require.Equal(t, 4, s.Index())
	require.Equal(t, SubmissionIdle, s.SubmissionState())

	assert.ErrorIs(t, s.SetField(ctx, string(Persuasiveness), "Set B-1"), ErrUnknownField)
	assert.ErrorIs(t, s.SetField(ctx, "q4_persuasive", "Set B-1"), ErrUnknownField)
	assert.NotContains(t, s.Responses(), "q4_persuasive")

	require.NoError(t, s.Advance(ctx))
	require.Equal(t, 1, h.submitter.callCount())
	assert.NotContains(t, h.submitter.payloads[0].Responses, "q4_persuasive")

	view := s.View()
	require.NotNil(t, view.Summary)
	assert.Equal(t, 3, view.Summary.CompletedPages, "keys past the last survey page do not count")
	assert.Equal(t, 3, view.Summary.TotalSurveyPages)
}

func TestRestoredIdentityHydratesFirstPage(t *testing.T) {
	h := &harness{store: newMemStore(), exporter: &recordingExporter{}, submitter: &fakeSubmitter{}, notifier: &recordingNotifier{}}
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, KeyUserInfo, `{"name":"Ada","email":"ada@example.com","affiliation":"Lab"}`))

	s := h.open(t)
	s.Restore(ctx)
	require.NoError(t, s.Load(ctx, makeRecords(2), nil))

	view := s.View()
	assert.Equal(t, PageIdentity, view.Kind)
	assert.Equal(t, "Start Survey", view.NextLabel)
	assert.Equal(t, map[string]string{FieldName: "Ada", FieldEmail: "ada@example.com", FieldAffiliation: "Lab"}, view.Identity)
}

func TestLoadFailureIsTerminal(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewSession(Options{ClientID: "c", Notifier: notifier})
	t.Cleanup(s.Close)
	ctx := context.Background()

	err := s.Load(ctx, nil, errors.New("HTTP error! status: 404"))
	require.Error(t, err)

	assert.ErrorIs(t, s.Advance(ctx), ErrNotLoaded)
	assert.ErrorIs(t, s.SetField(ctx, FieldName, "Ada"), ErrNotLoaded)
	view := s.View()
	assert.Equal(t, PageLoading, view.Kind)
	assert.Equal(t, StatusError, view.Status.Kind)
	assert.Len(t, notifier.ofType(EventStatus), 1)

	assert.ErrorIs(t, NewSession(Options{}).Load(ctx, NewRecordStore(nil), nil), ErrNoRecords)
}

func TestPeriodicSave(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	wrote, err := h.session.PeriodicSave(ctx)
	require.NoError(t, err)
	assert.False(t, wrote, "identity page is never auto-saved")

	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))
	wrote, err = h.session.PeriodicSave(ctx)
	require.NoError(t, err)
	assert.False(t, wrote, "empty ledger is not auto-saved")

	h.answer(t)
	wrote, err = h.session.PeriodicSave(ctx)
	require.NoError(t, err)
	assert.True(t, wrote)

	raw, _, _ := h.store.Get(ctx, KeyCurrentPage)
	assert.Equal(t, strconv.Itoa(1), raw)
}

func TestViewProgressAndLabels(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()

	view := h.session.View()
	assert.Equal(t, 0.0, view.Progress)
	assert.False(t, view.CanRetreat)
	assert.Equal(t, "Page 1 of 4", view.Indicator)

	h.fillIdentity(t)
	require.NoError(t, h.session.Advance(ctx))
	view = h.session.View()
	assert.Equal(t, PageSurvey, view.Kind)
	assert.Equal(t, 25.0, view.Progress)
	assert.True(t, view.CanRetreat)
	assert.Equal(t, "Next", view.NextLabel)
	require.NotNil(t, view.Record)
	assert.Equal(t, "Opinion 1", view.Record.Opinion)
	require.Len(t, view.Questions, 4)
	assert.Equal(t, "q1_persuasive", view.Questions[0].Field)
	assert.Len(t, view.Questions[0].Options, 7)
	assert.Nil(t, view.Questions[1].Options)
}

func TestDownload(t *testing.T) {
	h := newHarness(t, 2)
	h.fillIdentity(t)

	name, data, err := h.session.Download()
	require.NoError(t, err)
	assert.Equal(t, "argument_survey_ada_at_example.com_2025-03-01T12-30-45.json", name)

	var payload models.SubmissionPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, 2, payload.SurveyMetadata.TotalPages)
	assert.Equal(t, "2025-03-01T12:30:45Z", payload.SurveyMetadata.SavedAt)
	assert.NotNil(t, payload.Responses)
}
