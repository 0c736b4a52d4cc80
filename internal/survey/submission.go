package survey

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"arguesurvey/models"

	"go.uber.org/zap"
)

const (
	msgSavedToServer = "Responses successfully saved to server!"
	msgServerFailed  = "Server save failed. Please use download button for backup."
)

// Submitter delivers the final payload to the remote endpoint.
type Submitter interface {
	Submit(ctx context.Context, payload models.SubmissionPayload) (models.SaveResult, error)
}

// Exporter writes a local JSON artifact.
type Exporter interface {
	Export(ctx context.Context, name string, data []byte) error
}

type SubmissionState int

const (
	SubmissionIdle SubmissionState = iota
	SubmissionSubmitting
	SubmissionSucceeded
	SubmissionFailedFallback
)

func (s SubmissionState) String() string {
	switch s {
	case SubmissionIdle:
		return "idle"
	case SubmissionSubmitting:
		return "submitting"
	case SubmissionSucceeded:
		return "succeeded"
	case SubmissionFailedFallback:
		return "failed_fallback"
	}
	return "unknown"
}

// Done reports whether the coordinator reached a terminal state.
func (s SubmissionState) Done() bool {
	return s == SubmissionSucceeded || s == SubmissionFailedFallback
}

// Summary is shown on the completion page.
type Summary struct {
	Participant      string `json:"participant"`
	Email            string `json:"email"`
	Affiliation      string `json:"affiliation"`
	CompletedPages   int    `json:"completedPages"`
	TotalSurveyPages int    `json:"totalSurveyPages"`
	TotalResponses   int    `json:"totalResponses"`
	Saved            bool   `json:"saved"`
	Message          string `json:"message"`
}

// Coordinator performs the one remote delivery and the one local export.
type Coordinator struct {
	submitter Submitter
	exporter  Exporter
	logger    *zap.Logger
	state     SubmissionState
}

func NewCoordinator(submitter Submitter, exporter Exporter, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{submitter: submitter, exporter: exporter, logger: logger}
}

func (c *Coordinator) State() SubmissionState {
	return c.state
}

// begin moves Idle to Submitting; it refuses any other starting state.
func (c *Coordinator) begin() error {
	switch c.state {
	case SubmissionIdle:
		c.state = SubmissionSubmitting
		return nil
	case SubmissionSubmitting:
		return ErrSubmissionInProgress
	}
	return ErrCompleted
}

// deliver attempts the remote save once, then exports locally regardless of
// the outcome. It reports whether the remote save succeeded.
func (c *Coordinator) deliver(ctx context.Context, payload models.SubmissionPayload, exportName string, exportData []byte) bool {
	saved := false
	if c.submitter != nil {
		result, err := c.submitter.Submit(ctx, payload)
		switch {
		case err != nil:
			c.logger.Warn("server communication error", zap.Error(err))
		case !result.Success:
			c.logger.Warn("server save failed", zap.String("error", result.Error))
		default:
			saved = true
			c.logger.Info("response saved to server", zap.String("filename", result.Filename))
		}
	}

	if c.exporter != nil {
		if err := c.exporter.Export(ctx, exportName, exportData); err != nil {
			c.logger.Warn("local export failed", zap.String("file", exportName), zap.Error(err))
		} else {
			c.logger.Info("downloaded responses", zap.String("file", exportName))
		}
	}
	return saved
}

func (c *Coordinator) finish(saved bool) {
	if saved {
		c.state = SubmissionSucceeded
	} else {
		c.state = SubmissionFailedFallback
	}
}

// ClientEnv describes the participant's client for submission metadata.
type ClientEnv struct {
	UserAgent        string
	ScreenResolution string
}

// BuildSubmission assembles the document sent to the remote endpoint.
func BuildSubmission(id models.Identity, responses map[string]string, surveyPages int, env ClientEnv, now time.Time) models.SubmissionPayload {
	return models.SubmissionPayload{
		UserInfo:  id,
		Responses: responses,
		SurveyMetadata: models.SurveyMetadata{
			TotalPages:       surveyPages,
			CompletedAt:      now.UTC().Format(time.RFC3339Nano),
			UserAgent:        env.UserAgent,
			ScreenResolution: env.ScreenResolution,
		},
	}
}

// BuildExport assembles the local backup document.
func BuildExport(id models.Identity, responses map[string]string, surveyPages int, env ClientEnv, now time.Time) models.SubmissionPayload {
	return models.SubmissionPayload{
		UserInfo:  id,
		Responses: responses,
		SurveyMetadata: models.SurveyMetadata{
			TotalPages: surveyPages,
			SavedAt:    now.UTC().Format(time.RFC3339Nano),
			UserAgent:  env.UserAgent,
		},
	}
}

// ExportFilename names the local artifact after the participant and time.
func ExportFilename(email string, now time.Time) string {
	if email == "" {
		email = "unknown"
	}
	emailPart := strings.Replace(email, "@", "_at_", 1)
	stamp := now.UTC().Format("2006-01-02T15-04-05")
	return fmt.Sprintf("argument_survey_%s_%s.json", emailPart, stamp)
}

// MarshalExport pretty-prints a payload for the local artifact.
func MarshalExport(payload models.SubmissionPayload) ([]byte, error) {
	if payload.Responses == nil {
		payload.Responses = map[string]string{}
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

func buildSummary(id models.Identity, l *Ledger, surveyPages int, saved bool) *Summary {
	msg := msgServerFailed
	if saved {
		msg = msgSavedToServer
	}
	return &Summary{
		Participant:      id.Name,
		Email:            id.Email,
		Affiliation:      id.Affiliation,
		CompletedPages:   l.CompletedPages(surveyPages),
		TotalSurveyPages: surveyPages,
		TotalResponses:   l.Len(),
		Saved:            saved,
		Message:          msg,
	}
}
