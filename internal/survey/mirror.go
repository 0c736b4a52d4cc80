package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"arguesurvey/models"

	"go.uber.org/zap"
)

// Well-known durable keys. Each is written and read independently.
const (
	KeyResponses   = "survey_responses"
	KeyUserInfo    = "survey_userInfo"
	KeyCurrentPage = "survey_currentPage"
)

// DurableStore is a per-participant key-value store that survives restarts.
type DurableStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Snapshot is the persisted copy of a session's progress.
type Snapshot struct {
	Responses map[string]string
	Identity  models.Identity
	PageIndex int
	HasPage   bool
}

// Mirror copies ledger, identity and page index into a DurableStore.
type Mirror struct {
	store  DurableStore
	logger *zap.Logger
}

func NewMirror(store DurableStore, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{store: store, logger: logger}
}

// Save overwrites all three keys.
func (m *Mirror) Save(ctx context.Context, snap Snapshot) error {
	if m.store == nil {
		return nil
	}
	responses := snap.Responses
	if responses == nil {
		responses = map[string]string{}
	}
	data, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to marshal responses: %w", err)
	}
	if err := m.store.Set(ctx, KeyResponses, string(data)); err != nil {
		return fmt.Errorf("failed to store responses: %w", err)
	}
	if err := m.SaveIdentity(ctx, snap.Identity); err != nil {
		return err
	}
	if err := m.store.Set(ctx, KeyCurrentPage, strconv.Itoa(snap.PageIndex)); err != nil {
		return fmt.Errorf("failed to store current page: %w", err)
	}
	return nil
}

func (m *Mirror) SaveIdentity(ctx context.Context, id models.Identity) error {
	if m.store == nil {
		return nil
	}
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to marshal user info: %w", err)
	}
	if err := m.store.Set(ctx, KeyUserInfo, string(data)); err != nil {
		return fmt.Errorf("failed to store user info: %w", err)
	}
	return nil
}

// Restore reads whatever can be read. Absent or corrupt entries are treated as
// empty and never reported to the caller.
func (m *Mirror) Restore(ctx context.Context) Snapshot {
	snap := Snapshot{Responses: map[string]string{}}
	if m.store == nil {
		return snap
	}

	if raw, ok := m.read(ctx, KeyResponses); ok {
		var responses map[string]string
		if err := json.Unmarshal([]byte(raw), &responses); err != nil {
			m.logger.Debug("discarding unreadable responses snapshot", zap.Error(err))
		} else if responses != nil {
			snap.Responses = responses
			m.logger.Debug("restored responses", zap.Int("count", len(responses)))
		}
	}

	if raw, ok := m.read(ctx, KeyUserInfo); ok {
		var id models.Identity
		if err := json.Unmarshal([]byte(raw), &id); err != nil {
			m.logger.Debug("discarding unreadable user info snapshot", zap.Error(err))
		} else {
			snap.Identity = id
		}
	}

	if raw, ok := m.read(ctx, KeyCurrentPage); ok {
		page, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			m.logger.Debug("discarding unreadable page snapshot", zap.String("value", raw))
		} else {
			snap.PageIndex = page
			snap.HasPage = true
		}
	}
	return snap
}

func (m *Mirror) read(ctx context.Context, key string) (string, bool) {
	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Debug("durable store read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if !found || raw == "" {
		return "", false
	}
	return raw, true
}
