package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"arguesurvey/db"
	"arguesurvey/models"
	"arguesurvey/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	archiveCSVName        = "all_responses.csv"
	archiveSavedMessage   = "Response saved successfully"
	archiveFilenameLayout = "2006-01-02_15-04-05"
)

var archiveFixedColumns = []string{"timestamp", "user_name", "user_email", "user_affiliation", "client_ip", "response_count"}

// ArchiveService keeps every submission received on /save_response as a JSON
// file, a row in the summary CSV and, when MongoDB is connected, a document.
type ArchiveService struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time

	// csvMu serializes appends to the summary CSV.
	csvMu sync.Mutex
}

var (
	archiveService *ArchiveService
	archiveMu      sync.RWMutex
)

func NewArchiveService(dir string, logger *zap.Logger) (*ArchiveService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create responses directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveService{dir: dir, logger: logger, now: time.Now}, nil
}

// InitArchiveService installs the process-wide archive service.
func InitArchiveService(dir string, logger *zap.Logger) error {
	svc, err := NewArchiveService(dir, logger)
	if err != nil {
		return err
	}
	archiveMu.Lock()
	archiveService = svc
	archiveMu.Unlock()
	return nil
}

func GetArchiveService() *ArchiveService {
	archiveMu.RLock()
	defer archiveMu.RUnlock()
	return archiveService
}

func (s *ArchiveService) Dir() string {
	return s.dir
}

// Save archives one submission and returns the result sent back to the client.
func (s *ArchiveService) Save(ctx context.Context, payload models.SubmissionPayload, clientAddr string) (models.SaveResult, error) {
	now := s.now()
	email := payload.UserInfo.Email
	if email == "" {
		email = "unknown"
	}
	filename := fmt.Sprintf("response_%s_%s_%s.json",
		utils.CleanEmail(email), now.Format(archiveFilenameLayout), uuid.NewString()[:8])

	responses := payload.Responses
	if responses == nil {
		responses = map[string]string{}
	}
	doc := models.ArchivedResponse{
		Timestamp:      now,
		ClientAddress:  clientAddr,
		UserInfo:       payload.UserInfo,
		Responses:      responses,
		SurveyMetadata: payload.SurveyMetadata,
		ResponseCount:  len(responses),
		Filename:       filename,
	}

	data, err := marshalArchive(doc)
	if err != nil {
		return models.SaveResult{}, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return models.SaveResult{}, fmt.Errorf("failed to write %s: %w", filename, err)
	}

	if err := s.appendCSV(doc); err != nil {
		s.logger.Error("CSV save error", zap.Error(err))
	}

	if db.Connected() {
		if err := db.SaveArchivedResponse(ctx, doc); err != nil {
			s.logger.Error("failed to store response in MongoDB", zap.String("filename", filename), zap.Error(err))
		}
	}

	s.logger.Info("response saved",
		zap.String("filename", filename),
		zap.String("user", payload.UserInfo.Name),
		zap.String("email", payload.UserInfo.Email),
		zap.Int("responses", doc.ResponseCount))

	return models.SaveResult{Success: true, Message: archiveSavedMessage, Filename: filename}, nil
}

// marshalArchive indents with two spaces and leaves non-ASCII and HTML
// characters unescaped.
func marshalArchive(doc models.ArchivedResponse) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// appendCSV writes one row. The header is written only when the file is new
// and reflects that first row's columns.
func (s *ArchiveService) appendCSV(doc models.ArchivedResponse) error {
	s.csvMu.Lock()
	defer s.csvMu.Unlock()

	path := filepath.Join(s.dir, archiveCSVName)
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	header, row := csvRow(doc)
	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func csvRow(doc models.ArchivedResponse) ([]string, []string) {
	keys := make([]string, 0, len(doc.Responses))
	for k := range doc.Responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := append(append([]string{}, archiveFixedColumns...), keys...)
	row := []string{
		doc.Timestamp.Format(time.RFC3339Nano),
		doc.UserInfo.Name,
		doc.UserInfo.Email,
		doc.UserInfo.Affiliation,
		doc.ClientAddress,
		strconv.Itoa(doc.ResponseCount),
	}
	for _, k := range keys {
		row = append(row, doc.Responses[k])
	}
	return header, row
}

// ArchiveStats summarizes the responses directory.
type ArchiveStats struct {
	Files   int `json:"files"`
	CSVRows int `json:"csvRows"`
}

// Stats counts archived JSON files and CSV data rows (header excluded).
func Stats(dir string) (ArchiveStats, error) {
	var stats ArchiveStats
	matches, err := filepath.Glob(filepath.Join(dir, "response_*.json"))
	if err != nil {
		return stats, err
	}
	stats.Files = len(matches)

	f, err := os.Open(filepath.Join(dir, archiveCSVName))
	if errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return stats, fmt.Errorf("failed to read %s: %w", archiveCSVName, err)
	}
	if len(rows) > 0 {
		stats.CSVRows = len(rows) - 1
	}
	return stats, nil
}
