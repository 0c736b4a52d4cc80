package survey

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"arguesurvey/models"
)

// ErrNoRecords is returned when the dataset yields no rows.
var ErrNoRecords = errors.New("no data found in CSV file")

const opinionPlaceholder = "Opinion text not available"

// RecordStore is the read-only sequence of records loaded at startup.
type RecordStore struct {
	records []models.Record
}

func NewRecordStore(records []models.Record) *RecordStore {
	return &RecordStore{records: append([]models.Record(nil), records...)}
}

// Len is the number of survey pages.
func (rs *RecordStore) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.records)
}

// Page returns the record shown on a 1-based survey page.
func (rs *RecordStore) Page(page int) (models.Record, bool) {
	if page < 1 || page > rs.Len() {
		return models.Record{}, false
	}
	return rs.records[page-1], true
}

// ParseRecords reads a header-led CSV table with the columns
// opinion, set_a_arg1..3, set_b_arg1..3. Missing cells get placeholder text.
func ParseRecords(r io.Reader) ([]models.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var records []models.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error parsing CSV data: %w", err)
		}
		if blankRow(row) {
			continue
		}
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rec := models.Record{Ordinal: len(records) + 1, Opinion: cell("opinion")}
		if rec.Opinion == "" {
			rec.Opinion = opinionPlaceholder
		}
		for i := 0; i < 3; i++ {
			rec.SetA[i] = argumentOrPlaceholder(cell(fmt.Sprintf("set_a_arg%d", i+1)), i+1)
			rec.SetB[i] = argumentOrPlaceholder(cell(fmt.Sprintf("set_b_arg%d", i+1)), i+1)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

func argumentOrPlaceholder(text string, n int) string {
	if text == "" {
		return fmt.Sprintf("Argument %d not available", n)
	}
	return text
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// FetchRecords loads the dataset from a file path or an http(s) URL.
func FetchRecords(ctx context.Context, source string, client *http.Client) (*RecordStore, error) {
	var body io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build data request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to load survey data: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to load survey data: HTTP error! status: %d", resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to load survey data: %w", err)
		}
		body = f
	}
	defer body.Close()

	records, err := ParseRecords(body)
	if err != nil {
		return nil, err
	}
	return NewRecordStore(records), nil
}
