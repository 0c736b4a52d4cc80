package survey

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `opinion,set_a_arg1,set_a_arg2,set_a_arg3,set_b_arg1,set_b_arg2,set_b_arg3
"UBI works.","Reduces incentives","Too costly","Targeted is better","Inflation","No motivation","Safety nets exist"

"Climate action now.",Growth funds tech,,Markets adapt,Models wrong,Let them industrialize
`

func TestParseRecords(t *testing.T) {
	records, err := ParseRecords(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].Ordinal)
	assert.Equal(t, "UBI works.", records[0].Opinion)
	assert.Equal(t, [3]string{"Reduces incentives", "Too costly", "Targeted is better"}, records[0].SetA)

	second := records[1]
	assert.Equal(t, 2, second.Ordinal)
	assert.Equal(t, "Argument 2 not available", second.SetA[1])
	assert.Equal(t, "Argument 3 not available", second.SetB[2], "short rows are padded, not rejected")
}

func TestParseRecordsMissingOpinionColumn(t *testing.T) {
	records, err := ParseRecords(strings.NewReader("set_a_arg1\nonly one\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, opinionPlaceholder, records[0].Opinion)
	assert.Equal(t, "only one", records[0].SetA[0])
}

func TestParseRecordsEmpty(t *testing.T) {
	for _, input := range []string{"", "opinion,set_a_arg1\n", "opinion\n\n  \n"} {
		_, err := ParseRecords(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrNoRecords, "input %q", input)
	}
}

func TestFetchRecordsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	store, err := FetchRecords(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	rec, ok := store.Page(2)
	require.True(t, ok)
	assert.Equal(t, "Climate action now.", rec.Opinion)
	_, ok = store.Page(3)
	assert.False(t, ok)

	_, err = FetchRecords(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.Error(t, err)
}

func TestFetchRecordsOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/survey_data.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	store, err := FetchRecords(context.Background(), srv.URL+"/data/survey_data.csv", srv.Client())
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	_, err = FetchRecords(context.Background(), srv.URL+"/data/other.csv", srv.Client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status: 404")
}
