package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"outreach-sync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

func TestRanges(t *testing.T) {
	assert.Equal(t, "Candidates!A2:I", ReadRange("Candidates"))
	assert.Equal(t, "Candidates!I5", StatusCell("Candidates", 5))
	assert.Equal(t, "'Job Leads'!A2:I", ReadRange("Job Leads"))
	assert.Equal(t, "'Job Leads'!I12", StatusCell("Job Leads", 12))
}

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := gsheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewClient(svc, Config{SpreadsheetID: "doc-1", SheetName: "Candidates", Endpoint: srv.URL + "/"}, nil)
}

func TestReadRows(t *testing.T) {
	var path string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"range": "Candidates!A2:I1000",
			"majorDimension": "ROWS",
			"values": [
				["Jane","Doe","jane@x.com","Engineer","Acme","http://li/jane","Tech","50-100"],
				["x"]
			]
		}`)
	})

	rows, err := c.ReadRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/v4/spreadsheets/doc-1/values/Candidates!A2:I", path)
	require.Len(t, rows, 2)
	assert.Equal(t, "jane@x.com", rows[0][2])
	assert.Len(t, rows[1], 1)
}

func TestReadRowsError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`)
	})

	_, err := c.ReadRows(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Candidates!A2:I")
}

func TestWriteStatus(t *testing.T) {
	var (
		method, path, input string
		body                gsheets.ValueRange
	)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		input = r.URL.Query().Get("valueInputOption")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"spreadsheetId":"doc-1","updatedRange":"Candidates!I5","updatedCells":1}`)
	})

	require.NoError(t, c.WriteStatus(context.Background(), 5, "Sent"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/v4/spreadsheets/doc-1/values/Candidates!I5", path)
	assert.Equal(t, "RAW", input)
	assert.Equal(t, [][]any{{"Sent"}}, body.Values)
}

func TestOpenWithoutCredentials(t *testing.T) {
	o := NewOpener(Config{
		SpreadsheetID:   "sheet-1",
		SheetName:       "Candidates",
		CredentialsFile: filepath.Join(t.TempDir(), "credentials.json"),
	}, nil)

	_, err := o.Open(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestOpenWithoutSheetSettings(t *testing.T) {
	p := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))

	for _, cfg := range []Config{
		{SheetName: "Candidates", CredentialsFile: p},
		{SpreadsheetID: "sheet-1", CredentialsFile: p},
	} {
		_, err := NewOpener(cfg, nil).Open(context.Background())
		assert.ErrorIs(t, err, config.ErrNotConfigured)
		assert.NotErrorIs(t, err, ErrNoCredentials)
	}
}

func TestOpenBadCredentials(t *testing.T) {
	p := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))

	_, err := NewOpener(Config{SpreadsheetID: "sheet-1", SheetName: "Candidates", CredentialsFile: p}, nil).Open(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredentials)
}
