package drive

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileClassification(t *testing.T) {
	cases := []struct {
		mime      string
		folder    bool
		supported bool
	}{
		{MimeFolder, true, false},
		{MimeDocument, false, true},
		{MimeSpreadsheet, false, true},
		{"application/vnd.google-apps.form", false, false},
		{"application/pdf", false, false},
	}

	for _, tc := range cases {
		f := &File{MimeType: tc.mime}
		assert.Equal(t, tc.folder, f.IsFolder(), tc.mime)
		assert.Equal(t, tc.supported, f.IsSupported(), tc.mime)
	}
}

func TestListResponseDecoding(t *testing.T) {
	raw := `{
		"nextPageToken": "tok",
		"files": [
			{"id": "d1", "name": "Notes", "mimeType": "application/vnd.google-apps.document",
			 "modifiedTime": "2026-08-30T10:00:00.000Z", "size": "2048"},
			{"id": "f1", "name": "Sub", "mimeType": "application/vnd.google-apps.folder"}
		]
	}`

	var resp listResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	assert.Equal(t, "tok", resp.NextPageToken)
	require.Len(t, resp.Files, 2)
	assert.Equal(t, "2026-08-30T10:00:00.000Z", resp.Files[0].ModifiedTime)
	assert.Equal(t, int64(2048), resp.Files[0].Size)
	assert.Zero(t, resp.Files[1].Size)
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, "plain", escapeQuery("plain"))
	assert.Equal(t, `it\'s`, escapeQuery("it's"))
	assert.Equal(t, `\'\'`, escapeQuery("''"))
}

func TestAPIErrorFormat(t *testing.T) {
	err := &APIError{Op: "list children", StatusCode: 404, Status: "NOT_FOUND", Message: "File not found"}
	assert.Equal(t, "drive: list children: File not found (404 NOT_FOUND)", err.Error())
}

func TestSpreadsheetResponseDecoding(t *testing.T) {
	raw := `{"sheets": [
		{"properties": {"sheetId": 0, "title": "Q1", "index": 0}},
		{"properties": {"sheetId": 412, "title": "Q2", "index": 1}}
	]}`

	var resp spreadsheetResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	require.Len(t, resp.Sheets, 2)
	assert.Equal(t, "Q2", resp.Sheets[1].Properties.Title)
	assert.Equal(t, int64(412), resp.Sheets[1].Properties.SheetID)
}
