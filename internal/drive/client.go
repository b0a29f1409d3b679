// Package drive is the remote store collaborator: listing, export, and
// upload against the Drive and Sheets REST APIs. Transient failures (429,
// 5xx) are retried here with bounded exponential backoff; callers see either
// success or a terminal *APIError.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"

	"github.com/drivemd/drivemd/internal/convert"
	"github.com/drivemd/drivemd/internal/version"
)

const (
	baseURL   = "https://www.googleapis.com"
	sheetsURL = "https://sheets.googleapis.com"
	docsURL   = "https://docs.google.com"

	filesEndpoint  = "/drive/v3/files"
	uploadEndpoint = "/upload/drive/v3/files"

	listPageSize = 100
	listFields   = "nextPageToken, files(id, name, mimeType, modifiedTime, size, parents)"
)

type Client struct {
	http *req.Client

	// folder metadata memoized across FolderPath calls
	folderCache map[string]*File
}

func NewClient(ts *TokenSource) *Client {
	client := req.C().
		SetBaseURL(baseURL).
		SetUserAgent(version.AppName+"/"+version.Version).
		SetCommonRetryCount(3).
		SetCommonRetryBackoffInterval(1*time.Second, 5*time.Second).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			if err != nil {
				return false
			}
			code := resp.StatusCode
			return code == 429 || code == 500 || code == 503
		}).
		SetCommonErrorResult(&apiErrorBody{}).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		OnBeforeRequest(func(c *req.Client, r *req.Request) error {
			tok, err := ts.Token(r.Context())
			if err != nil {
				return err
			}
			r.SetBearerAuthToken(tok)
			return nil
		})

	return &Client{
		http:        client,
		folderCache: make(map[string]*File),
	}
}

// escapeQuery escapes single quotes in Drive query string literals.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// ListChildren returns all non-trashed children of a folder, following
// pagination until exhausted.
func (c *Client) ListChildren(ctx context.Context, folderID string) ([]*File, error) {
	var all []*File
	pageToken := ""

	for {
		var page listResponse
		r := c.http.R().
			SetContext(ctx).
			SetQueryParam("q", fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))).
			SetQueryParam("pageSize", fmt.Sprint(listPageSize)).
			SetQueryParam("fields", listFields).
			SetSuccessResult(&page)
		if pageToken != "" {
			r.SetQueryParam("pageToken", pageToken)
		}
		resp, err := r.Get(filesEndpoint)
		if err := handleAPIError(resp, err, "list folder "+folderID); err != nil {
			return nil, err
		}

		all = append(all, page.Files...)
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return all, nil
}

// GetFile fetches metadata for a single item.
func (c *Client) GetFile(ctx context.Context, id string) (*File, error) {
	var file File
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "id, name, mimeType, modifiedTime, parents").
		SetSuccessResult(&file).
		Get(filesEndpoint + "/" + id)

	if err := handleAPIError(resp, err, "get file "+id); err != nil {
		return nil, err
	}
	return &file, nil
}

// ExportDocument exports a document as Markdown. The remote serves HTML;
// conversion happens here so callers only ever see the local markup format.
func (c *Client) ExportDocument(ctx context.Context, id string) ([]byte, error) {
	html, err := c.export(ctx, id, exportHTML)
	if err != nil {
		return nil, err
	}
	md, err := convert.HTMLToMarkdown(html)
	if err != nil {
		return nil, fmt.Errorf("drive: export document %s: %w", id, err)
	}
	return md, nil
}

// ExportSpreadsheet exports a whole spreadsheet as a single CSV. Multi-tab
// spreadsheets only yield the first tab this way; use GetTabs + ExportTab
// for the full fan-out.
func (c *Client) ExportSpreadsheet(ctx context.Context, id string) ([]byte, error) {
	return c.export(ctx, id, exportCSV)
}

func (c *Client) export(ctx context.Context, id, mimeType string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("mimeType", mimeType).
		Get(filesEndpoint + "/" + id + "/export")

	if err := handleAPIError(resp, err, "export "+id); err != nil {
		return nil, err
	}
	return resp.Bytes(), nil
}

// GetTabs enumerates the sheets of a spreadsheet. If enumeration fails it
// degrades to a single synthetic "Sheet1" entry so that callers can fall
// back to whole-document export.
func (c *Client) GetTabs(ctx context.Context, spreadsheetID string) ([]Tab, error) {
	var sheet spreadsheetResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "sheets(properties(sheetId,title,index))").
		Get(sheetsURL + "/v4/spreadsheets/" + spreadsheetID)

	if err := handleAPIError(resp, err, "get tabs "+spreadsheetID); err != nil {
		slog.Warn("tab enumeration unavailable, using single export", "spreadsheet", spreadsheetID, "error", err)
		return []Tab{{Title: "Sheet1"}}, nil
	}

	tabs := make([]Tab, 0, len(sheet.Sheets))
	for _, s := range sheet.Sheets {
		title := s.Properties.Title
		if title == "" {
			title = "Sheet1"
		}
		tabs = append(tabs, Tab{Title: title, TabID: s.Properties.SheetID, Index: s.Properties.Index})
	}
	if len(tabs) == 0 {
		tabs = []Tab{{Title: "Sheet1"}}
	}
	return tabs, nil
}

// ExportTab exports one sheet of a spreadsheet as CSV.
func (c *Client) ExportTab(ctx context.Context, spreadsheetID string, tabID int64) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("format", "csv").
		SetQueryParam("gid", fmt.Sprint(tabID)).
		Get(docsURL + "/spreadsheets/d/" + spreadsheetID + "/export")

	if err := handleAPIError(resp, err, fmt.Sprintf("export tab %d of %s", tabID, spreadsheetID)); err != nil {
		return nil, err
	}
	return resp.Bytes(), nil
}

// CreateDocument uploads HTML content as a new native document under
// parentID via a multipart/related upload.
func (c *Client) CreateDocument(ctx context.Context, name, parentID string, html []byte) (*File, error) {
	meta := createFileRequest{
		Name:     name,
		MimeType: MimeDocument,
		Parents:  []string{parentID},
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("drive: marshal document metadata: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	metaPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("drive: build upload body: %w", err)
	}
	metaPart.Write(metaJSON)

	mediaPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("drive: build upload body: %w", err)
	}
	mediaPart.Write(html)
	mw.Close()

	var file File
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("uploadType", "multipart").
		SetQueryParam("fields", "id, name, mimeType, modifiedTime").
		SetContentType("multipart/related; boundary=" + mw.Boundary()).
		SetBodyBytes(body.Bytes()).
		SetSuccessResult(&file).
		Post(uploadEndpoint)

	if err := handleAPIError(resp, err, "create document "+name); err != nil {
		return nil, err
	}
	return &file, nil
}

// CreateFolder creates a remote folder under parentID.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*File, error) {
	var file File
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "id, name, parents").
		SetBody(&createFileRequest{
			Name:     name,
			MimeType: MimeFolder,
			Parents:  []string{parentID},
		}).
		SetSuccessResult(&file).
		Post(filesEndpoint)

	if err := handleAPIError(resp, err, "create folder "+name); err != nil {
		return nil, err
	}
	return &file, nil
}

// FindChildFolder looks up a folder named name directly under parentID.
// Returns nil when absent.
func (c *Client) FindChildFolder(ctx context.Context, parentID, name string) (*File, error) {
	var page listResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", fmt.Sprintf("'%s' in parents and mimeType='%s' and name='%s' and trashed=false",
			escapeQuery(parentID), MimeFolder, escapeQuery(name))).
		SetQueryParam("fields", "files(id, name, parents)").
		SetQueryParam("pageSize", "1").
		SetSuccessResult(&page).
		Get(filesEndpoint)

	if err := handleAPIError(resp, err, "find child folder "+name); err != nil {
		return nil, err
	}
	if len(page.Files) == 0 {
		return nil, nil
	}
	return page.Files[0], nil
}

// FolderPath renders a human-readable breadcrumb for a folder, memoizing
// parent lookups. Deep paths are compressed to "first ... > last".
func (c *Client) FolderPath(ctx context.Context, folderID string) (string, error) {
	const ellipsisThreshold = 3

	var parts []string
	current := folderID

	for current != "" {
		meta, ok := c.folderCache[current]
		if !ok {
			var err error
			meta, err = c.GetFile(ctx, current)
			if err != nil {
				return "", err
			}
			c.folderCache[current] = meta
		}

		parts = append(parts, meta.Name)
		if len(meta.Parents) == 0 {
			break
		}
		current = meta.Parents[0]
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	if len(parts) > ellipsisThreshold {
		return fmt.Sprintf("%s ... > %s", parts[0], parts[len(parts)-1]), nil
	}
	return strings.Join(parts, " > "), nil
}
