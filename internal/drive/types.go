package drive

const (
	MimeFolder      = "application/vnd.google-apps.folder"
	MimeDocument    = "application/vnd.google-apps.document"
	MimeSpreadsheet = "application/vnd.google-apps.spreadsheet"

	exportHTML = "text/html"
	exportCSV  = "text/csv"
)

// File is one remote item as returned by a listing or metadata call. It is
// ephemeral; the sync engine discards it after classification.
type File struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MimeType     string   `json:"mimeType"`
	ModifiedTime string   `json:"modifiedTime"`
	Size         int64    `json:"size,string,omitempty"`
	Parents      []string `json:"parents,omitempty"`
}

func (f *File) IsFolder() bool      { return f.MimeType == MimeFolder }
func (f *File) IsDocument() bool    { return f.MimeType == MimeDocument }
func (f *File) IsSpreadsheet() bool { return f.MimeType == MimeSpreadsheet }
func (f *File) IsSupported() bool   { return f.IsDocument() || f.IsSpreadsheet() }

type listResponse struct {
	NextPageToken string  `json:"nextPageToken"`
	Files         []*File `json:"files"`
}

// Tab is one sheet within a spreadsheet.
type Tab struct {
	Title string
	TabID int64
	Index int64
}

type spreadsheetResponse struct {
	Sheets []struct {
		Properties struct {
			SheetID int64  `json:"sheetId"`
			Title   string `json:"title"`
			Index   int64  `json:"index"`
		} `json:"properties"`
	} `json:"sheets"`
}

type createFileRequest struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
	Parents  []string `json:"parents,omitempty"`
}
