package models

// ExtractedDocument is the plain text recovered from one uploaded resume.
type ExtractedDocument struct {
	FileName string
	FileType string
	FileSize int64
	Text     string
}

type UploadResponse struct {
	Success    bool   `json:"success"`
	Text       string `json:"text"`
	FileName   string `json:"fileName"`
	FileSize   int64  `json:"fileSize"`
	FileType   string `json:"fileType"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// NewUploadResponse reports doc to the client. archiveKey is omitted when empty.
func NewUploadResponse(doc ExtractedDocument, archiveKey string) UploadResponse {
	return UploadResponse{
		Success:    true,
		Text:       doc.Text,
		FileName:   doc.FileName,
		FileSize:   doc.FileSize,
		FileType:   doc.FileType,
		ArchiveKey: archiveKey,
	}
}
