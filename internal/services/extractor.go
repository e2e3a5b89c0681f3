package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

type FileKind string

const (
	FilePDF  FileKind = "pdf"
	FileDOCX FileKind = "docx"
	FileTXT  FileKind = "txt"
)

// MIMEType is the canonical media type reported when the upload did not declare one.
func (k FileKind) MIMEType() string {
	switch k {
	case FilePDF:
		return "application/pdf"
	case FileDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain"
	}
}

// KindFromFilename selects the extractor by extension, ignoring case.
func KindFromFilename(name string) (FileKind, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "pdf":
		return FilePDF, nil
	case "docx":
		return FileDOCX, nil
	case "txt":
		return FileTXT, nil
	}
	return "", newError(KindUnsupportedType, "Unsupported file type. Please upload PDF, DOCX, or TXT files.", nil)
}

type TextExtractor interface {
	// Extract returns the trimmed text of data. Empty text is an error.
	Extract(kind FileKind, data []byte) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

func (e *textExtractor) Extract(kind FileKind, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch kind {
	case FilePDF:
		text, err = extractPDF(data)
		if err != nil {
			return "", newError(KindExtraction, "Failed to extract text from PDF", err)
		}
	case FileDOCX:
		text, err = extractDOCX(data)
		if err != nil {
			return "", newError(KindExtraction, "Failed to extract text from DOCX", err)
		}
	case FileTXT:
		text = decodeText(data)
	default:
		return "", newError(KindUnsupportedType, "Unsupported file type. Please upload PDF, DOCX, or TXT files.", nil)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", newError(KindEmptyExtraction, "Could not extract text from the uploaded file", nil)
	}
	return text, nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed object graphs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		b.WriteString(pageText)
		b.WriteString("\n\n")
	}

	return b.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer doc.Close()

	return wordprocessingText(doc.Editable().GetContent())
}

// wordprocessingText flattens a WordprocessingML body to text: runs are joined,
// tabs and breaks kept, and every paragraph ends with a newline.
func wordprocessingText(documentXML string) (string, error) {
	const ns = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	dec := xml.NewDecoder(strings.NewReader(documentXML))
	var (
		b      strings.Builder
		inText bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != ns {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != ns {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}

func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return strings.ToValidUTF8(string(data), "�")
}
