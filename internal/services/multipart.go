package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

const ResumeField = "resume"

// ResumePart is the uploaded file recovered from a multipart body.
type ResumePart struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ParseResumeUpload locates the "resume" file part of a multipart/form-data body.
// When base64Encoded is set only the outer body is decoded; part payloads are
// always taken as the raw bytes between boundaries.
func ParseResumeUpload(body []byte, contentType string, base64Encoded bool) (*ResumePart, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" || params["boundary"] == "" {
		return nil, newError(KindBadRequest, "Content-Type must be multipart/form-data", err)
	}

	if base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(body)))
		if err != nil {
			return nil, newError(KindBadRequest, "Invalid base64 request body", err)
		}
		body = decoded
	}

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := reader.NextRawPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, newError(KindBadRequest, "No file uploaded", fmt.Errorf("failed to read multipart body: %w", err))
		}

		if part.FormName() != ResumeField || part.FileName() == "" {
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, newError(KindBadRequest, "No valid file found", fmt.Errorf("failed to read resume part: %w", err))
		}
		if len(data) == 0 {
			return nil, newError(KindBadRequest, "No valid file found", nil)
		}

		return &ResumePart{
			FileName:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	}

	return nil, newError(KindBadRequest, "No file uploaded", nil)
}
