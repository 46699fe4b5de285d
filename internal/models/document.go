package models

import (
	"mime"
	"path/filepath"
	"strings"
)

type MimeKind string

const (
	MimePlain       MimeKind = "plain"
	MimePDF         MimeKind = "pdf"
	MimeDOCX        MimeKind = "docx"
	MimeUnsupported MimeKind = "unsupported"
)

const DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// UploadedDocument is a single uploaded file. It is consumed once by the
// extractor and never mutated.
type UploadedDocument struct {
	Name         string
	DeclaredType string
	Kind         MimeKind
	RawBytes     []byte
}

func NewUploadedDocument(name, declaredType string, data []byte) *UploadedDocument {
	return &UploadedDocument{
		Name:         name,
		DeclaredType: declaredType,
		Kind:         DetectMimeKind(declaredType, name),
		RawBytes:     data,
	}
}

// DisplayType is the media type (or extension) shown to the user when the
// upload is rejected.
func (d *UploadedDocument) DisplayType() string {
	if mediaType := normalizeMediaType(d.DeclaredType); mediaType != "" {
		return mediaType
	}
	if ext := strings.ToLower(filepath.Ext(d.Name)); ext != "" {
		return ext
	}
	return "unknown"
}

// DetectMimeKind resolves the declared media type first and falls back to a
// .docx extension, which browsers often send as application/octet-stream.
func DetectMimeKind(declaredType, fileName string) MimeKind {
	switch normalizeMediaType(declaredType) {
	case "text/plain":
		return MimePlain
	case "application/pdf":
		return MimePDF
	case DOCXContentType,
		"application/vnd.openxmlformats-officedocument.wordprocessingml",
		"application/docx",
		"application/x-docx":
		return MimeDOCX
	}

	if strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return MimeDOCX
	}

	return MimeUnsupported
}

func normalizeMediaType(declaredType string) string {
	declaredType = strings.TrimSpace(declaredType)
	if declaredType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(declaredType)
	if err != nil {
		return strings.ToLower(declaredType)
	}
	return mediaType
}

type ExtractResponse struct {
	Name string   `json:"name"`
	Kind MimeKind `json:"kind"`
	Text string   `json:"text"`
}
