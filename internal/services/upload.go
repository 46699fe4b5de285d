package services

import (
	"fmt"
	"io"
	"mime/multipart"

	"alfredoptarigan/career-coach/internal/apperror"
	"alfredoptarigan/career-coach/internal/models"
)

// UploadService reads multipart uploads into memory. Nothing is written to
// disk.
type UploadService interface {
	ReadDocument(file *multipart.FileHeader) (*models.UploadedDocument, error)
	ReadAudio(file *multipart.FileHeader) ([]byte, string, error)
}

type uploadService struct {
	maxFileSize int64
}

func NewUploadService(maxFileSize int64) UploadService {
	return &uploadService{
		maxFileSize: maxFileSize,
	}
}

func (s *uploadService) ReadDocument(file *multipart.FileHeader) (*models.UploadedDocument, error) {
	data, err := s.read(file)
	if err != nil {
		return nil, err
	}

	return models.NewUploadedDocument(file.Filename, file.Header.Get("Content-Type"), data), nil
}

func (s *uploadService) ReadAudio(file *multipart.FileHeader) ([]byte, string, error) {
	data, err := s.read(file)
	if err != nil {
		return nil, "", err
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	return data, mimeType, nil
}

func (s *uploadService) read(file *multipart.FileHeader) ([]byte, error) {
	if s.maxFileSize > 0 && file.Size > s.maxFileSize {
		return nil, apperror.ValidationFailed(fmt.Sprintf("file too large, maximum size is %d MB", s.maxFileSize/1024/1024))
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	return data, nil
}
