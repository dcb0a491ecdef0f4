package filestorage

import (
	"io"
	"mime/multipart"
)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Save stores the content of r under subPath with a generated name ending
	// in ext and returns the URL it is served at
	Save(r io.Reader, subPath, ext string) (string, error)

	// SaveFileWithPath stores an uploaded multipart file under subPath
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// DeleteFile removes a file previously returned by Save
	DeleteFile(fileURL string) error

	// GetFullPath returns the full filesystem path for a given file URL
	GetFullPath(fileURL string) string
}
