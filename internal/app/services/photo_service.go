package services

import (
	"bytes"
	"context"
	"io"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/filestorage"
)

// Photo thumbnails are square JPEGs of this edge length.
const PhotoSize = 256

const photoDir = "photos"

// PhotoService stores student photos as thumbnails
type PhotoService struct {
	students StudentService
	storage  filestorage.FileStorage
	logger   zerolog.Logger
}

// NewPhotoService creates a new PhotoService
func NewPhotoService(students StudentService, storage filestorage.FileStorage, logger zerolog.Logger) *PhotoService {
	return &PhotoService{students: students, storage: storage, logger: logger}
}

// UploadPhoto decodes r, crops it to a centred square thumbnail, stores it
// and points the student at it. The previous upload, if any, is removed.
func (s *PhotoService) UploadPhoto(ctx context.Context, studentID string, r io.Reader) (*models.Student, error) {
	current, err := s.students.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.NewValidationError("File is not a supported image.")
	}
	thumb := imaging.Fill(img, PhotoSize, PhotoSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}

	url, err := s.storage.Save(&buf, photoDir, ".jpg")
	if err != nil {
		return nil, err
	}

	updated, err := s.students.SetPhoto(ctx, studentID, url)
	if err != nil {
		_ = s.storage.DeleteFile(url)
		return nil, err
	}

	if current.PhotoURL != models.DefaultPhotoURL {
		if err := s.storage.DeleteFile(current.PhotoURL); err != nil {
			s.logger.Warn().Err(err).Str("studentID", studentID).Msg("Failed to remove previous photo")
		}
	}
	return updated, nil
}
