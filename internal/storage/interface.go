package storage

import (
	"context"
	"io"
)

// ProfilePictureUploader stores profile pictures and returns their public URL.
type ProfilePictureUploader interface {
	UploadProfilePicture(ctx context.Context, username string, body io.Reader, contentType string) (*UploadResult, error)
}

var _ ProfilePictureUploader = (*S3Uploader)(nil)
