// Package ocr extracts text from prescription images.
//
// The default backend is Google Cloud Vision's document text detection; any
// backend that returns plain text can be substituted behind Service.
//
// Credentials are read from GOOGLE_CREDENTIALS (inline JSON) or
// GOOGLE_APPLICATION_CREDENTIALS (path to a service account file), falling
// back to application default credentials.
package ocr

import (
	"context"
	"io"
)

// Service extracts text from a raster image.
type Service interface {
	// ExtractImage returns the text detected in the image. An image with no
	// detectable text yields an empty string and no error.
	ExtractImage(ctx context.Context, image io.Reader) (string, error)
}

// Unavailable returns a Service that fails every extraction with err. Used
// when no OCR backend could be configured, so the rest of the application
// keeps working.
func Unavailable(err error) Service {
	return unavailable{err: err}
}

type unavailable struct {
	err error
}

func (u unavailable) ExtractImage(ctx context.Context, image io.Reader) (string, error) {
	return "", u.err
}
