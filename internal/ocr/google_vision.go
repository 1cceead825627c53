package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// MaxImageSizeBytes is the limit for synchronous Vision API processing.
const MaxImageSizeBytes = 20 * 1024 * 1024

// GoogleVisionService implements Service using Google Cloud Vision.
type GoogleVisionService struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionService creates an OCR service with credentials from the
// environment.
func NewGoogleVisionService(ctx context.Context) (*GoogleVisionService, error) {
	const op = "NewGoogleVisionService"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, wrapErr(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, wrapErr(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, wrapErr(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionService{client: client}, nil
}

func (g *GoogleVisionService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// ExtractImage runs document text detection over a single raster image.
func (g *GoogleVisionService) ExtractImage(ctx context.Context, image io.Reader) (string, error) {
	const op = "ExtractImage"

	data, err := io.ReadAll(image)
	if err != nil {
		return "", wrapErr(op, err, "failed to read image data")
	}
	if len(data) > MaxImageSizeBytes {
		return "", wrapErr(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(data)))
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", wrapErr(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return "", wrapErr(op, ErrOCRFailed, "no response from Vision API")
	}

	annotated := resp.Responses[0]
	if annotated.Error != nil {
		return "", wrapErr(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", annotated.Error.Message))
	}

	// No detectable text is a valid result, not a failure.
	if annotated.FullTextAnnotation == nil {
		return "", nil
	}
	return strings.TrimSpace(annotated.FullTextAnnotation.Text), nil
}
