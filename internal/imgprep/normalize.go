// Package imgprep prepares raw receipt photos for the vision model call.
package imgprep

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/claud0698/boulder-delivery-receipts/internal/common"
)

// Normalizer re-encodes raw image bytes into a bounded JPEG payload.
// Receipts do not need full camera resolution; a bounded JPEG is smaller
// to upload and cheaper to process.
type Normalizer struct {
	maxDim  int
	quality int
	logger  *slog.Logger
}

func NewNormalizer(maxDimension int, logger *slog.Logger) *Normalizer {
	if maxDimension <= 0 {
		maxDimension = 800
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{maxDim: maxDimension, quality: 85, logger: logger}
}

// Normalize corrects EXIF orientation, converts to an RGB JPEG and
// downscales so neither dimension exceeds the configured cap. Aspect ratio
// is preserved and images below the cap are never upsampled.
// Returns common.ErrImageDecode if the bytes cannot be parsed as an image;
// callers must treat that as non-retryable for this image.
func (n *Normalizer) Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrImageDecode, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > n.maxDim || h > n.maxDim {
		img = imaging.Fit(img, n.maxDim, n.maxDim, imaging.Lanczos)
		resized := img.Bounds()
		n.logger.Info("imgprep.resized",
			"from_width", w, "from_height", h,
			"to_width", resized.Dx(), "to_height", resized.Dy(),
		)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(n.quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
