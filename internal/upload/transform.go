package upload

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Transformer turns a library photo into the bytes that get uploaded.
type Transformer interface {
	Transform(data []byte) ([]byte, error)
}

// SquareCropper scales a photo to cover Size x Size, crops the centre and
// re-encodes it as JPEG.
type SquareCropper struct {
	Size    int
	Quality int
}

// Transform implements Transformer. EXIF orientation is applied first so
// portrait photos are cropped the right way up.
func (c SquareCropper) Transform(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	cropped := imaging.Fill(img, c.Size, c.Size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.JPEG, imaging.JPEGQuality(c.Quality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}
