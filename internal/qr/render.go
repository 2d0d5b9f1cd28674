package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultImageSize is the rendered QR code edge length in pixels.
const DefaultImageSize = 200

// RenderPNG encodes a payload string as a scannable PNG. Medium error
// correction matches what the web clients render.
func RenderPNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultImageSize
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
