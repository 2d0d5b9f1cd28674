package scanner

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	"go.uber.org/zap"
)

// FrameDecoder is the Anti-Corruption Layer interface over the QR image
// decoder. Given one camera frame it returns the decoded text, if any.
type FrameDecoder interface {
	Decode(frame image.Image) (text string, ok bool)
}

// ZXingDecoder decodes QR codes from frames using the zxing port.
type ZXingDecoder struct {
	reader gozxing.Reader
}

// NewZXingDecoder creates a ZXingDecoder.
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{reader: zxqrcode.NewQRCodeReader()}
}

// Decode scans a single frame for a QR code. Frames without a readable code
// return ok=false; decode failures are expected at frame rate and carry no
// diagnostic value.
func (d *ZXingDecoder) Decode(frame image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(frame)
	if err != nil {
		return "", false
	}

	result, err := d.reader.Decode(bmp, nil)
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}

// MockFrameDecoder is a development implementation that reports a fixed
// payload for every frame. It simulates a scan without camera hardware.
type MockFrameDecoder struct {
	payload string
	logger  *zap.Logger
}

// NewMockFrameDecoder creates a mock decoder that always yields payload.
func NewMockFrameDecoder(payload string, logger *zap.Logger) *MockFrameDecoder {
	return &MockFrameDecoder{payload: payload, logger: logger}
}

// Decode returns the configured payload for any frame.
func (m *MockFrameDecoder) Decode(_ image.Image) (string, bool) {
	m.logger.Info("[MOCK SCANNER] frame decoded", zap.String("payload", m.payload))
	return m.payload, true
}
