package scanner

import (
	"context"
	"image"
	"time"
)

// TickerFrameSource yields a fixed frame at a steady interval. It stands in
// for camera capture when the service drives its own scan loop.
type TickerFrameSource struct {
	frame  image.Image
	ticker *time.Ticker
}

// NewTickerFrameSource creates a source that emits frame every interval.
func NewTickerFrameSource(frame image.Image, interval time.Duration) *TickerFrameSource {
	return &TickerFrameSource{frame: frame, ticker: time.NewTicker(interval)}
}

// NextFrame blocks until the next tick or context cancellation.
func (s *TickerFrameSource) NextFrame(ctx context.Context) (image.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ticker.C:
		return s.frame, nil
	}
}

// Close stops the ticker.
func (s *TickerFrameSource) Close() error {
	s.ticker.Stop()
	return nil
}
