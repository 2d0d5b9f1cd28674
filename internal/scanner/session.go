package scanner

import (
	"context"
	"errors"
	"image"
	"io"
	"time"

	"go.uber.org/zap"
)

// FrameSource yields camera frames for the duration of a scan session. Close
// releases the underlying capture resource and must be safe to call after an
// error.
type FrameSource interface {
	// NextFrame blocks until the next frame is available or the context
	// is cancelled. It returns io.EOF when the stream ends.
	NextFrame(ctx context.Context) (image.Image, error)
	Close() error
}

// DecodeHandler receives each accepted (non-debounced) decoded payload.
type DecodeHandler func(ctx context.Context, text string)

// Session polls a frame source and hands decoded QR payloads to a handler.
// Each scanning session owns its source exclusively and releases it when the
// session ends, whether by cancellation, stream end, or error.
type Session struct {
	source   FrameSource
	decoder  FrameDecoder
	handler  DecodeHandler
	debounce time.Duration
	logger   *zap.Logger

	now      func() time.Time
	lastText string
	lastAt   time.Time
}

// NewSession creates a scan session. Repeat detections of the same payload
// within the debounce window are dropped so one physical scan is not
// processed multiple times.
func NewSession(source FrameSource, decoder FrameDecoder, debounce time.Duration, handler DecodeHandler, logger *zap.Logger) *Session {
	return &Session{
		source:   source,
		decoder:  decoder,
		handler:  handler,
		debounce: debounce,
		logger:   logger,
		now:      time.Now,
	}
}

// Run consumes frames until the context is cancelled or the source ends.
// It blocks; cancel the context to stop scanning.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		if err := s.source.Close(); err != nil {
			s.logger.Warn("failed to release frame source", zap.Error(err))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := s.source.NextFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		text, ok := s.decoder.Decode(frame)
		if !ok {
			continue
		}

		at := s.now()
		if text == s.lastText && at.Sub(s.lastAt) < s.debounce {
			continue
		}
		s.lastText = text
		s.lastAt = at

		s.logger.Debug("qr payload detected")
		s.handler(ctx, text)
	}
}
