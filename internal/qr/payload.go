package qr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/punchly/service-loyalty/internal/domain/token"
)

// Wire markers. These are interop-critical: existing clients encode customer
// identity as "user-<id>" and redemptions as "redeem-<json>".
const (
	identityPrefix   = "user-"
	redemptionPrefix = "redeem-"

	redemptionType = "redemption"
)

// DecodeError reports a payload that matched neither shape or failed the
// schema check. The reason is safe to show to the scanning user.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return e.Reason }

var (
	errInvalidFormat     = &DecodeError{Reason: "Invalid QR code format"}
	errInvalidRedemption = &DecodeError{Reason: "Invalid redemption QR code"}
)

// Payload is the tagged union of recognized QR payload shapes.
type Payload interface {
	isPayload()
}

// CustomerIdentityPayload is a plain "user-<id>" scan used to add punches.
type CustomerIdentityPayload struct {
	UserID uuid.UUID
}

func (CustomerIdentityPayload) isPayload() {}

// RedemptionPayload is the JSON structure embedded after the "redeem-"
// marker. Field names and order are part of the wire format. Timestamp is
// the render time in epoch milliseconds and is cosmetic; expiry is governed
// solely by the stored token.
type RedemptionPayload struct {
	Type        string    `json:"type"`
	UserID      uuid.UUID `json:"userId"`
	BusinessID  uuid.UUID `json:"businessId"`
	PunchcardID uuid.UUID `json:"punchcardId"`
	Reward      string    `json:"reward"`
	Token       string    `json:"token"`
	Timestamp   int64     `json:"timestamp"`
}

func (RedemptionPayload) isPayload() {}

// EncodeIdentity builds the customer identity payload string.
func EncodeIdentity(userID uuid.UUID) string {
	return identityPrefix + userID.String()
}

// EncodeRedemption builds the redemption payload string for an issued token.
func EncodeRedemption(t *token.RedemptionToken, renderedAt time.Time) (string, error) {
	payload := RedemptionPayload{
		Type:        redemptionType,
		UserID:      t.UserID(),
		BusinessID:  t.BusinessID(),
		PunchcardID: t.PunchcardID(),
		Reward:      t.Reward(),
		Token:       t.Value(),
		Timestamp:   renderedAt.UTC().UnixMilli(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode redemption payload: %w", err)
	}
	return redemptionPrefix + string(raw), nil
}

// Decode parses raw scanned text into one of the recognized payload shapes.
// The redemption branch is a strict schema check: unknown fields, a wrong
// type tag, or missing references are all rejected rather than partially
// accepted.
func Decode(raw string) (Payload, error) {
	switch {
	case strings.HasPrefix(raw, redemptionPrefix):
		return decodeRedemption(strings.TrimPrefix(raw, redemptionPrefix))

	case strings.HasPrefix(raw, identityPrefix):
		id, err := uuid.Parse(strings.TrimPrefix(raw, identityPrefix))
		if err != nil {
			return nil, errInvalidFormat
		}
		return CustomerIdentityPayload{UserID: id}, nil

	default:
		return nil, errInvalidFormat
	}
}

func decodeRedemption(raw string) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var payload RedemptionPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, errInvalidRedemption
	}
	if payload.Type != redemptionType {
		return nil, errInvalidRedemption
	}
	if payload.UserID == uuid.Nil || payload.BusinessID == uuid.Nil || payload.PunchcardID == uuid.Nil {
		return nil, errInvalidRedemption
	}
	return payload, nil
}
