package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NumberPrefix is the leading tag on every order number.
const NumberPrefix = "ORD"

// NewNumber generates a date-stamped order number with a random suffix,
// e.g. ORD-20260828-9F2C41AB. Uniqueness is enforced by the database; the
// caller retries on collision.
func NewNumber(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate order number suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s",
		NumberPrefix,
		now.Format("20060102"),
		hex.EncodeToString(suffix),
	), nil
}
