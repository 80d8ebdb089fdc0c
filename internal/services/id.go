package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRecordID returns a base-36 millisecond timestamp followed by eight
// random characters, uppercased. Uniqueness is probabilistic.
func NewRecordID(now time.Time) string {
	prefix := strconv.FormatInt(now.UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strings.ToUpper(prefix + suffix)
}
