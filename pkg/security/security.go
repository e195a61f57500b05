package security

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jdziat/rowlock-jobs/pkg/core"
)

// Security limits and configuration
const (
	// MaxJobDataSize is the maximum size in bytes for a job's data (1MB)
	MaxJobDataSize = 1 << 20

	// MaxErrorMessageLength is the maximum length for logged error messages
	MaxErrorMessageLength = 4096

	// MinPollInterval is the shortest idle wait a worker may use
	MinPollInterval = time.Millisecond
)

// ValidateJobData enforces the data size limit.
func ValidateJobData(data []byte) error {
	if len(data) > MaxJobDataSize {
		return core.ErrJobDataTooLarge
	}
	return nil
}

// ValidateJobID checks that id is a job id the store could have assigned.
func ValidateJobID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return core.ErrJobNotFound
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for logging
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampPollInterval ensures the idle wait is at least MinPollInterval.
func ClampPollInterval(d time.Duration) time.Duration {
	if d < MinPollInterval {
		return MinPollInterval
	}
	return d
}
