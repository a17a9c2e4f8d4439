package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// parseDate parses a date string in YYYY-MM-DD format as UTC midnight.
func parseDate(dateStr string) (time.Time, error) {
	return time.Parse(dateLayout, dateStr)
}

func parseIntParam(v string) (int, error) {
	return strconv.Atoi(v)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
