package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// ==================== TRANSACTION IDS ====================

// GenerateTransactionID builds a gateway transaction id.
// Format: <PREFIX>-<unix millis>-<last 6 chars of owner id>
func GenerateTransactionID(prefix string, ownerID uuid.UUID, now time.Time) string {
	owner := strings.ReplaceAll(ownerID.String(), "-", "")
	if len(owner) > 6 {
		owner = owner[len(owner)-6:]
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), owner)
}

// GenerateRefundID creates the reference stored on refund records
func GenerateRefundID(now time.Time) string {
	return fmt.Sprintf("REFUND-%d", now.UnixMilli())
}

// ==================== PAGINATION ====================

func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func CalculateOffset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	return (page - 1) * perPage
}
