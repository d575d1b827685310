package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// NearLimitPercent is the usage share at which the quota is reported as
// nearly exhausted.
const NearLimitPercent = 80

// KeyTier is the provider plan a key belongs to.
type KeyTier string

const (
	TierFree KeyTier = "free"
	TierPro  KeyTier = "pro"
)

// TierOf classifies a provider key; free keys carry the ":fx" suffix.
func TierOf(apiKey string) KeyTier {
	if strings.HasSuffix(strings.TrimSpace(apiKey), ":fx") {
		return TierFree
	}
	return TierPro
}

// MaskKey keeps the first 8 and last 4 characters of a key for display.
func MaskKey(apiKey string) string {
	if len(apiKey) <= 12 {
		return strings.Repeat("*", len(apiKey))
	}
	return apiKey[:8] + "..." + apiKey[len(apiKey)-4:]
}

// UsageReport is a provider usage snapshot with derived figures.
type UsageReport struct {
	CharacterCount int64
	CharacterLimit int64
}

// Percentage is the rounded share of the limit already consumed, 0 when
// the limit is unknown.
func (u UsageReport) Percentage() int {
	if u.CharacterLimit <= 0 {
		return 0
	}
	return int(math.Round(float64(u.CharacterCount) / float64(u.CharacterLimit) * 100))
}

// Remaining never goes below zero.
func (u UsageReport) Remaining() int64 {
	return max(0, u.CharacterLimit-u.CharacterCount)
}

func (u UsageReport) IsNearLimit() bool {
	return u.Percentage() >= NearLimitPercent
}

// Display renders the report as "12,345 / 500,000 characters".
func (u UsageReport) Display() string {
	return fmt.Sprintf("%s / %s characters", humanize.Comma(u.CharacterCount), humanize.Comma(u.CharacterLimit))
}

// UsageResult carries either a report or the reason it could not be fetched.
type UsageResult struct {
	Usage *UsageReport
	Error error
}
