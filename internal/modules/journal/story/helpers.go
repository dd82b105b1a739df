package story

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"strings"

	"github.com/daylog/core/internal/platform"
)

const (
	maxTitleRunes = 180
	untitled      = "Untitled"
)

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	titlePattern   = regexp.MustCompile(`(?m)^#\s*(.+)$`)
)

func isISODate(s string) bool {
	return isoDatePattern.MatchString(s)
}

// BuildDigest renders notes as "- (day) text" lines in the order given,
// with each text trimmed.
func BuildDigest(notes []platform.DayNote) string {
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = "- (" + n.Day.String() + ") " + strings.TrimSpace(n.Text)
	}
	return strings.Join(lines, "\n")
}

// DeriveTitle returns the override when one was supplied, otherwise the
// text of the first heading line of markdown. Either is cut to
// maxTitleRunes.
func DeriveTitle(override *string, markdown string) string {
	title := untitled
	if override != nil {
		title = *override
	} else if m := titlePattern.FindStringSubmatch(markdown); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			title = t
		}
	}
	if r := []rune(title); len(r) > maxTitleRunes {
		title = string(r[:maxTitleRunes])
	}
	return title
}

// EstimateCostCents prices tokens at centsPerToken, rounded up.
func EstimateCostCents(tokens int64, centsPerToken float64) int64 {
	cents := int64(math.Ceil(float64(tokens) * centsPerToken))
	if cents < 0 {
		return 0
	}
	return cents
}

// ContentHash is the lowercase hex SHA-256 of the document bytes.
func ContentHash(markdown string) string {
	sum := sha256.Sum256([]byte(markdown))
	return hex.EncodeToString(sum[:])
}
