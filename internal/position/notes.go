package position

import (
	"regexp"
	"strconv"
	"strings"
)

// The legacy client had no commission column and appended the amount to the
// free-text notes as "Commission: $<amount>", optionally on its own line.
// These rows still exist in imported data, so reads stay compatible with
// the encoding even though new writes use the structured column.
var (
	commissionPattern = regexp.MustCompile(`Commission: \$([\d.,]+)`)
	commissionStrip   = regexp.MustCompile(`(\r\n|\n|\r| )?Commission: \$[\d.,]+`)
)

// ParseCommission extracts a commission amount embedded in an event's notes.
// It returns the parsed amount and the notes with the commission substring
// removed and surrounding whitespace trimmed. When no marker is present the
// amount is 0 and the notes are returned unchanged.
func ParseCommission(notes string) (float64, string) {
	match := commissionPattern.FindStringSubmatch(notes)
	if match == nil {
		return 0, notes
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		// Marker present but the amount is garbage, treat as zero
		amount = 0
	}

	clean := strings.TrimSpace(commissionStrip.ReplaceAllString(notes, ""))
	return amount, clean
}

// EventCommission resolves the commission for a single event. The structured
// column wins when set; the notes encoding is only consulted for legacy rows
// so an amount is never counted twice.
func EventCommission(structured float64, notes string) float64 {
	if structured > 0 {
		return structured
	}
	amount, _ := ParseCommission(notes)
	return amount
}
