package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommission(t *testing.T) {
	tests := []struct {
		name       string
		notes      string
		wantAmount float64
		wantNotes  string
	}{
		{
			name:       "commission on its own line",
			notes:      "Reason text\nCommission: $12.50",
			wantAmount: 12.50,
			wantNotes:  "Reason text",
		},
		{
			name:       "commission mid string",
			notes:      "Scaled out Commission: $3.20 near resistance",
			wantAmount: 3.20,
			wantNotes:  "Scaled out near resistance",
		},
		{
			name:       "thousands separator",
			notes:      "Commission: $1,250.75",
			wantAmount: 1250.75,
			wantNotes:  "",
		},
		{
			name:       "no marker",
			notes:      "Plain note about the setup",
			wantAmount: 0,
			wantNotes:  "Plain note about the setup",
		},
		{
			name:       "empty notes",
			notes:      "",
			wantAmount: 0,
			wantNotes:  "",
		},
		{
			name:       "windows line ending before marker",
			notes:      "Entry note\r\nCommission: $5.00",
			wantAmount: 5.00,
			wantNotes:  "Entry note",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, clean := ParseCommission(tt.notes)
			assert.Equal(t, tt.wantAmount, amount)
			assert.Equal(t, tt.wantNotes, clean)
		})
	}
}

func TestEventCommission(t *testing.T) {
	// Structured column wins over legacy text so the amount is never doubled
	assert.Equal(t, 7.5, EventCommission(7.5, "Commission: $12.50"))
	assert.Equal(t, 12.5, EventCommission(0, "Commission: $12.50"))
	assert.Equal(t, 0.0, EventCommission(0, "no commission here"))
}
