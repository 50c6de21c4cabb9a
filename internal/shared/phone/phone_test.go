package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"targetsync/internal/shared/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		region string
		want   string
	}{
		{
			name:   "national number with default region",
			raw:    "415-555-2671",
			region: "US",
			want:   "+1 415-555-2671",
		},
		{
			name:   "already international",
			raw:    "+31 20 794 8300",
			region: "US",
			want:   "+31 20 794 8300",
		},
		{
			name:   "dutch national number",
			raw:    "020 794 8300",
			region: "NL",
			want:   "+31 20 794 8300",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.region)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeInvalid(t *testing.T) {
	_, err := Normalize("not a number", "US")
	assert.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	_, err = Normalize("", "US")
	assert.Error(t, err)
}
