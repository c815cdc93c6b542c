package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLocalMsisdn(t *testing.T) {
	t.Run("Accepted Forms", func(t *testing.T) {
		inputs := []string{
			"0771234567",
			"263771234567",
			"+263771234567",
			" 077 123 4567 ",
			"+263-77-123-4567",
		}
		for _, input := range inputs {
			msisdn, err := ToLocalMsisdn(input)
			assert.NoError(t, err, input)
			assert.Equal(t, "0771234567", msisdn, input)
		}
	})

	t.Run("Rejected Forms", func(t *testing.T) {
		inputs := []string{
			"",
			"   ",
			"077123456",
			"07712345678",
			"0871234567",
			"27771234567",
			"07712a4567",
		}
		for _, input := range inputs {
			_, err := ToLocalMsisdn(input)
			assert.Error(t, err, "%q should be rejected", input)
			assert.False(t, IsValidMsisdn(input))
		}
	})
}
