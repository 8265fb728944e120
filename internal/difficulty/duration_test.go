package difficulty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentscout/segmentscout/internal/difficulty"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "plain seconds", input: "45", want: 45},
		{name: "seconds with unit", input: "45s", want: 45},
		{name: "zero literal", input: "0", want: 0},
		{name: "minutes and seconds", input: "5:30", want: 330},
		{name: "hours minutes seconds", input: "1:23:45", want: 5025},
		{name: "large hours", input: "12:00:00", want: 43200},
		{name: "leading zeros", input: "01:05", want: 65},
		{name: "surrounding whitespace", input: " 5:30 ", want: 330},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := difficulty.ParseDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"-",
		"—",
		"abc",
		"5:3a",
		"a:30",
		"1:2:3:4",
		"5:",
		":30",
		"-5:30",
		"5:-30",
		"4m",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := difficulty.ParseDuration(input)
			require.ErrorIs(t, err, difficulty.ErrUnparseableDuration)
		})
	}
}
