package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{1234.5, "1,234.50"},
		{300000, "300,000"},
		{1250000.99, "1,250,000.99"},
		{-4200, "-4,200"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAmount(tt.in))
	}
}
