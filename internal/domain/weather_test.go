package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
)

func TestConditionForCode_KnownCodes(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "Clear"},
		{3, "Cloudy"},
		{61, "Light Rain"},
		{95, "Thunderstorm"},
		{99, "Thunderstorm With Hail"},
	}
	for _, tt := range tests {
		got, err := domain.ConditionForCode(tt.code)
		require.NoError(t, err, "code %d", tt.code)
		assert.Equal(t, tt.want, got, "code %d", tt.code)
	}
}

func TestConditionForCode_UnknownCode(t *testing.T) {
	// WMO defines nothing at these values; a forecast carrying one is corrupt
	// input and must fail loudly rather than persist an unlabeled sample.
	for _, code := range []int{-1, 50, 100, 999} {
		_, err := domain.ConditionForCode(code)
		assert.Error(t, err, "code %d should be rejected", code)
	}
}
