package erp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/invopost/reconciler/internal/domain/model"
)

func TestParseODataDate(t *testing.T) {
	epoch := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, epoch, parseODataDate("/Date(1672531200000)/"))
	assert.Equal(t, epoch, parseODataDate("/Date(1672531200000+0000)/"))
	assert.Equal(t, epoch, parseODataDate("2023-01-01T00:00:00Z"))
	assert.Equal(t, epoch, parseODataDate("2023-01-01T00:00:00"))
	assert.Equal(t, epoch, parseODataDate("2023-01-01"))

	assert.True(t, parseODataDate("").IsZero())
	assert.True(t, parseODataDate("  ").IsZero())
	assert.True(t, parseODataDate("/Date(not-a-number)/").IsZero())
	assert.True(t, parseODataDate("yesterday").IsZero())
}

func TestParseODataDecimal(t *testing.T) {
	assert.Equal(t, "100.5", parseODataDecimal("100.50").String())
	assert.Equal(t, "10", parseODataDecimal(" 10.000 ").String())
	assert.True(t, parseODataDecimal("").IsZero())
	assert.True(t, parseODataDecimal("n/a").IsZero())
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, model.StatusReleased, mapStatus("05"))
	assert.Equal(t, "", mapStatus(""))
	assert.Equal(t, "03", mapStatus("03"))
}

func TestEscapeODataLiteral(t *testing.T) {
	assert.Equal(t, "O''Brien", escapeODataLiteral("O'Brien"))
	assert.Equal(t, "0001000123", escapeODataLiteral("0001000123"))
}
