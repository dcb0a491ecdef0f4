package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Minute, ParseDuration("1h30m", time.Hour))
	assert.Equal(t, time.Hour, ParseDuration("soon", time.Hour))
	assert.Equal(t, time.Hour, ParseDuration("0s", time.Hour))
}

func TestGetContentNullString(t *testing.T) {
	assert.False(t, GetContentNullString("").Valid)

	v := GetContentNullString("BSCS")
	assert.True(t, v.Valid)
	assert.Equal(t, "BSCS", v.String)
}
