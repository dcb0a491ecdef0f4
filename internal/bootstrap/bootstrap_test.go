package bootstrap

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGinMode(t *testing.T) {
	tests := []struct {
		server, current, want string
	}{
		{"production", gin.DebugMode, gin.ReleaseMode},
		{"Production", gin.ReleaseMode, gin.ReleaseMode},
		{"development", gin.DebugMode, gin.DebugMode},
		{"test", gin.DebugMode, gin.TestMode},
		{"production", gin.TestMode, gin.TestMode},
		{"development", gin.TestMode, gin.TestMode},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ginMode(tt.server, tt.current), "%s from %s", tt.server, tt.current)
	}
}
