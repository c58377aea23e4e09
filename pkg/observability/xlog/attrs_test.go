package xlog

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttrs(t *testing.T) {
	assert.Equal(t, slog.Attr{}, Err(nil))
	assert.Equal(t, slog.String(KeyError, "boom"), Err(errors.New("boom")))
	assert.Equal(t, slog.String(KeyDuration, "1.5s"), Duration(1500*time.Millisecond))
	assert.Equal(t, slog.Int64(KeyCount, 7), Count(7))
	assert.Equal(t, slog.String(KeyComponent, "pool"), Component("pool"))
}
