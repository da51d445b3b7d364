package errors

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexError_MessageIncludesPath(t *testing.T) {
	err := NewOpenError("/var/log/app.log", fs.ErrNotExist)
	assert.Contains(t, err.Error(), "/var/log/app.log")
	assert.Contains(t, err.Error(), "open")
}

func TestIndexError_Unwrap(t *testing.T) {
	underlying := fs.ErrPermission
	err := NewReadError("/var/log/app.log", underlying)
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func TestReadErrorsAreRecoverable(t *testing.T) {
	assert.True(t, NewReadError("f", errors.New("short read")).IsRecoverable())
	assert.False(t, NewOpenError("f", errors.New("denied")).IsRecoverable())
}

func TestConfigError_NoPath(t *testing.T) {
	err := NewConfigError("validate", errors.New("bad value"))
	assert.NotContains(t, err.Error(), "for ")
	assert.Contains(t, err.Error(), "config")
}
