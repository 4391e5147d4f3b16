package failure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindTextIsPatternMatchable(t *testing.T) {
	assert.Equal(t, "version required", ErrMissingVersionArgument.Error())
	assert.Equal(t, "not installed", ErrNotInstalled.Error())
	assert.Equal(t, "not an executable file", ErrNotExecutable.Error())
	assert.Equal(t, "not an absolute path", ErrNotAbsolutePath.Error())
	assert.Equal(t, "invalid hook event", ErrInvalidHookEvent.Error())
	assert.Equal(t, "hook path required", ErrMissingHookPath.Error())
}
