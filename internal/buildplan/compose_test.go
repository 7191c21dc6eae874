package buildplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeArgv(t *testing.T) {
	assert.Equal(t, []string{"build", "app"}, ComposeArgv("app", false))
	assert.Equal(t, []string{"build", "--no-cache", "app"}, ComposeArgv("app", true))
}

func TestCheckComposeFlags_RejectsIncompatible(t *testing.T) {
	assert.Error(t, CheckComposeFlags([]string{"--push"}))
	assert.Error(t, CheckComposeFlags([]string{"--platform"}))
	assert.NoError(t, CheckComposeFlags([]string{"--no-cache"}))
}
