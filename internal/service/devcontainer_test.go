package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		name          string
		workspacePath string
	}{
		{
			name:          "simple workspace path",
			workspacePath: "/home/user/project",
		},
		{
			name:          "workspace path with special chars",
			workspacePath: "/home/user/my-project_2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &DevContainerService{workspacePath: tt.workspacePath}
			ids, err := svc.GetIdentifiers()
			require.NoError(t, err)
			assert.NotEmpty(t, ids.WorkspaceID)
			assert.NotEmpty(t, ids.SSHHost)
		})
	}
}

func TestLockOptionsModes(t *testing.T) {
	tests := []struct {
		name string
		mode LockMode
	}{
		{name: "generate", mode: LockModeGenerate},
		{name: "verify", mode: LockModeVerify},
		{name: "frozen", mode: LockModeFrozen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := LockOptions{Mode: tt.mode}
			assert.Equal(t, tt.mode, opts.Mode)
		})
	}
}

func TestLockActionValues(t *testing.T) {
	// LockActionCreated must remain the zero value so a freshly zeroed
	// LockResult reads as "created" rather than some other action.
	assert.Equal(t, LockAction(0), LockActionCreated)
	assert.NotEqual(t, LockActionCreated, LockActionUpdated)
	assert.NotEqual(t, LockActionUpdated, LockActionVerified)
	assert.NotEqual(t, LockActionVerified, LockActionNoChange)
	assert.NotEqual(t, LockActionNoChange, LockActionNoFeatures)
}

func TestJoinStrings(t *testing.T) {
	tests := []struct {
		name string
		strs []string
		sep  string
		want string
	}{
		{name: "empty", strs: nil, sep: ", ", want: ""},
		{name: "single", strs: []string{"a"}, sep: ", ", want: "a"},
		{name: "multiple", strs: []string{"a", "b", "c"}, sep: ", ", want: "a, b, c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joinStrings(tt.strs, tt.sep))
		})
	}
}

func TestGetStateManager(t *testing.T) {
	svc := NewDevContainerService(nil, "/workspace", "", false)
	defer svc.Close()

	assert.NotNil(t, svc.GetStateManager())
}
