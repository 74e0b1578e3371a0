package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) (string, error) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "rollback", "recalculate", "publish", "token"} {
		assert.True(t, names[want], "缺少子命令 %s", want)
	}
}

func TestRecalculate_RequiresFlags(t *testing.T) {
	_, err := execute("recalculate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestPublish_RejectsInvalidIDs(t *testing.T) {
	_, err := execute("publish", "--event", "not-a-uuid", "--actor", "6f1c2b9e-8d4a-4c1e-9b7a-2f3d4e5a6b7c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--event")
}

func TestToken_RejectsUnknownRole(t *testing.T) {
	_, err := execute("token", "--actor", "6f1c2b9e-8d4a-4c1e-9b7a-2f3d4e5a6b7c", "--role", "root")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未知角色")
}

func TestToken_IssuesToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: cli-test-secret-0123456789\nlog:\n  level: error\n"), 0o600))

	out, err := execute("token", "--config", path, "--actor", "6f1c2b9e-8d4a-4c1e-9b7a-2f3d4e5a6b7c")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."), "JWT 由三段组成")
}
