package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/api"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/service"
)

func TestCommandPresence(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"serve", "migrate", "run", "set-channel", "leaderboard", "token", "config"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCommand()
	assert.NotNil(t, root.PersistentFlags().Lookup("config-dir"))
	assert.NotNil(t, root.PersistentFlags().Lookup("format"))

	token, _, err := root.Find([]string{"token"})
	require.NoError(t, err)
	assert.NotNil(t, token.Flags().Lookup("ttl"))
	assert.NotNil(t, token.Flags().Lookup("operator"))
}

// writeConfig 在临时目录写 config.yaml，数据库用 sqlite 文件
func writeConfig(t *testing.T, secret string) string {
	t.Helper()
	dir := t.TempDir()
	content := "database:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "cli.db") + "\n" +
		"server:\n  jwt_secret: \"" + secret + "\"\n" +
		"discord:\n  token: \"bot-secret\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInvalidFormatRejected(t *testing.T) {
	dir := writeConfig(t, "")
	_, err := execute(t, "--config-dir", dir, "--format", "xml", "config")
	assert.Error(t, err)
}

func TestConfigCommandMasksSecrets(t *testing.T) {
	dir := writeConfig(t, "s3cret")
	out, err := execute(t, "--config-dir", dir, "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "s3cret")
	assert.NotContains(t, out, "bot-secret")

	var parsed map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed, "schedule")
}

func TestTokenCommand(t *testing.T) {
	dir := writeConfig(t, "s3cret")
	out, err := execute(t, "--config-dir", dir, "token", "--operator", "ops")
	require.NoError(t, err)

	claims, err := api.ParseToken("s3cret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)

	_, err = execute(t, "--config-dir", writeConfig(t, ""), "token")
	assert.Error(t, err)
}

func TestSetChannelThenLeaderboard(t *testing.T) {
	dir := writeConfig(t, "")
	out, err := execute(t, "--config-dir", dir, "set-channel", "g1", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "g1")

	out, err = execute(t, "--config-dir", dir, "leaderboard", "g1")
	require.NoError(t, err)
	assert.Equal(t, "no predictions yet\n", out)

	out, err = execute(t, "--config-dir", dir, "--format", "json", "leaderboard", "g1")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestWriteLeaderboardText(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, writeLeaderboard(cmd, "text", []service.LeaderboardEntry{
		{Rank: 1, MemberID: "B", Perfect: 1, Winner: 1, Total: 2, Accuracy: 1},
	}))
	assert.Contains(t, buf.String(), "RANK")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestRunRequiresJobName(t *testing.T) {
	_, err := execute(t, "run")
	assert.Error(t, err)
}
