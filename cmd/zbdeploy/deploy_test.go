package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucksec/zbdeploy/internal/config"
	"github.com/lucksec/zbdeploy/internal/credentials"
	"github.com/lucksec/zbdeploy/internal/logger"
	"github.com/lucksec/zbdeploy/internal/service"
	"github.com/lucksec/zbdeploy/internal/zeabur/zeaburtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	*app
	srv    *zeaburtest.Server
	out    *bytes.Buffer
	opened []string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv(credentials.EnvToken, "")

	srv := zeaburtest.NewServer(t)
	cfg := config.Default()
	cfg.API.GraphQLEndpoint = srv.GraphQLURL()
	cfg.API.UploadEndpoint = srv.URL
	cfg.ConfigPath = filepath.Join(t.TempDir(), config.ConfigFileName)

	creds, err := credentials.NewCredentialManager(cfg.ConfigPath)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	a, err := newApp(cfg, creds, logger.Discard(), out)
	require.NoError(t, err)

	ta := &testApp{app: a, srv: srv, out: out}
	a.openURL = func(url string) error {
		ta.opened = append(ta.opened, url)
		return nil
	}
	return ta
}

func (ta *testApp) run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd(ta.app)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(""))
	return cmd.ExecuteContext(context.Background())
}

func newWorkspaceDir(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"my-app"}`), 0644))
	return dir
}

func TestDeploy_EndToEnd(t *testing.T) {
	ta := newTestApp(t)
	ta.srv.Domain = "my-app-abcxyz"
	ws := newWorkspaceDir(t, "My App")

	require.NoError(t, ta.run(t, "deploy", ws))

	assert.Contains(t, ta.out.String(), "my-app-abcxyz")
	assert.Equal(t, []string{"https://dash.zeabur.com/projects/p1"}, ta.opened)

	data, err := os.ReadFile(filepath.Join(ws, ".zeabur", "config.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"projectID":"p1","serviceID":"s1"}`, string(data))

	assert.Equal(t, 1, ta.srv.Calls("createTemporaryProject"))
	assert.Equal(t, 1, ta.srv.Calls("createService"))
	assert.Equal(t, []string{"my-app"}, ta.srv.ServiceNames)
	assert.Equal(t, []string{"GIT"}, ta.srv.Templates)
	require.Len(t, ta.srv.Uploads, 1)
	assert.Equal(t, "e1", ta.srv.Uploads[0].EnvironmentID)
	require.Len(t, ta.srv.DomainRequests, 1)
	assert.True(t, ta.srv.DomainRequests[0].IsGenerated)
	assert.Regexp(t, `^my-app-[a-z]{6}$`, ta.srv.DomainRequests[0].Domain)
}

func TestDeploy_SecondRunReusesProject(t *testing.T) {
	ta := newTestApp(t)
	ws := newWorkspaceDir(t, "app")

	require.NoError(t, ta.run(t, "deploy", ws, "--no-browser"))
	require.NoError(t, ta.run(t, "deploy", ws, "--no-browser", "--domain", "custom"))

	assert.Equal(t, 1, ta.srv.Calls("createTemporaryProject"))
	assert.Equal(t, 1, ta.srv.Calls("createService"))
	assert.Equal(t, 2, ta.srv.Calls("uploadCode"))
	assert.Empty(t, ta.opened)

	require.Len(t, ta.srv.DomainRequests, 2)
	assert.Equal(t, "custom", ta.srv.DomainRequests[1].Domain)
	assert.False(t, ta.srv.DomainRequests[1].IsGenerated)
}

func TestDeploy_NoEnvironment(t *testing.T) {
	ta := newTestApp(t)
	ta.srv.Environments = nil
	ws := newWorkspaceDir(t, "app")

	err := ta.run(t, "deploy", ws)
	require.ErrorIs(t, err, service.ErrNoEnvironment)

	assert.Zero(t, ta.srv.Calls("uploadCode"))
	assert.Zero(t, ta.srv.Calls("addDomain"))
	assert.Empty(t, ta.opened)
}

func TestDeploy_WorkspaceValidation(t *testing.T) {
	ta := newTestApp(t)

	err := ta.run(t, "deploy", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, service.ErrNoWorkspace)

	err = ta.run(t, "deploy", t.TempDir(), t.TempDir())
	assert.ErrorIs(t, err, service.ErrMultipleWorkspaces)

	assert.Zero(t, ta.srv.TotalCalls())
}

func TestDeploy_BrowserFailureIsNotFatal(t *testing.T) {
	ta := newTestApp(t)
	ta.app.openURL = func(string) error { return errors.New("no display") }
	ws := newWorkspaceDir(t, "app")

	require.NoError(t, ta.run(t, "deploy", ws))
	assert.Contains(t, ta.out.String(), "https://dash.zeabur.com/projects/p1")
}

func TestStatusAndOpen(t *testing.T) {
	ta := newTestApp(t)
	ws := newWorkspaceDir(t, "app")

	require.NoError(t, ta.run(t, "status", ws))
	assert.Contains(t, ta.out.String(), "尚未部署过")
	assert.Error(t, ta.run(t, "open", ws))

	require.NoError(t, ta.run(t, "deploy", ws, "--no-browser"))
	ta.out.Reset()
	calls := ta.srv.TotalCalls()

	require.NoError(t, ta.run(t, "status", ws))
	assert.Contains(t, ta.out.String(), "p1")
	assert.Contains(t, ta.out.String(), "s1")

	require.NoError(t, ta.run(t, "open", ws))
	assert.Equal(t, []string{"https://dash.zeabur.com/projects/p1"}, ta.opened)
	assert.Equal(t, calls, ta.srv.TotalCalls(), "status and open are local only")
}

func TestReset(t *testing.T) {
	ta := newTestApp(t)
	ws := newWorkspaceDir(t, "app")
	require.NoError(t, ta.run(t, "deploy", ws, "--no-browser"))

	// 没有确认输入时取消
	require.NoError(t, ta.run(t, "reset", ws))
	_, err := os.Stat(filepath.Join(ws, ".zeabur", "config.json"))
	require.NoError(t, err)

	require.NoError(t, ta.run(t, "reset", ws, "--yes"))
	_, err = os.Stat(filepath.Join(ws, ".zeabur", "config.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestArchiveCommand(t *testing.T) {
	ta := newTestApp(t)
	ws := newWorkspaceDir(t, "app")
	out := filepath.Join(t.TempDir(), "code.zip")

	require.NoError(t, ta.run(t, "archive", ws, out, "--list"))
	_, err := os.Stat(out)
	require.NoError(t, err)
	assert.Zero(t, ta.srv.TotalCalls())
}

func TestCredentialCommands(t *testing.T) {
	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "credential", "set", "--token", "abcdefghijkl"))
	ta.out.Reset()
	require.NoError(t, ta.run(t, "credential", "get"))
	assert.Contains(t, ta.out.String(), "abcd****ijkl")

	require.NoError(t, ta.run(t, "credential", "remove", "--yes"))
	assert.False(t, ta.creds.HasToken())
}

func TestParseDeployArgs(t *testing.T) {
	opts, err := parseDeployArgs([]string{"--domain", "x", "--no-browser"})
	require.NoError(t, err)
	assert.Equal(t, deployOptions{domain: "x", noBrowser: true}, opts)

	opts, err = parseDeployArgs([]string{"--domain=y"})
	require.NoError(t, err)
	assert.Equal(t, "y", opts.domain)

	_, err = parseDeployArgs([]string{"--domain"})
	assert.Error(t, err)
	_, err = parseDeployArgs([]string{"--bogus"})
	assert.Error(t, err)
}

func TestLoggerConfig(t *testing.T) {
	cfg := config.Default()
	logCfg := loggerConfig(cfg)
	assert.Equal(t, logger.DefaultConfig(), logCfg)

	cfg.Log.Level = ""
	cfg.Log.LogDir = ""
	logCfg = loggerConfig(cfg)
	assert.Equal(t, logger.WARN, logCfg.Level)
	assert.Equal(t, "logs", logCfg.LogDir)

	cfg.Log.Level = "debug"
	cfg.Log.EnableFile = true
	cfg.Log.LogDir = "/var/log/zbdeploy"
	logCfg = loggerConfig(cfg)
	assert.Equal(t, logger.DEBUG, logCfg.Level)
	assert.True(t, logCfg.EnableFile)
	assert.Equal(t, "/var/log/zbdeploy", logCfg.LogDir)
}

func TestConsoleReset_AsksFirst(t *testing.T) {
	ta := newTestApp(t)
	ws := newWorkspaceDir(t, "app")
	require.NoError(t, ta.run(t, "deploy", ws, "--no-browser"))
	sidecar := filepath.Join(ws, ".zeabur", "config.json")

	c := &console{app: ta.app, ctx: context.Background(), workspace: ws, in: strings.NewReader("no\n")}
	require.NoError(t, c.handleCommand("reset"))
	_, err := os.Stat(sidecar)
	require.NoError(t, err)

	c.in = strings.NewReader("yes\n")
	require.NoError(t, c.handleCommand("reset"))
	_, err = os.Stat(sidecar)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, ta.run(t, "deploy", ws, "--no-browser"))
	c.in = strings.NewReader("")
	require.NoError(t, c.handleCommand("reset --yes"))
	_, err = os.Stat(sidecar)
	assert.True(t, os.IsNotExist(err))
}
