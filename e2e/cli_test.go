package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/othellochat/internal/api"
	"github.com/mcoot/othellochat/internal/factory"
	"github.com/mcoot/othellochat/internal/model"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "othello-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/othello")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
		"--timeout", "5s",
	}, args...)

	return exec.Command(r.binaryPath, fullArgs...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command(args...).CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	app      *factory.App
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	app, err := factory.New(factory.Config{})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	server := api.NewServer(app.Handler(factory.HandlerConfig{}), api.DefaultServerConfig(), logger)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = app.Loop.Run(loopCtx)
	}()

	// Start server
	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		app:  app,
		addr: serverURL,
		shutdown: func() {
			app.Hub.Close()
			_ = server.Shutdown(context.Background())
			stopLoop()
			<-loopDone
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// waitForPlayers polls the stats endpoint until n players are registered
func waitForPlayers(t *testing.T, cli *cliRunner, n int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		output, err := cli.run("stats")
		if err == nil {
			var stats statsResponse
			if json.Unmarshal([]byte(output), &stats) == nil && stats.Players >= n {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatalf("never saw %d registered players", n)
}

// Response types for JSON parsing
type healthResponse struct {
	Status string `json:"status"`
}

type statsResponse struct {
	Players     int `json:"players"`
	Games       int `json:"games"`
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

type eventLine struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_StatsOnEmptyServer(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("stats")
	require.NoError(t, err, "output: %s", output)

	var stats statsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.Equal(t, statsResponse{}, stats)
}

func TestCLI_ChatReachesListener(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	var listenOut bytes.Buffer
	listener := cli.command("listen", "--username", "ann", "--until", string(model.EventSendChatMessageResponse))
	listener.Stdout = &listenOut
	listener.Stderr = &listenOut
	require.NoError(t, listener.Start())

	waitForPlayers(t, cli, 1)

	output, err := cli.run("chat", "--username", "bob", "hello", "there")
	require.NoError(t, err, "output: %s", output)

	var echo model.ChatMessage
	require.NoError(t, json.Unmarshal([]byte(output), &echo))
	assert.Equal(t, "bob", echo.Username)
	assert.Equal(t, "hello there", echo.Message)
	assert.Equal(t, model.LobbyRoom, echo.Room)

	done := make(chan error, 1)
	go func() { done <- listener.Wait() }()
	select {
	case err := <-done:
		require.NoError(t, err, "listener output: %s", listenOut.String())
	case <-time.After(5 * time.Second):
		_ = listener.Process.Kill()
		t.Fatalf("listener did not exit; output: %s", listenOut.String())
	}

	var last eventLine
	lines := strings.Split(strings.TrimSpace(listenOut.String()), "\n")
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, string(model.EventSendChatMessageResponse), last.Event)
	assert.Contains(t, string(last.Payload), "hello there")
}

func TestCLI_GameCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Joining a game room creates the game
	output, err := cli.run("chat", "--room", "abc", "--username", "ann", "gl hf")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("game", "list")
	require.NoError(t, err, "output: %s", output)
	var list struct {
		Games []string `json:"games"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	assert.Equal(t, []string{"abc"}, list.Games)

	output, err = cli.run("game", "get", "abc")
	require.NoError(t, err, "output: %s", output)
	var game model.Game
	require.NoError(t, json.Unmarshal([]byte(output), &game))
	assert.Equal(t, model.GameID("abc"), game.ID)
	assert.Equal(t, model.ColorBlack, game.WhoseTurn)
	assert.Equal(t, "ann", game.PlayerWhite.Username)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Unknown game
	output, err := cli.run("game", "get", "nope")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	// Missing username is rejected by the CLI before dialing
	output, err = cli.run("chat", "hello")
	assert.Error(t, err)
	assert.Contains(t, output, "username")

	// A room name is required by the server
	output, err = cli.run("chat", "--room", "", "--username", "ann", "hello")
	assert.Error(t, err)
	assert.Contains(t, output, model.ErrJoinNoRoom.Message)
}
