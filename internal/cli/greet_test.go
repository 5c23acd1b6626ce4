package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lacquerai/greeter/internal/controllers"
	"github.com/lacquerai/greeter/internal/greeting"
	"github.com/lacquerai/greeter/internal/server"
)

// newGreeterServer runs the real server stack with the greeting service registered
func newGreeterServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv, err := server.New(nil)
	require.NoError(t, err)
	require.NoError(t, controllers.Register(srv.Registry()))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestGreetCommand(t *testing.T) {
	ts := newGreeterServer(t)

	stdout, stderr, err := executeCommand(t, "greet", "--server", ts.URL, "Ana")
	require.NoError(t, err)

	assert.Equal(t, "<p>Hello, Ana!</p>\n", stdout)
	assert.Contains(t, stderr, "[SPINNER START]")
	assert.Contains(t, stderr, "[SPINNER STOP]")
}

func TestGreetCommand_DefaultName(t *testing.T) {
	ts := newGreeterServer(t)

	stdout, _, err := executeCommand(t, "greet", "--server", ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello, World!</p>\n", stdout)
}

func TestGreetCommand_JSON(t *testing.T) {
	ts := newGreeterServer(t)

	stdout, stderr, err := executeCommand(t, "greet", "--server", ts.URL, "--json", "--output", "json", "Ana María")
	require.NoError(t, err)
	assert.Empty(t, stderr, "no spinner outside text output")

	var result GreetResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, GreetResult{
		Name:  "Ana María",
		URL:   ts.URL + "/api/greeting?name=Ana+Mar%C3%ADa",
		State: greetStateSuccess,
		HTML:  "<p>Hello, Ana María!</p>",
	}, result)
}

func TestGreetCommand_YAML(t *testing.T) {
	ts := newGreeterServer(t)

	stdout, _, err := executeCommand(t, "greet", "--server", ts.URL, "--output", "yaml", "Ana")
	require.NoError(t, err)

	var result GreetResult
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, greetStateSuccess, result.State)
	assert.Equal(t, "<p>Hello, Ana!</p>", result.HTML)
}

func TestGreetCommand_ServerFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	stdout, _, err := executeCommand(t, "greet", "--server", ts.URL, "--output", "json", "Ana")
	require.Error(t, err)

	var statusErr *greeting.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)

	var result GreetResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, greetStateError, result.State)
	assert.Equal(t, "<p>"+greeting.ErrorMessage+"</p>", result.HTML)
}

func TestGreetCommand_ServerUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	stdout, stderr, err := executeCommand(t, "greet", "--server", url, "--verbose", "Ana")
	require.Error(t, err)
	assert.Equal(t, "<p>"+greeting.ErrorMessage+"</p>\n", stdout)
	assert.Contains(t, stderr, "failed to fetch greeting")
}

func TestGreetCommand_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	start := time.Now()
	stdout, _, err := executeCommand(t, "greet", "--server", ts.URL, "--timeout", "50ms", "Ana")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, "<p>"+greeting.ErrorMessage+"</p>\n", stdout)
}

func TestGreetCommand_ServerFromEnv(t *testing.T) {
	ts := newGreeterServer(t)
	t.Setenv(EnvPrefix+"_SERVER", ts.URL)

	stdout, _, err := executeCommand(t, "greet", "Env")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello, Env!</p>\n", stdout)
}

func TestGreetCommand_Page(t *testing.T) {
	ts := newGreeterServer(t)

	page := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(page, []byte(`<html><body><section id="out" class="card"></section></body></html>`), 0o644))

	stdout, _, err := executeCommand(t, "greet", "--server", ts.URL, "--page", page, "--element", "out", "--render", "Ana")
	require.NoError(t, err)
	assert.Contains(t, stdout, `<section id="out" class="card visible"><p>Hello, Ana!</p></section>`)
}

func TestGreetCommand_RenderEmbeddedPage(t *testing.T) {
	ts := newGreeterServer(t)

	stdout, _, err := executeCommand(t, "greet", "--server", ts.URL, "--render", "Ana")
	require.NoError(t, err)
	snaps.MatchSnapshot(t, stdout)
}

func TestGreetCommand_PageErrors(t *testing.T) {
	ts := newGreeterServer(t)

	_, _, err := executeCommand(t, "greet", "--server", ts.URL, "--element", "missing", "Ana")
	assert.ErrorIs(t, err, greeting.ErrElementNotFound)

	_, _, err = executeCommand(t, "greet", "--server", ts.URL, "--page", filepath.Join(t.TempDir(), "nope.html"), "Ana")
	assert.ErrorContains(t, err, "failed to open page")

	_, _, err = executeCommand(t, "greet", "--server", "not a url", "Ana")
	assert.ErrorContains(t, err, "invalid server url")

	_, _, err = executeCommand(t, "greet", "--server", ts.URL, "Ana", "Bob")
	assert.Error(t, err)
}

func TestGreetCommand_LogsFailureByDefault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, stderr, err := executeCommand(t, "greet", "--server", ts.URL, "--output", "json", "Ana")
	require.Error(t, err)
	assert.Contains(t, stderr, `"level":"error"`)
	assert.Contains(t, stderr, `"message":"Error fetching greeting"`)
	assert.Contains(t, stderr, `"url":"`+ts.URL+`/api/greeting?name=Ana"`)

	_, stderr, err = executeCommand(t, "greet", "--server", ts.URL, "Ana")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error fetching greeting")
	assert.Contains(t, stderr, "status 502")

	_, stderr, err = executeCommand(t, "greet", "--server", ts.URL, "--log-level", "disabled", "Ana")
	require.Error(t, err)
	assert.NotContains(t, stderr, "Error fetching greeting")
}

func TestGreetCommand_ServerPathIgnored(t *testing.T) {
	ts := newGreeterServer(t)

	stdout, _, err := executeCommand(t, "greet", "--server", ts.URL+"/app/", "--output", "json", "Ana")
	require.NoError(t, err)

	var result GreetResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, ts.URL+"/api/greeting?name=Ana", result.URL)
	assert.Equal(t, "<p>Hello, Ana!</p>", result.HTML)

	help, _, err := executeCommand(t, "greet", "--help")
	require.NoError(t, err)
	assert.Contains(t, help, "any path is ignored")
	assert.Contains(t, help, "--log-level disabled")
}
