package style

import (
	"bytes"
	"io"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	State string `json:"state" yaml:"state"`
}

func TestPrint(t *testing.T) {
	data := sample{Name: "Ana", State: "success"}
	text := func(w io.Writer) { _, _ = io.WriteString(w, "plain") }

	tests := []struct {
		format string
		want   string
	}{
		{"json", "{\n  \"name\": \"Ana\",\n  \"state\": \"success\"\n}\n"},
		{"yaml", "name: Ana\nstate: success\n"},
		{"text", "plain"},
		{"", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			Print(&buf, tt.format, data, text)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "done")
	Error(&buf, "failed")
	Warning(&buf, "careful")
	Info(&buf, "note")

	out := ansi.Strip(buf.String())
	for _, want := range []string{"done", "failed", "careful", "note", "✓", "✗", "⚠", "ℹ"} {
		assert.Contains(t, out, want)
	}
}

func TestFormatURL(t *testing.T) {
	url := "http://localhost:9000/api/greeting?name=World"
	rendered := FormatURL(url)

	assert.Equal(t, url, ansi.Strip(rendered))
	assert.Contains(t, rendered, url, "address must not be split by escape sequences")
}

func TestTestSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewTestSpinner(&buf)

	s.Stop()
	s.SetSuffix(" Fetching greeting...")
	s.Start()
	s.Start()
	s.SetFinalMSG("ready")
	s.Stop()

	assert.Equal(t,
		"[SET SUFFIX]  Fetching greeting...\n[SPINNER START]\n[SPINNER STOP]\n[FINAL MSG] ready\n",
		buf.String())
}

func TestNewSpinner(t *testing.T) {
	var buf bytes.Buffer

	t.Setenv(SpinnerTestEnv, "true")
	_, ok := NewSpinner(&buf).(*TestSpinner)
	require.True(t, ok)

	t.Setenv(SpinnerTestEnv, "")
	_, ok = NewSpinner(&buf).(*TerminalSpinner)
	require.True(t, ok)
}
