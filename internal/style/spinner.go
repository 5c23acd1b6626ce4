package style

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// SpinnerTestEnv switches NewSpinner to the line-oriented TestSpinner
const SpinnerTestEnv = "GREETER_TEST"

type Spinner interface {
	SetSuffix(suffix string)
	SetFinalMSG(finalMSG string)
	Start()
	Stop()
}

// TestSpinner prints every spinner event on its own line instead of
// redrawing, so command output stays stable in tests
type TestSpinner struct {
	mu       sync.Mutex
	Writer   io.Writer
	Suffix   string
	FinalMSG string
	color    func(a ...any) string
	active   bool
}

func NewTestSpinner(w io.Writer) *TestSpinner {
	return &TestSpinner{
		Writer: w,
		color:  color.New(color.FgWhite).SprintFunc(),
	}
}

func (s *TestSpinner) SetSuffix(suffix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.Writer, "[SET SUFFIX] %s\n", s.color(suffix))
	s.Suffix = suffix
}

func (s *TestSpinner) SetFinalMSG(finalMSG string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinalMSG = finalMSG
}

func (s *TestSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	fmt.Fprintf(s.Writer, "[SPINNER START]\n")
}

func (s *TestSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	fmt.Fprintf(s.Writer, "[SPINNER STOP]\n")
	if s.FinalMSG != "" {
		fmt.Fprintf(s.Writer, "[FINAL MSG] %s\n", s.FinalMSG)
	}
}

type TerminalSpinner struct {
	spinner *spinner.Spinner
}

func NewTerminalSpinner(cs []string, d time.Duration, options ...spinner.Option) *TerminalSpinner {
	return &TerminalSpinner{
		spinner: spinner.New(cs, d, options...),
	}
}

func (s *TerminalSpinner) SetSuffix(suffix string) {
	s.spinner.Suffix = suffix
}

func (s *TerminalSpinner) SetFinalMSG(finalMSG string) {
	s.spinner.FinalMSG = finalMSG
}

func (s *TerminalSpinner) Start() {
	s.spinner.Start()
}

func (s *TerminalSpinner) Stop() {
	s.spinner.Stop()
}

func NewSpinner(w io.Writer) Spinner {
	if os.Getenv(SpinnerTestEnv) == "true" {
		return NewTestSpinner(w)
	}

	return NewTerminalSpinner(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
}
