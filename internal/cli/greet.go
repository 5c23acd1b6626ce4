package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/greeter/internal/greeting"
	"github.com/lacquerai/greeter/internal/style"
	"github.com/lacquerai/greeter/web"
)

const (
	greetStateSuccess = "success"
	greetStateError   = "error"
)

// greetCmd represents the greet command
var greetCmd = &cobra.Command{
	Use:   "greet [name]",
	Short: "Fetch a greeting and render it into a page",
	Long: `Fetch a greeting from a running greeter server and render it into the
greeting element of a page, the same way the site's script does in a browser.

On any failure the element shows the error message instead, the cause is
logged on stderr, and the command exits with a non-zero status. Failures are
logged at error level even when --log-level is left at its default; pass
--log-level disabled to silence them.`,
	Example: `
  greeter greet Ana                          # Prints <p>Hello, Ana!</p>
  greeter greet --server http://host:8080 Ana
  greeter greet --json --output json Ana     # Ask for JSON, print the result as JSON
  greeter greet --page index.html --render   # Render the whole page`,
	Args: cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		if !viper.IsSet("log-level") {
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return runGreet(cmd, name)
	},
}

func init() {
	rootCmd.AddCommand(greetCmd)

	greetCmd.Flags().String("server", fmt.Sprintf("http://localhost:%d", defaultPort), "scheme and host of the greeter server; any path is ignored, requests go to /api/greeting")
	greetCmd.Flags().String("page", "", "HTML page to render into (default is the embedded index page)")
	greetCmd.Flags().String("element", "greeting", "id of the element that shows the greeting")
	greetCmd.Flags().Bool("json", false, "ask the server for a JSON greeting")
	greetCmd.Flags().Duration("timeout", 0, "give up after this long (0 means no timeout)")
	greetCmd.Flags().Bool("render", false, "print the whole page instead of the greeting element")

	_ = viper.BindPFlag("server", greetCmd.Flags().Lookup("server"))
}

// GreetResult describes what a greet run left on the page
type GreetResult struct {
	Name  string `json:"name" yaml:"name"`
	URL   string `json:"url" yaml:"url"`
	State string `json:"state" yaml:"state"`
	HTML  string `json:"html" yaml:"html"`
}

func runGreet(cmd *cobra.Command, name string) error {
	flags := cmd.Flags()
	pagePath, _ := flags.GetString("page")
	elementID, _ := flags.GetString("element")
	asJSON, _ := flags.GetBool("json")
	timeout, _ := flags.GetDuration("timeout")
	render, _ := flags.GetBool("render")

	doc, err := loadPage(pagePath)
	if err != nil {
		return err
	}
	surface, err := doc.ElementByID(elementID)
	if err != nil {
		return err
	}

	format := greeting.FormatText
	if asJSON {
		format = greeting.FormatJSON
	}
	outputFormat := viper.GetString("output")
	fetcher, err := greeting.NewFetcher(viper.GetString("server"),
		greeting.WithFormat(format),
		greeting.WithLogger(greetLogger(cmd.ErrOrStderr(), outputFormat)),
	)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var spin style.Spinner
	if !viper.GetBool("quiet") && outputFormat == "text" {
		spin = style.NewSpinner(cmd.ErrOrStderr())
		spin.SetSuffix(" Fetching greeting...")
		spin.Start()
	}

	fetchErr := fetcher.Fetch(ctx, name, surface)

	if spin != nil {
		spin.Stop()
	}

	result := GreetResult{
		Name:  name,
		URL:   fetcher.RequestURL(name),
		State: greetStateSuccess,
		HTML:  surface.InnerHTML(),
	}
	if fetchErr != nil {
		result.State = greetStateError
	}
	if render {
		var page bytes.Buffer
		if err := doc.Render(&page); err != nil {
			return err
		}
		result.HTML = page.String()
	}

	style.Print(cmd.OutOrStdout(), outputFormat, result, func(w io.Writer) {
		fmt.Fprintln(w, strings.TrimRight(result.HTML, "\n"))
	})

	if fetchErr != nil {
		if viper.GetBool("verbose") {
			style.Error(cmd.ErrOrStderr(), fetchErr.Error())
		}
		return fmt.Errorf("greeting failed: %w", fetchErr)
	}
	return nil
}

// greetLogger sends fetch diagnostics to w, human readable in text mode
func greetLogger(w io.Writer, outputFormat string) zerolog.Logger {
	if outputFormat == "text" {
		return log.Output(zerolog.ConsoleWriter{Out: w, NoColor: true})
	}
	return log.Output(w)
}

// loadPage parses the page at path, or the embedded index page when path is empty
func loadPage(path string) (*greeting.Document, error) {
	if path == "" {
		return greeting.ParseDocument(bytes.NewReader(web.Index()))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	return greeting.ParseDocument(f)
}
