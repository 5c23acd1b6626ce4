package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/greeter/internal/controllers"
	"github.com/lacquerai/greeter/internal/server"
	"github.com/lacquerai/greeter/internal/style"
)

const defaultPort = 9000

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start an HTTP server for the static site and the greeting API.

The server provides:
- Static files from --static-dir, or the embedded site
- GET /api/greeting?name=<name> answering "Hello, <name>!"
- WebSocket streaming of the same service on /ws/greeting
- Prometheus metrics endpoint`,
	Example: `
  greeter serve                          # Serve the embedded site on port 9000
  greeter serve --port 8080 --host 0.0.0.0
  PORT=8080 greeter serve                # Port from the environment
  greeter serve --static-dir ./public    # Serve files from a directory`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", defaultPort, "server port")
	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().String("static-dir", "", "directory with the static site (default is the embedded site)")
	serveCmd.Flags().Int("concurrency", 10, "maximum requests handled at once")
	serveCmd.Flags().Duration("shutdown-timeout", 5*time.Second, "time allowed for in-flight requests on shutdown")

	serveCmd.Flags().Bool("metrics", true, "enable Prometheus metrics endpoint")
	serveCmd.Flags().Bool("cors", true, "enable CORS headers")

	for _, name := range []string{"port", "host", "static-dir", "concurrency", "shutdown-timeout", "metrics", "cors"} {
		_ = viper.BindPFlag(name, serveCmd.Flags().Lookup(name))
	}
	_ = viper.BindEnv("port", EnvPrefix+"_PORT", "PORT")
	_ = viper.BindEnv("static-dir", EnvPrefix+"_STATIC_DIR")
	_ = viper.BindEnv("shutdown-timeout", EnvPrefix+"_SHUTDOWN_TIMEOUT")
}

// serveConfig builds the server configuration from flags, env and config file
func serveConfig() *server.Config {
	config := server.DefaultConfig()
	config.Host = viper.GetString("host")
	config.Port = viper.GetInt("port")
	config.StaticDir = viper.GetString("static-dir")
	config.Concurrency = viper.GetInt("concurrency")
	config.ShutdownTimeout = viper.GetDuration("shutdown-timeout")
	config.EnableMetrics = viper.GetBool("metrics")
	config.EnableCORS = viper.GetBool("cors")
	return config
}

func runServe(cmd *cobra.Command) error {
	config := serveConfig()

	srv, err := server.New(config)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := controllers.Register(srv.Registry()); err != nil {
		return fmt.Errorf("failed to register services: %w", err)
	}

	if !viper.GetBool("quiet") {
		out := cmd.OutOrStdout()
		base := "http://" + srv.GetAddr()
		style.Success(out, "Greeter server starting at "+style.FormatURL(base))
		fmt.Fprintf(out, "  Services: %d\n", srv.GetServiceCount())
		fmt.Fprintf(out, "  API:      %s\n", style.FormatURL(base+"/api"+controllers.GreetingPath+"?name=World"))
		if config.EnableMetrics {
			fmt.Fprintf(out, "  Metrics:  %s\n", style.FormatURL(base+"/metrics"))
		}
	}

	if err := srv.StartWithGracefulShutdown(cmd.Context()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
