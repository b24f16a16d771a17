package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dkasak/wlcap/internal/apiserver"
	"github.com/dkasak/wlcap/internal/capture"
	"github.com/dkasak/wlcap/internal/config"
	"github.com/dkasak/wlcap/internal/logger"
	"github.com/dkasak/wlcap/internal/wlsession"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wlcap HTTP API",
	Long: `Start the wlcap HTTP API: output listing, one-shot capture
endpoints, and a websocket stream of output hotplug notifications.`,
	Example: `  # Start server on the configured port (default 8080)
  wlcap serve

  # Start on a custom port
  wlcap serve --port 9090

  # Start with debug logging
  wlcap serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("wlcap - screen capture for wlroots compositors")

	log.Println("loading configuration...")
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}
	cfg := configMgr.Get()

	if viper.IsSet("log_level") && viper.GetString("log_level") != "" {
		cfg.LogLevel = viper.GetString("log_level")
	}
	if viper.IsSet("server_port") && viper.GetInt("server_port") > 0 {
		cfg.ServerPort = viper.GetInt("server_port")
	}
	logger.Init(cfg.LogLevel, false)

	log.Println("connecting to compositor...")
	ctx := context.Background()
	session, err := wlsession.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to compositor: %w", err)
	}
	defer session.Close()

	engine := capture.New(session)
	server := apiserver.NewServer(engine, session)

	go func() {
		if err := server.Start(cfg.ServerPort); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Println()
	log.Println("wlcap is running")
	log.Printf("   - API: http://localhost:%d/api", cfg.ServerPort)
	log.Println("   - Press Ctrl+C to stop")
	fmt.Println()

	<-sigChan

	fmt.Println()
	log.Println("shutting down")
	return nil
}
