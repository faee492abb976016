package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zerodice0/youtube-download-gateway/internal/catalog"
	"github.com/zerodice0/youtube-download-gateway/internal/config"
	"github.com/zerodice0/youtube-download-gateway/internal/download"
	"github.com/zerodice0/youtube-download-gateway/internal/extractor"
	"github.com/zerodice0/youtube-download-gateway/internal/logger"
	"github.com/zerodice0/youtube-download-gateway/internal/storage"
)

var (
	cfgFile    string
	verbose    bool
	cfg        *config.Config
	log        *zap.SugaredLogger
	tool       *extractor.YtdlpTool
	workspace  *storage.Workspace
	catalogSvc *catalog.Service
	downloader *download.Downloader

	// Version info (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "youtube-download-gateway",
	Short: "YouTube format catalog and download gateway",
	Long: `YouTube Download Gateway - list and download YouTube formats via yt-dlp.

Metadata and downloads go through a ladder of yt-dlp strategies
(default client, alternate clients, format-check bypass) until one
succeeds.

Features:
  - Deduplicated video catalog with a single preferred audio track
  - Video+audio merging and mp3 extraction
  - HTTP API and command line front ends`,
	PersistentPreRunE:  initApp,
	PersistentPostRunE: syncLogger,
	SilenceUsage:       true,
}

// Execute runs the CLI
func Execute() error {
	rootCmd.Version = fmt.Sprintf("%s (built at %s)", Version, BuildTime)
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

// initApp initializes the application components
func initApp(cmd *cobra.Command, args []string) error {
	// Skip init for help commands
	if cmd.Name() == "help" || cmd.Name() == "version" {
		return nil
	}

	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	log, err = logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize temp workspace
	workspace, err = storage.NewWorkspace(cfg.Storage.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to initialize workspace: %w", err)
	}

	// Initialize yt-dlp strategy runner
	tool = extractor.NewYtdlpTool(cfg.Ytdlp.BinaryPath, cfg.Ytdlp.KillGrace)
	runner := extractor.NewRunner(tool, log)
	prefix := extractor.PrefixArgs(cfg.Ytdlp.CookiesFile, cfg.FFmpeg.BinaryPath)

	ext := extractor.NewYtdlpExtractor(runner, cfg.Ytdlp.MetadataTimeout, prefix)
	catalogSvc = catalog.NewService(ext, cfg.Policy.DesiredLanguage, log)
	downloader = download.NewDownloader(runner, workspace, cfg.Ytdlp.DownloadTimeout, prefix, log)

	log.Debugf("[CLI] config loaded: work dir %s, desired language %s", cfg.Storage.WorkDir, cfg.Policy.DesiredLanguage)
	return nil
}

func syncLogger(cmd *cobra.Command, args []string) error {
	if log != nil {
		_ = log.Sync()
	}
	return nil
}

// getContext returns a context that's cancelled on interrupt
func getContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("youtube-download-gateway %s (built at %s)\n", Version, BuildTime)
	},
}
