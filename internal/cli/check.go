package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify yt-dlp, ffmpeg and the cookie file",
	Long: `Verify that the external tools the gateway drives are usable.

Examples:
  youtube-download-gateway check
  youtube-download-gateway check -c /etc/youtube-download-gateway/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

type checkResult struct {
	name   string
	ok     bool
	detail string
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	results := []checkResult{checkYtdlp(ctx), checkFFmpeg(ctx), checkCookies(), checkWorkDir()}

	fmt.Println()
	fmt.Println("Dependency Check")
	fmt.Println("══════════════════════════════════════════════════════════════")
	failed := 0
	for _, r := range results {
		icon := "●"
		if !r.ok {
			icon = "○"
			failed++
		}
		fmt.Printf("  %-10s %s %s\n", r.name+":", icon, r.detail)
	}
	fmt.Println("══════════════════════════════════════════════════════════════")

	// Cookies are optional; only the binaries and the work dir are fatal
	for _, r := range results {
		if !r.ok && r.name != "cookies" {
			return fmt.Errorf("%d check(s) failed", failed)
		}
	}
	return nil
}

func checkYtdlp(ctx context.Context) checkResult {
	v, err := tool.Version(ctx)
	if err != nil {
		return checkResult{name: "yt-dlp", detail: fmt.Sprintf("%s: %v (install with: pip install yt-dlp)", cfg.Ytdlp.BinaryPath, err)}
	}
	return checkResult{name: "yt-dlp", ok: true, detail: fmt.Sprintf("%s (%s)", v, cfg.Ytdlp.BinaryPath)}
}

func checkFFmpeg(ctx context.Context) checkResult {
	out, err := exec.CommandContext(ctx, cfg.FFmpeg.BinaryPath, "-version").Output()
	if err != nil {
		return checkResult{name: "ffmpeg", detail: fmt.Sprintf("%s: %v (install with: apt install ffmpeg)", cfg.FFmpeg.BinaryPath, err)}
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return checkResult{name: "ffmpeg", ok: true, detail: strings.TrimSpace(line)}
}

func checkCookies() checkResult {
	path := cfg.Ytdlp.CookiesFile
	if path == "" {
		return checkResult{name: "cookies", detail: "not configured (ytdlp.cookies_file); some videos may require sign-in"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{name: "cookies", detail: fmt.Sprintf("%s: %v", path, err)}
	}
	if info.Size() == 0 {
		return checkResult{name: "cookies", detail: fmt.Sprintf("%s is empty", path)}
	}
	return checkResult{name: "cookies", ok: true, detail: path}
}

func checkWorkDir() checkResult {
	f, err := os.CreateTemp(workspace.Dir(), ".check-*")
	if err != nil {
		return checkResult{name: "work dir", detail: fmt.Sprintf("%s is not writable: %v", workspace.Dir(), err)}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return checkResult{name: "work dir", ok: true, detail: workspace.Dir()}
}

// checkDependencies verifies the binaries the server cannot run without
func checkDependencies() error {
	if err := tool.CheckBinary(); err != nil {
		return fmt.Errorf("yt-dlp: %w\n  Install with: pip install yt-dlp", err)
	}

	cmd := exec.Command(cfg.FFmpeg.BinaryPath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: ffmpeg not found or not executable: %w\n  Install with: apt install ffmpeg", err)
	}
	return nil
}
