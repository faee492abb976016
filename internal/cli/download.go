package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zerodice0/youtube-download-gateway/internal/apperr"
	"github.com/zerodice0/youtube-download-gateway/internal/download"
	"github.com/zerodice0/youtube-download-gateway/internal/storage"
)

var (
	downloadItag      string
	downloadType      string
	downloadAudioItag string
	downloadTitle     string
	downloadOutput    string
)

var downloadCmd = &cobra.Command{
	Use:   "download <youtube-url>",
	Short: "Download one format of a video",
	Long: `Download one format of a video into a local directory.

Use "info" first to find the itag values.

Examples:
  youtube-download-gateway download "https://youtu.be/jfKfPfyJRdk" --itag 137 --audio-itag 140
  youtube-download-gateway download "https://youtu.be/jfKfPfyJRdk" --itag 251 --type audio -o ~/Music`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadItag, "itag", "i", "", "format id to download (required)")
	downloadCmd.Flags().StringVarP(&downloadType, "type", "t", "video", "video or audio")
	downloadCmd.Flags().StringVarP(&downloadAudioItag, "audio-itag", "a", "", "audio format id to merge (default: best audio)")
	downloadCmd.Flags().StringVar(&downloadTitle, "title", "", "output file name without extension (default: video id)")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", ".", "output directory")
	_ = downloadCmd.MarkFlagRequired("itag")
}

func runDownload(cmd *cobra.Command, args []string) error {
	typ, err := download.ParseType(downloadType)
	if err != nil {
		return err
	}

	ctx, stop := getContext()
	defer stop()

	fmt.Printf("Downloading %s format %s...\n", typ, downloadItag)
	start := time.Now()

	res, err := downloader.Download(ctx, download.Request{
		URL:           args[0],
		FormatID:      downloadItag,
		Type:          typ,
		AudioFormatID: downloadAudioItag,
		Title:         downloadTitle,
	})
	if err != nil {
		return fmt.Errorf("%s: %s", apperr.KindOf(err), apperr.Diagnostic(err))
	}

	dest := filepath.Join(downloadOutput, res.Filename)
	if err := deliver(res.Path, dest); err != nil {
		return fmt.Errorf("%s: %w", apperr.StreamFailed, err)
	}

	fmt.Println()
	fmt.Println("Download complete!")
	fmt.Printf("  File:     %s\n", dest)
	fmt.Printf("  Strategy: %s\n", res.Strategy)
	fmt.Printf("  Took:     %s\n", formatDuration(time.Since(start).Round(time.Second)))
	return nil
}

// deliver moves the finished file out of the workspace. The workspace copy
// is always removed.
func deliver(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		os.Remove(src)
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		os.Remove(src)
		return fmt.Errorf("failed to move file: %w", err)
	}

	// Different filesystem: copy, then let the reader remove the source
	in, err := storage.OpenDeleteOnClose(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return out.Close()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
