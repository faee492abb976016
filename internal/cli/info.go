package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zerodice0/youtube-download-gateway/internal/apperr"
	"github.com/zerodice0/youtube-download-gateway/internal/catalog"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info <youtube-url>",
	Short: "List the downloadable formats of a video",
	Long: `List the downloadable formats of a video.

Output is a table on a terminal and JSON otherwise.

Examples:
  youtube-download-gateway info "https://youtu.be/jfKfPfyJRdk"
  youtube-download-gateway info "https://www.youtube.com/watch?v=jfKfPfyJRdk" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print JSON even on a terminal")
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx, stop := getContext()
	defer stop()

	cat, err := catalogSvc.Fetch(ctx, args[0])
	if err != nil {
		return fmt.Errorf("%s: %s", apperr.KindOf(err), apperr.Diagnostic(err))
	}

	if infoJSON || !stdoutIsTerminal() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cat)
	}

	printCatalog(cat)
	return nil
}

func printCatalog(cat *catalog.Catalog) {
	fmt.Println()
	fmt.Printf("%s\n", cat.Title)
	if cat.Thumbnail != "" {
		fmt.Printf("  Thumbnail: %s\n", truncateURL(cat.Thumbnail, 80))
	}
	fmt.Println()

	if len(cat.Formats.Video) == 0 {
		fmt.Println("  No video formats available")
	} else {
		fmt.Println(videoTable(cat.Formats.Video))
	}
	fmt.Println()

	if len(cat.Formats.Audio) == 0 {
		fmt.Println("  No audio track offered")
	} else {
		fmt.Println(audioTable(cat.Formats.Audio))
	}
	fmt.Println()
}

func heightLabel(h int) string {
	if h <= 0 {
		return "-"
	}
	return strconv.Itoa(h)
}

// truncateURL truncates a URL to maxLen characters
func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}
