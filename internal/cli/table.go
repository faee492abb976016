package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/zerodice0/youtube-download-gateway/internal/catalog"
	"github.com/zerodice0/youtube-download-gateway/internal/language"
)

// catalogColumn is one column of an info table; numeric columns are right
// aligned
type catalogColumn struct {
	title   string
	numeric bool
}

var videoColumns = []catalogColumn{
	{"Itag", true},
	{"Quality", false},
	{"Height", true},
	{"Container", false},
	{"Audio", false},
}

var audioColumns = []catalogColumn{
	{"Itag", true},
	{"Bitrate", true},
	{"Language", false},
	{"Delivered as", false},
}

// videoTable renders the video section of a catalog
func videoTable(entries []catalog.VideoEntry) string {
	rows := make([]table.Row, 0, len(entries))
	for _, v := range entries {
		audio := "built-in"
		if v.Merge {
			audio = "merged"
		}
		rows = append(rows, table.Row{v.Itag, v.Quality, heightLabel(v.Height), v.Container, audio})
	}
	return renderCatalogTable(fmt.Sprintf("Video (%d)", len(entries)), videoColumns, rows)
}

// audioTable renders the audio section of a catalog
func audioTable(entries []catalog.AudioEntry) string {
	rows := make([]table.Row, 0, len(entries))
	for _, a := range entries {
		rows = append(rows, table.Row{a.Itag, fmt.Sprintf("%d kbps", a.Bitrate), language.DisplayName(a.Language), a.Container})
	}
	return renderCatalogTable("Audio", audioColumns, rows)
}

func renderCatalogTable(title string, columns []catalogColumn, rows []table.Row) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(title)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
		if col.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
