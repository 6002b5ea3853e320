package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/forPelevin/pdfnarrate/internal/logger"
	"github.com/forPelevin/pdfnarrate/internal/pipeline"
)

func printSummary(w io.Writer, res pipeline.Result) {
	out := res.Output

	rows := make([][]string, 0, len(out.Run.Pages))
	for _, p := range out.Run.Pages {
		preview := p.TextPreview
		if preview == "" {
			preview = "(silent)"
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Index),
			fmt.Sprintf("%.2fs", p.Duration.Seconds()),
			preview,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"Page", "Duration", "Narration"}, rows, logger.IsTerminal(w)))

	fmt.Fprintf(w, "Pages:          %d\n", out.Run.TotalPages)
	fmt.Fprintf(w, "Total duration: %.2fs\n", out.Run.TotalDuration.Seconds())
	fmt.Fprintf(w, "Final video:    %s\n", out.Run.FinalVideoPath)
	if out.MetadataErr != nil {
		fmt.Fprintf(w, "Metadata:       not written (%v)\n", out.MetadataErr)
	} else if out.MetadataPath != "" {
		fmt.Fprintf(w, "Metadata:       %s\n", out.MetadataPath)
	}
	for _, p := range res.Published {
		fmt.Fprintf(w, "Published:      %s\n", p.Location)
	}
}

func renderTable(headers []string, rows [][]string, rounded bool) string {
	tw := table.NewWriter()
	if rounded {
		tw.SetStyle(table.StyleRounded)
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
