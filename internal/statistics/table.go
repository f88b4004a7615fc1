package statistics

import (
	"fmt"
	"io"

	"pdf-compressor-go/internal/sizes"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable writes a per-file table followed by totals.
func (r *BatchResult) RenderTable(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Status", "Original", "Compressed", "Reduction"})

	for _, o := range r.Outcomes {
		if o.Success {
			t.AppendRow(table.Row{
				o.FileName, "ok",
				sizes.Format(o.OriginalSize), sizes.Format(o.CompressedSize),
				fmt.Sprintf("%.1f%%", o.Ratio),
			})
			continue
		}
		t.AppendRow(table.Row{o.FileName, string(o.Kind()), sizes.Format(o.OriginalSize), "-", "-"})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d ok / %d failed", r.Successful, r.Failed), "",
		sizes.Format(r.TotalOriginal), sizes.Format(r.TotalCompressed),
		fmt.Sprintf("%.1f%%", r.OverallRatio()),
	})
	t.Render()
}
