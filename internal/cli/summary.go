package cli

import (
	"strconv"
	"time"

	"hotsoonripper/internal/entity"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary renders one row per target plus a totals footer.
func RenderSummary(reports []entity.TargetReport) string {
	if len(reports) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Target", "User", "Status", "Items", "Downloaded", "Skipped", "Failed", "Size", "Time"})

	var total entity.TargetReport

	for _, r := range reports {
		tw.AppendRow(table.Row{
			r.Target,
			r.UserID,
			r.Status,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Downloaded),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Failed),
			humanize.Bytes(uint64(max(r.Bytes, 0))),
			r.Duration.Round(time.Second).String(),
		})

		total.Total += r.Total
		total.Downloaded += r.Downloaded
		total.Skipped += r.Skipped
		total.Failed += r.Failed
		total.Bytes += r.Bytes
		total.Duration += r.Duration
	}

	tw.AppendFooter(table.Row{
		"Total", "", "",
		strconv.Itoa(total.Total),
		strconv.Itoa(total.Downloaded),
		strconv.Itoa(total.Skipped),
		strconv.Itoa(total.Failed),
		humanize.Bytes(uint64(max(total.Bytes, 0))),
		total.Duration.Round(time.Second).String(),
	})

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	for i := 4; i <= 9; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}

	tw.SetColumnConfigs(configs)

	return tw.Render()
}
