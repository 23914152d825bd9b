package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
)

type treeRow struct {
	depth    int
	orphan   bool
	instance *models.TestInstance
}

// RenderTree prints a home's instances depth first from its roots. Instances whose parent was
// removed without cascade are listed last, flagged as orphans.
func RenderTree(w io.Writer, home *models.HomeInstance) error {
	if home == nil {
		return fmt.Errorf("RenderTree: %w", models.ErrHomeInstanceNotFound)
	}

	p := message.NewPrinter(language.English)
	currentInstance := home.GetCurrentInstance()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "ID", "Stage", "Traders", "Results", "Profit", "Visible"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range treeRows(home) {
		name := strings.Repeat("  ", row.depth) + row.instance.Name
		if row.orphan {
			name += " (orphan)"
		}

		current := ""
		if row.instance == currentInstance {
			current = "* "
		}

		table.Append([]string{
			current + name,
			row.instance.ID,
			string(row.instance.Stage),
			strconv.Itoa(len(row.instance.ListTrader)),
			strconv.Itoa(len(row.instance.BacktestResult)),
			profitCell(p, row.instance),
			strconv.FormatBool(row.instance.IsVisible),
		})
	}

	table.Render()

	return nil
}

func treeRows(home *models.HomeInstance) []treeRow {
	var rows []treeRow
	visited := make(map[string]struct{}, len(home.BacktestInstancesMapping))

	var walk func(id string, depth int, orphan bool)
	walk = func(id string, depth int, orphan bool) {
		instance, found := home.GetInstance(id)
		if !found {
			return
		}

		if _, seen := visited[id]; seen {
			return
		}
		visited[id] = struct{}{}

		rows = append(rows, treeRow{depth: depth, orphan: orphan, instance: instance})

		for _, childID := range instance.ChildIDs {
			walk(childID, depth+1, false)
		}
	}

	for _, id := range home.RootBacktestInstancesByIds {
		walk(id, 0, false)
	}

	for _, id := range home.BacktestInstancesByIds {
		if _, seen := visited[id]; !seen {
			walk(id, 0, true)
		}
	}

	return rows
}

func profitCell(p *message.Printer, instance *models.TestInstance) string {
	if len(instance.BacktestResult) == 0 {
		return "-"
	}

	total := 0.0
	for _, r := range instance.BacktestResult {
		total += r.Profit
	}

	return fmt.Sprintf("$%s", p.Sprintf("%.2f", total))
}
