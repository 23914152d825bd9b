package services

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/jinzhu/copier"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
)

type resultCSVRow struct {
	Account     string  `csv:"account"`
	Protocol    string  `csv:"protocol"`
	Profit      float64 `csv:"profit"`
	Roi         float64 `csv:"roi"`
	TotalTrade  int     `csv:"total_trade"`
	TotalWin    int     `csv:"total_win"`
	TotalLose   int     `csv:"total_lose"`
	WinRate     float64 `csv:"win_rate"`
	MaxDrawdown float64 `csv:"max_drawdown"`
	Fee         float64 `csv:"fee"`
}

// ExportResultsCSV writes one row per trader result, with a header even when there are none.
func (s *WorkspaceService) ExportResultsCSV(w io.Writer, homeID, instanceID string) error {
	data, err := s.resolve(homeID, instanceID)
	if err != nil {
		return err
	}

	return WriteResultsCSV(w, data.Instance.BacktestResult)
}

func WriteResultsCSV(w io.Writer, results []*models.BacktestResult) error {
	rows := make([]*resultCSVRow, 0, len(results))
	if len(results) > 0 {
		if err := copier.Copy(&rows, results); err != nil {
			return fmt.Errorf("WriteResultsCSV: failed to copy results: %w", err)
		}
	}

	for i, r := range results {
		rows[i].WinRate = r.WinRate()
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("WriteResultsCSV: %w", err)
	}

	return nil
}
