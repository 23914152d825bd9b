package services

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
)

type ResultSummary struct {
	InstanceID  string  `json:"instance_id"`
	Name        string  `json:"name"`
	TraderCount int     `json:"trader_count"`
	TotalProfit float64 `json:"total_profit"`
	TotalFee    float64 `json:"total_fee"`
	MeanRoi     float64 `json:"mean_roi"`
	MedianRoi   float64 `json:"median_roi"`
	RoiStdDev   float64 `json:"roi_std_dev"`
	TotalTrade  int     `json:"total_trade"`
	TotalWin    int     `json:"total_win"`
	TotalLose   int     `json:"total_lose"`
	WinRate     float64 `json:"win_rate"`
	MaxDrawdown float64 `json:"max_drawdown"`
	BestTrader  string  `json:"best_trader,omitempty"`
	WorstTrader string  `json:"worst_trader,omitempty"`
}

// Summarize aggregates the stored results of an instance. An instance that has not been
// simulated yet yields a summary with zero counts.
func (s *WorkspaceService) Summarize(homeID, instanceID string) (*ResultSummary, error) {
	data, err := s.resolve(homeID, instanceID)
	if err != nil {
		return nil, err
	}

	return SummarizeResults(data.Instance)
}

func SummarizeResults(instance *models.TestInstance) (*ResultSummary, error) {
	summary := &ResultSummary{
		InstanceID:  instance.ID,
		Name:        instance.Name,
		TraderCount: len(instance.BacktestResult),
	}

	if len(instance.BacktestResult) == 0 {
		return summary, nil
	}

	var err error
	var profits, fees, rois, drawdowns []float64
	best, worst := instance.BacktestResult[0], instance.BacktestResult[0]

	for _, r := range instance.BacktestResult {
		profits = append(profits, r.Profit)
		fees = append(fees, r.Fee)
		rois = append(rois, r.Roi)
		drawdowns = append(drawdowns, r.MaxDrawdown)

		summary.TotalTrade += r.TotalTrade
		summary.TotalWin += r.TotalWin
		summary.TotalLose += r.TotalLose

		if r.Roi > best.Roi {
			best = r
		}
		if r.Roi < worst.Roi {
			worst = r
		}
	}

	if summary.TotalProfit, err = stats.Sum(profits); err != nil {
		return nil, fmt.Errorf("SummarizeResults: profit: %w", err)
	}

	if summary.TotalFee, err = stats.Sum(fees); err != nil {
		return nil, fmt.Errorf("SummarizeResults: fee: %w", err)
	}

	if summary.MeanRoi, err = stats.Mean(rois); err != nil {
		return nil, fmt.Errorf("SummarizeResults: mean roi: %w", err)
	}

	if summary.MedianRoi, err = stats.Median(rois); err != nil {
		return nil, fmt.Errorf("SummarizeResults: median roi: %w", err)
	}

	if summary.RoiStdDev, err = stats.StandardDeviation(rois); err != nil {
		return nil, fmt.Errorf("SummarizeResults: roi std dev: %w", err)
	}

	if summary.MaxDrawdown, err = stats.Max(drawdowns); err != nil {
		return nil, fmt.Errorf("SummarizeResults: drawdown: %w", err)
	}

	if summary.TotalTrade > 0 {
		summary.WinRate = float64(summary.TotalWin) / float64(summary.TotalTrade) * 100
	}

	summary.BestTrader = best.Account
	summary.WorstTrader = worst.Account

	return summary, nil
}
