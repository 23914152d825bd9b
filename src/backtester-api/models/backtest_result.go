package models

// BacktestResult is the simulated outcome of copying one trader.
type BacktestResult struct {
	Account        string  `json:"account"`
	Protocol       string  `json:"protocol"`
	Profit         float64 `json:"profit"`
	Roi            float64 `json:"roi"`
	TotalTrade     int     `json:"total_trade"`
	TotalWin       int     `json:"total_win"`
	TotalLose      int     `json:"total_lose"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	Fee            float64 `json:"fee"`
	MaxVolMultiple float64 `json:"max_vol_multiple"`
}

func (r *BacktestResult) WinRate() float64 {
	if r.TotalTrade == 0 {
		return 0
	}

	return float64(r.TotalWin) / float64(r.TotalTrade) * 100
}

func CopyResults(results []*BacktestResult) []*BacktestResult {
	if results == nil {
		return nil
	}

	out := make([]*BacktestResult, len(results))
	for i, r := range results {
		if r == nil {
			continue
		}

		c := *r
		out[i] = &c
	}

	return out
}
