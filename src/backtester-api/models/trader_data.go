package models

import "time"

// TraderData is the leaderboard summary of a trader account, as returned by the backend.
type TraderData struct {
	Account     string    `json:"account"`
	Protocol    string    `json:"protocol"`
	RealisedPnl float64   `json:"realised_pnl"`
	Roi         float64   `json:"roi"`
	WinRate     float64   `json:"win_rate"`
	TotalTrade  int       `json:"total_trade"`
	TotalWin    int       `json:"total_win"`
	TotalLose   int       `json:"total_lose"`
	AvgDuration float64   `json:"avg_duration"`
	LastTradeAt time.Time `json:"last_trade_at"`
}
