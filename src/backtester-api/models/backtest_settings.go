package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BacktestSettings is the copy-trading configuration a backtest run replays a trader with.
type BacktestSettings struct {
	Balance           decimal.Decimal  `json:"balance"`
	OrderVolume       decimal.Decimal  `json:"order_volume"`
	Leverage          int              `json:"leverage"`
	FromTime          time.Time        `json:"from_time"`
	ToTime            time.Time        `json:"to_time"`
	TokenAddresses    []string         `json:"token_addresses"`
	StopLossAmount    *decimal.Decimal `json:"stop_loss_amount,omitempty"`
	TakeProfitAmount  *decimal.Decimal `json:"take_profit_amount,omitempty"`
	MaxMarginPerToken *decimal.Decimal `json:"max_margin_per_token,omitempty"`
	ReverseCopy       bool             `json:"reverse_copy"`
}

func (s *BacktestSettings) Validate() error {
	if !s.Balance.IsPositive() {
		return fmt.Errorf("BacktestSettings.Validate: balance must be greater than 0")
	}

	if !s.OrderVolume.IsPositive() {
		return fmt.Errorf("BacktestSettings.Validate: order volume must be greater than 0")
	}

	if s.OrderVolume.GreaterThan(s.Balance) {
		return fmt.Errorf("BacktestSettings.Validate: order volume cannot exceed balance")
	}

	if s.Leverage < 1 {
		return fmt.Errorf("BacktestSettings.Validate: leverage must be at least 1")
	}

	if s.FromTime.IsZero() || s.ToTime.IsZero() {
		return fmt.Errorf("BacktestSettings.Validate: time range is not set")
	}

	if !s.FromTime.Before(s.ToTime) {
		return fmt.Errorf("BacktestSettings.Validate: from time must be before to time")
	}

	if s.StopLossAmount != nil && !s.StopLossAmount.IsPositive() {
		return fmt.Errorf("BacktestSettings.Validate: stop loss amount must be greater than 0")
	}

	if s.TakeProfitAmount != nil && !s.TakeProfitAmount.IsPositive() {
		return fmt.Errorf("BacktestSettings.Validate: take profit amount must be greater than 0")
	}

	return nil
}

// Copy returns a deep copy; the token list and optional amounts are not shared.
func (s *BacktestSettings) Copy() *BacktestSettings {
	if s == nil {
		return nil
	}

	c := *s
	c.TokenAddresses = append([]string(nil), s.TokenAddresses...)
	c.StopLossAmount = copyDecimal(s.StopLossAmount)
	c.TakeProfitAmount = copyDecimal(s.TakeProfitAmount)
	c.MaxMarginPerToken = copyDecimal(s.MaxMarginPerToken)
	return &c
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
