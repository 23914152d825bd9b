package models

import "slices"

// TestInstancePatch addresses an instance by HomeID and ID. Nil fields are left untouched.
type TestInstancePatch struct {
	HomeID         string             `json:"-"`
	ID             string             `json:"-"`
	ListTrader     *[]string          `json:"list_trader"`
	Settings       *BacktestSettings  `json:"settings"`
	Stage          *InstanceStage     `json:"stage"`
	IsVisible      *bool              `json:"is_visible"`
	BacktestResult *[]*BacktestResult `json:"backtest_result"`
}

func (p *TestInstancePatch) Validate() error {
	if p.Stage != nil {
		if err := p.Stage.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ApplyTo returns a copy of instance with the patch merged in. The copy shares nothing with the patch.
func (p *TestInstancePatch) ApplyTo(instance *TestInstance) *TestInstance {
	next := instance.Copy()

	if p.ListTrader != nil {
		next.ListTrader = slices.Clone(*p.ListTrader)
	}

	if p.Settings != nil {
		next.Settings = p.Settings.Copy()
	}

	if p.Stage != nil {
		next.Stage = *p.Stage
	}

	if p.IsVisible != nil {
		next.IsVisible = *p.IsVisible
	}

	if p.BacktestResult != nil {
		next.BacktestResult = CopyResults(*p.BacktestResult)
	}

	return next
}

// HomeInstancePatch holds the HomeInstance fields that can be merged. Nil fields are left untouched.
type HomeInstancePatch struct {
	TradersByIds                *[]string `json:"traders_by_ids"`
	IsTested                    *bool     `json:"is_tested"`
	IsShowedWarningDeleteTrader *bool     `json:"is_showed_warning_delete_trader"`
}

func (p *HomeInstancePatch) ApplyTo(home *HomeInstance) *HomeInstance {
	next := home.Copy()

	if p.TradersByIds != nil {
		next.TradersByIds = slices.Clone(*p.TradersByIds)
	}

	if p.IsTested != nil {
		next.IsTested = *p.IsTested
	}

	if p.IsShowedWarningDeleteTrader != nil {
		next.IsShowedWarningDeleteTrader = *p.IsShowedWarningDeleteTrader
	}

	return next
}
