package models

import "fmt"

var (
	ErrHomeInstanceNotFound   = fmt.Errorf("home instance not found")
	ErrNoCurrentHomeInstance  = fmt.Errorf("no current home instance")
	ErrInstanceNotFound       = fmt.Errorf("backtest instance not found")
	ErrParentInstanceNotFound = fmt.Errorf("parent backtest instance not found")
	ErrInstanceAlreadyExists  = fmt.Errorf("backtest instance already exists")
	ErrMissingSettings        = fmt.Errorf("backtest instance has no settings")
	ErrNoTraders              = fmt.Errorf("backtest instance has no traders")
	ErrSimulationInProgress   = fmt.Errorf("backtest instance is already simulating")
)
