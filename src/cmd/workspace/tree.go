package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
	"github.com/jiaming2012/backtest-workspace/src/backtester-api/services"
	"github.com/jiaming2012/backtest-workspace/src/utils"
)

type stateDTO struct {
	Version uint64             `json:"version"`
	State   *models.StoreState `json:"state"`
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the instance tree of every home in a running workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := cmd.Flags().GetString("url")
		if err != nil {
			return fmt.Errorf("error getting url: %w", err)
		}

		homeID, err := cmd.Flags().GetString("home")
		if err != nil {
			return fmt.Errorf("error getting home: %w", err)
		}

		body, err := utils.Get(cmd.Context(), strings.TrimRight(url, "/")+"/workspace/state")
		if err != nil {
			return fmt.Errorf("failed to fetch state: %w", err)
		}

		var dto stateDTO
		if err := json.Unmarshal(body, &dto); err != nil {
			return fmt.Errorf("failed to decode state: %w", err)
		}

		return printTrees(os.Stdout, dto.State, homeID)
	},
}

func printTrees(w io.Writer, state *models.StoreState, homeID string) error {
	if state == nil || len(state.HomeInstancesByIds) == 0 {
		fmt.Fprintln(w, "no home instances")
		return nil
	}

	for _, id := range state.HomeInstancesByIds {
		if homeID != "" && id != homeID {
			continue
		}

		home, found := state.HomeInstancesMapping[id]
		if !found {
			continue
		}

		marker := ""
		if state.CurrentHomeInstanceID != nil && *state.CurrentHomeInstanceID == id {
			marker = " (current)"
		}

		fmt.Fprintf(w, "home %s%s: %d traders, tested=%v\n", id, marker, len(home.TradersByIds), home.IsTested)

		if err := services.RenderTree(w, home); err != nil {
			return err
		}

		fmt.Fprintln(w)
	}

	return nil
}
