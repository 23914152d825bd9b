package store

import (
	"fmt"
	"strconv"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
)

// rootOrdinal continues past every root ordinal issued in home, so a removed root's name is
// never handed out again.
func rootOrdinal(home *models.HomeInstance) int {
	ordinal := home.LastRootOrdinal
	for _, id := range home.RootBacktestInstancesByIds {
		if root, ok := home.GetInstance(id); ok && root.SiblingOrdinal > ordinal {
			ordinal = root.SiblingOrdinal
		}
	}

	return ordinal + 1
}

// childOrdinal continues from the last sibling still present under parent.
func childOrdinal(home *models.HomeInstance, parent *models.TestInstance) int {
	for i := len(parent.ChildIDs) - 1; i >= 0; i-- {
		sibling, ok := home.GetInstance(parent.ChildIDs[i])
		if !ok {
			continue
		}

		if sibling.SiblingOrdinal <= 0 {
			return 1
		}

		return sibling.SiblingOrdinal + 1
	}

	return 1
}

func rootName(ordinal int) string {
	return strconv.Itoa(ordinal)
}

func childName(parent *models.TestInstance, ordinal int) string {
	return fmt.Sprintf("%s - %d", parent.Name, ordinal)
}
