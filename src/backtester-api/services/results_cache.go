package services

import (
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
	"github.com/jiaming2012/backtest-workspace/src/utils"
)

// ResultsCache remembers simulator responses by request. A nil cache, or one built with a
// non-positive ttl, never hits.
type ResultsCache struct {
	cache *cache.Cache
}

func NewResultsCache(ttl time.Duration) *ResultsCache {
	if ttl <= 0 {
		return &ResultsCache{}
	}

	return &ResultsCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *ResultsCache) Get(req *models.SimulationRequest) ([]*models.BacktestResult, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}

	key, err := utils.HashStruct(req)
	if err != nil {
		log.Warnf("ResultsCache.Get: %v", err)
		return nil, false
	}

	item, found := c.cache.Get(key)
	if !found {
		return nil, false
	}

	results := item.([]*models.BacktestResult)
	return models.CopyResults(results), true
}

func (c *ResultsCache) Set(req *models.SimulationRequest, results []*models.BacktestResult) {
	if c == nil || c.cache == nil {
		return
	}

	key, err := utils.HashStruct(req)
	if err != nil {
		log.Warnf("ResultsCache.Set: %v", err)
		return
	}

	c.cache.Set(key, models.CopyResults(results), cache.DefaultExpiration)
}

func (c *ResultsCache) Flush() {
	if c == nil || c.cache == nil {
		return
	}

	c.cache.Flush()
}
