package eventpubsub

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-workspace/src/eventmodels"
)

const auditSubscriberName = "AuditLog"

// SubscribeAuditLog logs every workspace event at info level, failures at warn.
func SubscribeAuditLog(b *Bus) error {
	subscriptions := map[eventmodels.EventName]interface{}{
		eventmodels.SimulationStartedEventName: func(ev *eventmodels.SimulationStartedEvent) {
			log.WithFields(log.Fields{
				"home_id":     ev.HomeID,
				"instance_id": ev.InstanceID,
				"accounts":    len(ev.Accounts),
			}).Info("simulation started")
		},
		eventmodels.SimulationCompletedEventName: func(ev *eventmodels.SimulationCompletedEvent) {
			log.WithFields(log.Fields{
				"home_id":     ev.HomeID,
				"instance_id": ev.InstanceID,
				"results":     ev.ResultCount,
				"cached":      ev.Cached,
				"elapsed":     ev.Elapsed,
			}).Info("simulation completed")
		},
		eventmodels.SimulationFailedEventName: func(ev *eventmodels.SimulationFailedEvent) {
			log.WithFields(log.Fields{
				"home_id":     ev.HomeID,
				"instance_id": ev.InstanceID,
			}).Warnf("simulation failed: %s", ev.Error)
		},
		eventmodels.InstanceBranchedEventName: func(ev *eventmodels.InstanceBranchedEvent) {
			log.WithFields(log.Fields{
				"home_id":   ev.HomeID,
				"parent_id": ev.ParentID,
				"child_id":  ev.ChildID,
			}).Info("instance branched")
		},
	}

	for topic, fn := range subscriptions {
		if err := b.Subscribe(auditSubscriberName, topic, fn); err != nil {
			return fmt.Errorf("SubscribeAuditLog: %w", err)
		}
	}

	return nil
}
