package eventpubsub

import (
	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-workspace/src/eventmodels"
)

type Bus struct {
	bus EventBus.Bus
}

func New() *Bus {
	return &Bus{bus: EventBus.New()}
}

func (b *Bus) Publish(publisherName string, topic eventmodels.EventName, event interface{}) {
	log.Debugf("[%v] Published to topic %s", publisherName, topic)
	b.bus.Publish(string(topic), event)
}

// Subscribe registers callbackFn asynchronously; callbacks for the same topic run one at a time.
func (b *Bus) Subscribe(subscriberName string, topic eventmodels.EventName, callbackFn interface{}) error {
	if err := b.bus.SubscribeAsync(string(topic), callbackFn, true); err != nil {
		log.Errorf("[%v] error: %v", subscriberName, err)
		return err
	}

	log.Infof("[%v] Subscribed to topic %s", subscriberName, topic)
	return nil
}

// WaitAsync blocks until every async callback already published to has returned.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
