package eventpubsub

import (
	"sync"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
)

var (
	bus     EventBus.Bus
	busOnce sync.Once
)

func Init() {
	busOnce.Do(func() {
		bus = EventBus.New()
	})
}

// Publish is a no-op until Init has been called.
func Publish(topic string, event interface{}) {
	if bus == nil {
		return
	}

	bus.Publish(topic, event)
}

func Subscribe(topic string, callbackFn interface{}) error {
	Init()

	if err := bus.SubscribeAsync(topic, callbackFn, false); err != nil {
		return err
	}

	log.Infof("Subscribed to topic %s", topic)
	return nil
}

func Unsubscribe(topic string, callbackFn interface{}) error {
	if bus == nil {
		return nil
	}

	return bus.Unsubscribe(topic, callbackFn)
}

// WaitAsync blocks until every asynchronous handler has returned.
func WaitAsync() {
	if bus == nil {
		return
	}

	bus.WaitAsync()
}
