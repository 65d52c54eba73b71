// Hand-maintained fake written in the shape counterfeiter generates.
package fakes

import (
	"sync"

	"github.com/nanowc/wcedit/notify"
)

// FakeNotifier is a test double for notify.Notifier that records every
// event it receives so tests can assert on notification behavior.
type FakeNotifier struct {
	NotifyStub        func(notify.Event)
	notifyMutex       sync.RWMutex
	notifyArgsForCall []struct {
		event notify.Event
	}
}

var _ notify.Notifier = &FakeNotifier{}

func (fake *FakeNotifier) Notify(event notify.Event) {
	fake.notifyMutex.Lock()
	defer fake.notifyMutex.Unlock()
	fake.notifyArgsForCall = append(fake.notifyArgsForCall, struct {
		event notify.Event
	}{event})
	if fake.NotifyStub != nil {
		fake.NotifyStub(event)
	}
}

func (fake *FakeNotifier) NotifyCallCount() int {
	fake.notifyMutex.RLock()
	defer fake.notifyMutex.RUnlock()
	return len(fake.notifyArgsForCall)
}

func (fake *FakeNotifier) NotifyArgsForCall(i int) notify.Event {
	fake.notifyMutex.RLock()
	defer fake.notifyMutex.RUnlock()
	return fake.notifyArgsForCall[i].event
}

func (fake *FakeNotifier) Events() []notify.Event {
	fake.notifyMutex.RLock()
	defer fake.notifyMutex.RUnlock()
	events := make([]notify.Event, len(fake.notifyArgsForCall))
	for i, c := range fake.notifyArgsForCall {
		events[i] = c.event
	}
	return events
}
