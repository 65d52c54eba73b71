// Hand-maintained fake written in the shape counterfeiter generates.
package mocks

import (
	"sync"

	"github.com/nanowc/wcedit/log"
)

// FakeLogger is a test double for log.Logger that records every call it
// receives so tests can assert on logging behavior without a real sink.
type FakeLogger struct {
	DebugStub        func(string, ...any)
	debugMutex       sync.RWMutex
	debugArgsForCall []struct {
		msg           string
		keysAndValues []any
	}

	InfoStub        func(string, ...any)
	infoMutex       sync.RWMutex
	infoArgsForCall []struct {
		msg           string
		keysAndValues []any
	}

	WarnStub        func(string, ...any)
	warnMutex       sync.RWMutex
	warnArgsForCall []struct {
		msg           string
		keysAndValues []any
	}

	ErrorStub        func(string, ...any)
	errorMutex       sync.RWMutex
	errorArgsForCall []struct {
		msg           string
		keysAndValues []any
	}
}

var _ log.Logger = &FakeLogger{}

func (fake *FakeLogger) Debug(msg string, keysAndValues ...any) {
	fake.debugMutex.Lock()
	defer fake.debugMutex.Unlock()
	fake.debugArgsForCall = append(fake.debugArgsForCall, struct {
		msg           string
		keysAndValues []any
	}{msg, keysAndValues})
	if fake.DebugStub != nil {
		fake.DebugStub(msg, keysAndValues...)
	}
}

func (fake *FakeLogger) DebugCallCount() int {
	fake.debugMutex.RLock()
	defer fake.debugMutex.RUnlock()
	return len(fake.debugArgsForCall)
}

func (fake *FakeLogger) Info(msg string, keysAndValues ...any) {
	fake.infoMutex.Lock()
	defer fake.infoMutex.Unlock()
	fake.infoArgsForCall = append(fake.infoArgsForCall, struct {
		msg           string
		keysAndValues []any
	}{msg, keysAndValues})
	if fake.InfoStub != nil {
		fake.InfoStub(msg, keysAndValues...)
	}
}

func (fake *FakeLogger) InfoCallCount() int {
	fake.infoMutex.RLock()
	defer fake.infoMutex.RUnlock()
	return len(fake.infoArgsForCall)
}

func (fake *FakeLogger) Warn(msg string, keysAndValues ...any) {
	fake.warnMutex.Lock()
	defer fake.warnMutex.Unlock()
	fake.warnArgsForCall = append(fake.warnArgsForCall, struct {
		msg           string
		keysAndValues []any
	}{msg, keysAndValues})
	if fake.WarnStub != nil {
		fake.WarnStub(msg, keysAndValues...)
	}
}

func (fake *FakeLogger) WarnCallCount() int {
	fake.warnMutex.RLock()
	defer fake.warnMutex.RUnlock()
	return len(fake.warnArgsForCall)
}

func (fake *FakeLogger) Error(msg string, keysAndValues ...any) {
	fake.errorMutex.Lock()
	defer fake.errorMutex.Unlock()
	fake.errorArgsForCall = append(fake.errorArgsForCall, struct {
		msg           string
		keysAndValues []any
	}{msg, keysAndValues})
	if fake.ErrorStub != nil {
		fake.ErrorStub(msg, keysAndValues...)
	}
}

func (fake *FakeLogger) ErrorCallCount() int {
	fake.errorMutex.RLock()
	defer fake.errorMutex.RUnlock()
	return len(fake.errorArgsForCall)
}

func (fake *FakeLogger) ErrorArgsForCall(i int) (string, []any) {
	fake.errorMutex.RLock()
	defer fake.errorMutex.RUnlock()
	argsForCall := fake.errorArgsForCall[i]
	return argsForCall.msg, argsForCall.keysAndValues
}
