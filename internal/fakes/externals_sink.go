// Hand-maintained fake written in the shape counterfeiter generates.
package fakes

import (
	"context"
	"sync"

	"github.com/nanowc/wcedit/externals"
)

// FakeSink is a test double for externals.Sink.
type FakeSink struct {
	ChangedStub        func(context.Context, externals.Change)
	changedMutex       sync.RWMutex
	changedArgsForCall []struct {
		ctx    context.Context
		change externals.Change
	}
}

var _ externals.Sink = &FakeSink{}

func (fake *FakeSink) Changed(ctx context.Context, change externals.Change) {
	fake.changedMutex.Lock()
	defer fake.changedMutex.Unlock()
	fake.changedArgsForCall = append(fake.changedArgsForCall, struct {
		ctx    context.Context
		change externals.Change
	}{ctx, change})
	if fake.ChangedStub != nil {
		fake.ChangedStub(ctx, change)
	}
}

func (fake *FakeSink) ChangedCallCount() int {
	fake.changedMutex.RLock()
	defer fake.changedMutex.RUnlock()
	return len(fake.changedArgsForCall)
}

func (fake *FakeSink) ChangedArgsForCall(i int) (context.Context, externals.Change) {
	fake.changedMutex.RLock()
	defer fake.changedMutex.RUnlock()
	args := fake.changedArgsForCall[i]
	return args.ctx, args.change
}
