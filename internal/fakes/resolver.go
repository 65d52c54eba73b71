// Hand-maintained fake written in the shape counterfeiter generates.
package fakes

import (
	"context"
	"sync"

	"github.com/nanowc/wcedit/conflictresolver"
)

// FakeResolver is a test double for conflictresolver.Resolver.
type FakeResolver struct {
	ResolveStub        func(context.Context, conflictresolver.Description) (conflictresolver.Resolution, error)
	resolveMutex       sync.RWMutex
	resolveArgsForCall []struct {
		ctx  context.Context
		desc conflictresolver.Description
	}
	resolveReturns struct {
		result1 conflictresolver.Resolution
		result2 error
	}
}

var _ conflictresolver.Resolver = &FakeResolver{}

func (fake *FakeResolver) Resolve(ctx context.Context, desc conflictresolver.Description) (conflictresolver.Resolution, error) {
	fake.resolveMutex.Lock()
	defer fake.resolveMutex.Unlock()
	fake.resolveArgsForCall = append(fake.resolveArgsForCall, struct {
		ctx  context.Context
		desc conflictresolver.Description
	}{ctx, desc})
	if fake.ResolveStub != nil {
		return fake.ResolveStub(ctx, desc)
	}
	return fake.resolveReturns.result1, fake.resolveReturns.result2
}

func (fake *FakeResolver) ResolveCallCount() int {
	fake.resolveMutex.RLock()
	defer fake.resolveMutex.RUnlock()
	return len(fake.resolveArgsForCall)
}

func (fake *FakeResolver) ResolveArgsForCall(i int) (context.Context, conflictresolver.Description) {
	fake.resolveMutex.RLock()
	defer fake.resolveMutex.RUnlock()
	args := fake.resolveArgsForCall[i]
	return args.ctx, args.desc
}

func (fake *FakeResolver) ResolveReturns(result1 conflictresolver.Resolution, result2 error) {
	fake.resolveMutex.Lock()
	defer fake.resolveMutex.Unlock()
	fake.resolveReturns = struct {
		result1 conflictresolver.Resolution
		result2 error
	}{result1, result2}
}
