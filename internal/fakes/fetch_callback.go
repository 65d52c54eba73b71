// Hand-maintained fake written in the shape counterfeiter generates.
package fakes

import (
	"context"
	"io"
	"sync"

	"github.com/nanowc/wcedit/fetch"
)

// FakeCallback is a test double for fetch.Callback.
type FakeCallback struct {
	FetchStub        func(context.Context, string, int64, io.Writer) (map[string]string, error)
	fetchMutex       sync.RWMutex
	fetchArgsForCall []struct {
		ctx     context.Context
		relpath string
		rev     int64
		dst     io.Writer
	}
	fetchReturns struct {
		result1 map[string]string
		result2 error
	}
}

var _ fetch.Callback = &FakeCallback{}

func (fake *FakeCallback) Fetch(ctx context.Context, relpath string, rev int64, dst io.Writer) (map[string]string, error) {
	fake.fetchMutex.Lock()
	defer fake.fetchMutex.Unlock()
	fake.fetchArgsForCall = append(fake.fetchArgsForCall, struct {
		ctx     context.Context
		relpath string
		rev     int64
		dst     io.Writer
	}{ctx, relpath, rev, dst})
	if fake.FetchStub != nil {
		return fake.FetchStub(ctx, relpath, rev, dst)
	}
	return fake.fetchReturns.result1, fake.fetchReturns.result2
}

func (fake *FakeCallback) FetchCallCount() int {
	fake.fetchMutex.RLock()
	defer fake.fetchMutex.RUnlock()
	return len(fake.fetchArgsForCall)
}

func (fake *FakeCallback) FetchArgsForCall(i int) (context.Context, string, int64, io.Writer) {
	fake.fetchMutex.RLock()
	defer fake.fetchMutex.RUnlock()
	args := fake.fetchArgsForCall[i]
	return args.ctx, args.relpath, args.rev, args.dst
}

func (fake *FakeCallback) FetchReturns(result1 map[string]string, result2 error) {
	fake.fetchMutex.Lock()
	defer fake.fetchMutex.Unlock()
	fake.fetchReturns = struct {
		result1 map[string]string
		result2 error
	}{result1, result2}
}
