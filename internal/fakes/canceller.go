// Hand-maintained fake written in the shape counterfeiter generates.
package fakes

import (
	"sync"

	"github.com/nanowc/wcedit/cancel"
)

// FakeCanceller is a test double for cancel.Canceller.
type FakeCanceller struct {
	CheckStub        func() error
	checkMutex       sync.RWMutex
	checkArgsForCall int
	checkReturns     struct {
		result1 error
	}
}

var _ cancel.Canceller = &FakeCanceller{}

func (fake *FakeCanceller) Check() error {
	fake.checkMutex.Lock()
	defer fake.checkMutex.Unlock()
	fake.checkArgsForCall++
	if fake.CheckStub != nil {
		return fake.CheckStub()
	}
	return fake.checkReturns.result1
}

func (fake *FakeCanceller) CheckCallCount() int {
	fake.checkMutex.RLock()
	defer fake.checkMutex.RUnlock()
	return fake.checkArgsForCall
}

func (fake *FakeCanceller) CheckReturns(result1 error) {
	fake.checkMutex.Lock()
	defer fake.checkMutex.Unlock()
	fake.checkReturns = struct {
		result1 error
	}{result1}
}
