// Package mocks provides test doubles for the roboflow client.
package mocks

import (
	"context"

	roboflow "github.com/adityagoyal009/ocean-sentinel/pkg/roboflow"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Detect provides a mock function with given fields: ctx, req
func (_m *MockClient) Detect(ctx context.Context, req roboflow.DetectRequest) (*roboflow.DetectResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Detect")
	}

	var r0 *roboflow.DetectResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, roboflow.DetectRequest) (*roboflow.DetectResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, roboflow.DetectRequest) *roboflow.DetectResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*roboflow.DetectResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, roboflow.DetectRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
