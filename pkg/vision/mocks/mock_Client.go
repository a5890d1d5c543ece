// Package mocks provides test doubles for the vision client.
package mocks

import (
	"context"

	vision "github.com/adityagoyal009/ocean-sentinel/pkg/vision"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Annotate provides a mock function with given fields: ctx, req
func (_m *MockClient) Annotate(ctx context.Context, req vision.AnnotateRequest) (*vision.AnnotateResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Annotate")
	}

	var r0 *vision.AnnotateResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, vision.AnnotateRequest) (*vision.AnnotateResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, vision.AnnotateRequest) *vision.AnnotateResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*vision.AnnotateResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, vision.AnnotateRequest) error); ok {
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
