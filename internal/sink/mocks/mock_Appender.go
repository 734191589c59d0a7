// Package mocks provides test doubles for the sink package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockAppender is a mock type for the Appender interface.
type MockAppender struct {
	mock.Mock
}

// Append provides a mock function with given fields: ctx, rows
func (_m *MockAppender) Append(ctx context.Context, rows [][]string) error {
	ret := _m.Called(ctx, rows)

	if len(ret) == 0 {
		panic("no return value specified for Append")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, [][]string) error); ok {
		r0 = rf(ctx, rows)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockAppender creates a new instance of MockAppender. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockAppender(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAppender {
	m := &MockAppender{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
