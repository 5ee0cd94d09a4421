package utils

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockLogger records calls through testify's mock. Tests that do not care
// about a level can call AllowAll.
type MockLogger struct {
	mock.Mock
	mu               sync.Mutex
	ErrorCallCount   int
	WarnCallCount    int
	LastErrorMessage string
	LastWarnMessage  string
}

// AllowAll registers permissive expectations for every level.
func (m *MockLogger) AllowAll() *MockLogger {
	m.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.On("Info", mock.Anything, mock.Anything).Maybe()
	m.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.On("Error", mock.Anything, mock.Anything).Maybe()
	m.On("SetLevel", mock.Anything).Maybe()
	return m
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.mu.Lock()
	m.WarnCallCount++
	m.LastWarnMessage = msg
	m.mu.Unlock()
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.mu.Lock()
	m.ErrorCallCount++
	m.LastErrorMessage = msg
	m.mu.Unlock()
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) SetLevel(level LogLevel) {
	m.Called(level)
}
