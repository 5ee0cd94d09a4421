package providers

import (
	"context"
	"errors"
	"sync"
)

// MockHandler computes a response for a recorded request.
type MockHandler func(req *Request) (string, error)

// MockProvider implements the Provider interface for testing purposes.
// It is safe for concurrent use.
type MockProvider struct {
	mu sync.Mutex
	// Mock response configuration
	responseText  string
	err           error
	responses     []string // Queue of preset responses
	currentIndex  int      // Current position in response queue
	loopResponses bool     // Whether to loop through responses or error when exhausted
	handler       MockHandler
	requests      []Request
}

// NewMockProvider creates a new mock provider instance for testing.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		responseText: "This is a mock response",
	}
}

func newMockFromConfig(string, ProviderConfig) (Provider, error) {
	return NewMockProvider(), nil
}

func (p *MockProvider) Name() string { return "mock" }

// SetMockResponse configures the default response text.
func (p *MockProvider) SetMockResponse(response string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responseText = response
}

// SetMockError makes every call fail with err; nil clears it.
func (p *MockProvider) SetMockError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// SetResponses configures a list of responses to be returned in sequence.
func (p *MockProvider) SetResponses(responses []string, loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = responses
	p.currentIndex = 0
	p.loopResponses = loop
}

// SetHandler routes every call through h, taking precedence over the
// other settings.
func (p *MockProvider) SetHandler(h MockHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// Requests returns a copy of every request received so far.
func (p *MockProvider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

// CallCount returns the number of Complete calls.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *MockProvider) Complete(ctx context.Context, req *Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	recorded := *req
	recorded.Messages = append([]Message(nil), req.Messages...)
	p.requests = append(p.requests, recorded)
	handler := p.handler
	p.mu.Unlock()

	if handler != nil {
		return handler(&recorded)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	return p.nextResponse()
}

// nextResponse returns the next response from the queue. Callers hold mu.
func (p *MockProvider) nextResponse() (string, error) {
	if len(p.responses) == 0 {
		return p.responseText, nil // Fall back to default response
	}

	if p.currentIndex >= len(p.responses) {
		if !p.loopResponses {
			return "", errors.New("mock responses exhausted")
		}
		p.currentIndex = 0
	}

	response := p.responses[p.currentIndex]
	p.currentIndex++
	return response, nil
}
