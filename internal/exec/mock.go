package exec

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MockResponse is the canned result for a matched command.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// MockCall records one invocation.
type MockCall struct {
	Dir  string
	Name string
	Args []string
}

type mockRule struct {
	name   string
	args   []string
	prefix bool
	resp   MockResponse
}

// MockExecutor answers commands from registered rules, checked in
// registration order. Unmatched commands go to the fallback, or fail.
type MockExecutor struct {
	mu       sync.Mutex
	rules    []mockRule
	calls    []MockCall
	fallback CommandExecutor
}

// NewMockExecutor returns a mock. fallback may be nil.
func NewMockExecutor(fallback CommandExecutor) *MockExecutor {
	return &MockExecutor{fallback: fallback}
}

// AddExactMatch answers name with exactly args.
func (m *MockExecutor) AddExactMatch(name string, args []string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{name: name, args: args, resp: resp})
}

// AddPrefixMatch answers name whose args start with prefix.
func (m *MockExecutor) AddPrefixMatch(name string, prefix []string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{name: name, args: prefix, prefix: true, resp: resp})
}

// Calls returns the invocations seen so far.
func (m *MockExecutor) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func (m *MockExecutor) lookup(dir, name string, args []string) (MockResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Dir: dir, Name: name, Args: slices.Clone(args)})
	for _, r := range m.rules {
		if r.name != name {
			continue
		}
		if r.prefix {
			if len(args) >= len(r.args) && slices.Equal(args[:len(r.args)], r.args) {
				return r.resp, true
			}
		} else if slices.Equal(args, r.args) {
			return r.resp, true
		}
	}
	return MockResponse{}, false
}

func (m *MockExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	resp, ok := m.lookup(dir, name, args)
	if !ok {
		if m.fallback != nil {
			return m.fallback.Run(ctx, dir, name, args...)
		}
		return nil, nil, fmt.Errorf("mock: no response for %s %v", name, args)
	}
	return resp.Stdout, resp.Stderr, resp.Err
}

func (m *MockExecutor) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	stdout, stderr, err := m.Run(ctx, dir, name, args...)
	if err != nil {
		return stdout, WithStderr(err, stderr)
	}
	return stdout, nil
}

func (m *MockExecutor) CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	stdout, stderr, err := m.Run(ctx, dir, name, args...)
	return append(append([]byte{}, stdout...), stderr...), err
}

var _ CommandExecutor = (*MockExecutor)(nil)
