package updates

import (
	"context"
	"strings"
	"sync"
)

type mockRunner struct {
	mtx     sync.Mutex
	outputs map[string]string
	errors  map[string]error
	calls   []string
}

func newMockRunner() *mockRunner {
	return &mockRunner{
		outputs: make(map[string]string),
		errors:  make(map[string]error),
	}
}

func (r *mockRunner) Run(ctx context.Context, args ...string) (string, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	key := strings.Join(args, " ")
	r.calls = append(r.calls, key)
	// try prefix commands if full is not registered
	for i := len(args) - 1; i > 0; i-- {
		if _, ok := r.outputs[key]; ok {
			break
		}
		key = strings.Join(args[:i], " ")
	}
	return r.outputs[key], r.errors[key]
}

func (r *mockRunner) Register(args []string, output string, err error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	key := strings.Join(args, " ")
	r.outputs[key] = output
	r.errors[key] = err
}

func (r *mockRunner) Called(args ...string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	key := strings.Join(args, " ")
	for _, call := range r.calls {
		if call == key {
			return true
		}
	}
	return false
}
