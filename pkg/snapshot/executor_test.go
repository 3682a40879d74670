package snapshot

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ritzau/classdeps/pkg/symbols"
)

// mockExecutor is a mock implementation of Executor for testing
type mockExecutor struct {
	output []byte
	err    error
	argv   []string
}

func (m *mockExecutor) Run(ctx context.Context, dir string, argv []string) ([]byte, error) {
	m.argv = argv
	return m.output, m.err
}

func TestCommandSourceLoad(t *testing.T) {
	mock := &mockExecutor{output: []byte(sampleJSON)}
	source := &CommandSource{Command: "extract --json  build/classes", executor: mock}

	table := symbols.NewTable()
	c, err := source.Load(context.Background(), table)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if c.Len() == 0 {
		t.Error("Expected units from the extractor output")
	}
	if want := []string{"extract", "--json", "build/classes"}; !reflect.DeepEqual(mock.argv, want) {
		t.Errorf("Expected argv %v, got %v", want, mock.argv)
	}
}

func TestCommandSourceErrors(t *testing.T) {
	failure := errors.New("exit status 1")
	tests := []struct {
		name string
		mock *mockExecutor
	}{
		{"command fails", &mockExecutor{err: failure}},
		{"bad output", &mockExecutor{output: []byte("not json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &CommandSource{Command: "extract", executor: tt.mock}
			if _, err := source.Load(context.Background(), symbols.NewTable()); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestDefaultExecutorEmptyCommand(t *testing.T) {
	if _, err := NewExecutor().Run(context.Background(), "", nil); err == nil {
		t.Error("Expected an error for an empty command")
	}
}
