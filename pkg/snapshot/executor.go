package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ritzau/classdeps/pkg/cache"
	"github.com/ritzau/classdeps/pkg/symbols"
)

// Executor runs the extraction command that writes a snapshot document to
// stdout
type Executor interface {
	Run(ctx context.Context, dir string, argv []string) ([]byte, error)
}

// DefaultExecutor is the default implementation of Executor that runs actual commands
type DefaultExecutor struct{}

// NewExecutor creates a new default executor
func NewExecutor() Executor {
	return &DefaultExecutor{}
}

// Run executes argv in dir and returns its stdout. It respects the provided
// context for cancellation.
func (e *DefaultExecutor) Run(ctx context.Context, dir string, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty extraction command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w\nOutput: %s", argv[0], err, stderr.String())
	}
	return output, nil
}

// CommandSource loads a snapshot by running an extractor, e.g.
// "extract-classes --format json build/classes"
type CommandSource struct {
	Command  string
	Dir      string
	executor Executor
}

// NewCommandSource creates a source running command with the default executor
func NewCommandSource(command, dir string) *CommandSource {
	return &CommandSource{Command: command, Dir: dir, executor: NewExecutor()}
}

func (s *CommandSource) Name() string { return s.Command }

func (s *CommandSource) Load(ctx context.Context, table *symbols.Table) (*cache.Cache, error) {
	output, err := s.executor.Run(ctx, s.Dir, strings.Fields(s.Command))
	if err != nil {
		return nil, err
	}
	doc, err := Parse(output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse output of %q: %w", s.Command, err)
	}
	return Build(doc, table)
}
