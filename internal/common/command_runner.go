package common

import (
	"context"
	"fmt"
	"time"

	"cvmatch/internal/ai"
	"cvmatch/internal/errors"
)

// RetryBaseDelay is the first backoff of a retried model call
var RetryBaseDelay = 2 * time.Second

// CreateInputFunc builds the operation input from the file contents, in argument order
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc logs the start of an operation
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is one model-backed operation
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunAICommand reads the input files, runs the operation with the configured
// retries and writes the formatted result.
func RunAICommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	name string,
	cmdConfig CommandConfig,
	files []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	if logger == nil {
		logger = errors.Discard()
	}
	fileProcessor := NewFileProcessor(logger, cmdConfig.MaxFileSize)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ReadFiles(ctx, files...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	policy := ai.RetryPolicy{MaxRetries: cmdConfig.Retries, BaseDelay: RetryBaseDelay, Logger: logger}
	result, err := ai.Retry(ctx, policy, name, func(ctx context.Context) (Output, error) {
		return operation(ctx, input)
	})
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
