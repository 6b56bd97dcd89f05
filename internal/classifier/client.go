// Package classifier drives the external text-classification service and
// turns its free-form structured output into well-typed verdicts.
package classifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/mwhitfield/signalhound/internal/types"
)

// Client is an abstraction over LLM providers.
type Client interface {
	// GenerateJSON generates a JSON response for the given prompt.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// Request carries the job fields sent to the classification service.
type Request struct {
	Company     string
	JobTitle    string
	Description string
}

// Classifier resolves job postings to tool-usage verdicts.
type Classifier struct {
	client Client
	logger *zap.SugaredLogger
}

// New creates a Classifier on top of an LLM client.
func New(client Client, logger *zap.SugaredLogger) *Classifier {
	return &Classifier{client: client, logger: logger}
}

// Classify sends one job to the classification service and parses the
// verdict. Transport errors are returned for the caller's retry policy;
// malformed responses are not errors, they degrade to the default verdict.
func (c *Classifier) Classify(ctx context.Context, req Request) (types.Verdict, error) {
	prompt := BuildPrompt(req)

	raw, err := c.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return types.DefaultVerdict(), err
	}

	verdict := ParseVerdict(raw, c.logger)
	return verdict, nil
}

// Close releases the underlying client.
func (c *Classifier) Close() error {
	return c.client.Close()
}
