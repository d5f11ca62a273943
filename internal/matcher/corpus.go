package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	OpTriggerRefresh = "trigger refresh"
	OpReadJobCount   = "read job count"
)

// RefreshResult is the outcome of a corpus ingestion run.
type RefreshResult struct {
	NewJobs int
}

type refreshResponse struct {
	NewJobs *int `json:"new_jobs"`
}

type countResponse struct {
	Count *int `json:"count"`
}

// TriggerRefresh asks the remote service to ingest new postings.
// The call is not idempotent and is never retried here.
func (c *Client) TriggerRefresh(ctx context.Context) (*RefreshResult, error) {
	data, err := c.post(ctx, OpTriggerRefresh, c.url(updateJobsPath))
	if err != nil {
		return nil, wrapRequestError(OpTriggerRefresh, err)
	}

	var response refreshResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, &DecodeError{Op: OpTriggerRefresh, Err: err}
	}

	if response.NewJobs == nil {
		return nil, &DecodeError{Op: OpTriggerRefresh, Err: errors.New(`missing "new_jobs" key`)}
	}

	c.logger.Debug("corpus refreshed", zap.Int("new_jobs", *response.NewJobs))

	return &RefreshResult{NewJobs: *response.NewJobs}, nil
}

// ReadJobCount returns the current size of the remote job corpus. It has no side effects.
func (c *Client) ReadJobCount(ctx context.Context) (int, error) {
	data, err := c.get(ctx, OpReadJobCount, c.url(jobCountPath))
	if err != nil {
		return 0, wrapRequestError(OpReadJobCount, err)
	}

	var response countResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return 0, &DecodeError{Op: OpReadJobCount, Err: err}
	}

	switch {
	case response.Count == nil:
		return 0, &DecodeError{Op: OpReadJobCount, Err: errors.New(`missing "count" key`)}
	case *response.Count < 0:
		return 0, &DecodeError{Op: OpReadJobCount, Err: fmt.Errorf("negative job count %d", *response.Count)}
	}

	return *response.Count, nil
}

// wrapRequestError keeps typed gateway errors as they are and annotates the rest,
// which can only come from building the request.
func wrapRequestError(op string, err error) error {
	var transport *TransportError
	var remote *RemoteError
	if errors.As(err, &transport) || errors.As(err, &remote) {
		return err
	}
	return fmt.Errorf("%s: building request: %w", op, err)
}
