package client

import (
	"context"
	"fmt"
	"time"

	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/protocol"
)

// DefaultPollInterval matches how often interactive views refresh
const DefaultPollInterval = 500 * time.Millisecond

// PollResult is one snapshot delivery. Err is set on the last result when polling stops on failure.
type PollResult struct {
	State protocol.ServerState
	Err   error
}

// Poll re-issues GET_SERVER every interval and delivers each snapshot.
// The channel closes when ctx is cancelled, the match is decided, the session
// disappears or the connection fails.
func Poll(ctx context.Context, c *Client, name string, interval time.Duration) <-chan PollResult {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	results := make(chan PollResult)

	go func() {
		defer close(results)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			result, done := pollOnce(c, name)
			select {
			case results <- result:
			case <-ctx.Done():
				return
			}
			if done {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results
}

func pollOnce(c *Client, name string) (PollResult, bool) {
	state, err := c.Session(name)
	if err != nil {
		return PollResult{Err: err}, true
	}
	if state.Status != protocol.StatusSuccess {
		return PollResult{State: state, Err: fmt.Errorf("%w: %s", model.ErrSessionNotFound, state.Message)}, true
	}
	return PollResult{State: state}, state.Decided()
}
