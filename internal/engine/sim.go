package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// DemoResultURI is the placeholder video returned by simulated operations.
const DemoResultURI = "https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerJoyrides.mp4"

// Simulator is a Client that completes every operation locally after a
// fixed number of polls. It is selected by configuration when no provider
// key is available, so the rest of the pipeline runs unchanged.
type Simulator struct {
	PollsToComplete int

	mu    sync.Mutex
	seq   int
	polls map[string]int
}

// NewSimulator returns a simulator finishing operations after pollsToComplete
// polls (minimum 1).
func NewSimulator(pollsToComplete int) *Simulator {
	if pollsToComplete < 1 {
		pollsToComplete = 1
	}
	return &Simulator{
		PollsToComplete: pollsToComplete,
		polls:           make(map[string]int),
	}
}

// Submit registers a new simulated operation.
func (s *Simulator) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	handle := "operations/sim-" + strconv.Itoa(s.seq)
	s.polls[handle] = 0
	return handle, nil
}

// Poll advances the simulated operation and reports completion once the
// configured poll count is reached.
func (s *Simulator) Poll(ctx context.Context, handle string) (PollResult, error) {
	if err := ctx.Err(); err != nil {
		return PollResult{}, err
	}
	if !strings.HasPrefix(handle, "operations/sim-") {
		return PollResult{}, fmt.Errorf("unknown operation %q", handle)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	count, ok := s.polls[handle]
	if !ok {
		// Unknown but well-formed handles resolve immediately; the
		// process may have restarted since submission.
		return PollResult{Done: true, ResultURI: DemoResultURI}, nil
	}
	count++
	s.polls[handle] = count
	if count < s.PollsToComplete {
		return PollResult{}, nil
	}
	delete(s.polls, handle)
	return PollResult{Done: true, ResultURI: DemoResultURI}, nil
}

var _ Client = (*Simulator)(nil)
