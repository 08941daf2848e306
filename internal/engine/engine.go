// Package engine abstracts the external video synthesis provider. It is the
// only package allowed to perform network I/O toward the provider; callers
// hold no locks across Submit or Poll.
package engine

import (
	"context"

	"server/internal/domain"
)

// SubmitRequest carries the inputs for launching a synthesis operation.
type SubmitRequest struct {
	ImageBytes  []byte
	ImageMIME   string
	Prompt      string
	AspectRatio domain.AspectRatio
}

// PollResult reports the state of an in-flight operation. ResultURI is set
// only when Done is true and Failed is false.
type PollResult struct {
	Done      bool
	Failed    bool
	ResultURI string
}

// Client is the interface to the synthesis provider. Submit returns an
// opaque operation handle; Poll reports progress for a handle. Submit fails
// with domain.ErrEngineUnavailable when the provider cannot be reached or
// rejects the request.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	Poll(ctx context.Context, handle string) (PollResult, error)
}

// normalizeAspect maps API ratios onto the two the provider accepts. Square
// input is forwarded as portrait.
func normalizeAspect(ratio domain.AspectRatio) domain.AspectRatio {
	switch ratio {
	case domain.AspectPortrait, domain.AspectLandscape:
		return ratio
	default:
		return domain.AspectPortrait
	}
}
