package main

import (
	"context"

	"osudiff/dotosu"
)

// Fail records a chart that could not be indexed. Cancellation is not a
// property of the chart, so it is not recorded.
func (s *scanner) Fail(ctx context.Context, path string, reason error) {
	if dotosu.CodeOf(reason) == dotosu.ErrCancelled || ctx.Err() != nil {
		return
	}
	s.failed.Add(1)
	if err := s.index.Fail(ctx, path, reason); err != nil {
		s.log.WithField("path", path).Error(err)
	}
}
