// Package notify fans a report out to several channels.
package notify

import (
	"context"
	"errors"

	"BlogCrawler/internal/ports"
)

// MultiReporter publishes to every reporter, even after one fails.
type MultiReporter []ports.Reporter

var _ ports.Reporter = MultiReporter(nil)

func (m MultiReporter) Publish(ctx context.Context, text string) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Publish(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
