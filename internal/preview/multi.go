package preview

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
)

// Multi delivers every document to each sink in order. A failing sink does
// not prevent delivery to the ones after it.
type Multi []playground.Sink

// Render implements playground.Sink
func (m Multi) Render(ctx context.Context, doc playground.Document) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Render(ctx, doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
