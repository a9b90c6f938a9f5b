package stream

import (
	"context"
	"fmt"
	"iter"
)

// Accumulator drains a fragment sequence into a Buffer.
type Accumulator struct {
	Limits Limits
	// OnFragment, if set, is called with the size of each accepted fragment.
	OnFragment func(size int)
}

// Drain pulls fragments one at a time, in arrival order, until the sequence ends.
// On any failure, including cancellation of ctx, the buffer is discarded and no
// partial text is returned.
func (a *Accumulator) Drain(ctx context.Context, fragments iter.Seq2[string, error]) (string, error) {
	buf := NewBuffer(a.Limits)

	fail := func(err error) (string, error) {
		buf.Discard()
		return "", err
	}

	for fragment, err := range fragments {
		if err != nil {
			return fail(fmt.Errorf("model stream: %w", err))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(ctxErr)
		}
		if err := buf.Append(fragment); err != nil {
			return fail(err)
		}
		if a.OnFragment != nil {
			a.OnFragment(len(fragment))
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fail(ctxErr)
	}
	if err := buf.Freeze(); err != nil {
		return fail(err)
	}
	return buf.Text()
}
