package dispatch

import (
	"context"

	"github.com/znsocket/znsocket-go/rooms"
	"github.com/znsocket/znsocket-go/wireerr"
)

// MaxCommandsPerCall bounds a single pipeline batch (spec §4.6); oversized
// pipelines must be split client-side rather than submitted in one call.
const MaxCommandsPerCall = 256

// PipelineResult is the ordered-array reply of spec §4.6: Values holds one
// entry per executed command, and Err (if non-nil) is the error that ended
// execution early — commands after the failure are not executed, unlike
// Redis's all-or-nothing MULTI/EXEC, an explicit accepted divergence.
type PipelineResult struct {
	Values []any
	Err    wireerr.Error
}

// Pipeline runs cmds against socketID's room in order, stopping at the
// first error (spec §4.6). Refresh events for each successful mutation are
// broadcast individually, in the same order the mutations happened, so
// observers see intermediate state transitions rather than just the final
// one.
func (d *Dispatcher[T]) Pipeline(
	ctx context.Context,
	socketID string,
	room string,
	sender rooms.Sender,
	cmds []Command,
) PipelineResult {
	if len(cmds) > MaxCommandsPerCall {
		return PipelineResult{Err: wireerr.Data("pipeline exceeds max_commands_per_call")}
	}

	result := PipelineResult{Values: make([]any, 0, len(cmds))}

	for _, cmd := range cmds {
		value, err := d.Execute(ctx, socketID, room, sender, cmd)
		if err != nil {
			result.Err = err

			return result
		}

		result.Values = append(result.Values, value)
	}

	return result
}
