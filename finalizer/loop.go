// Package finalizer drives the finality detector from an asynchronous
// stream of newly-added blocks and reports the hashes it finalizes, per
// spec.md §2's "Finalizer loop" component. It is a thin orchestration
// layer: all consensus logic lives in package finality.
package finalizer

import (
	"context"

	"go.uber.org/atomic"

	"github.com/Fraser999/CasperLabs/finality"
	"github.com/Fraser999/CasperLabs/log"
)

// Loop consumes blocks from a channel, feeds them through a
// *finality.Detector one at a time, and republishes whatever the detector
// finalizes. It owns no consensus state itself; the detector's internal
// semaphore is what actually serializes updates, mirroring the teacher's
// hare3/runner.ProtocolRunner.Run select loop.
type Loop struct {
	logger   log.Log
	dag      finality.DAG
	detector *finality.Detector
	blocks   <-chan finality.BlockMeta

	// latestLFB is readable by other goroutines without going through the
	// output channel, the way mesh.Mesh exposes latestLayer as an
	// atomic.Value for readers that don't want to consume the event
	// stream.
	latestLFB atomic.Value
}

// New builds a Loop that will read newly-added blocks from blocks.
func New(logger log.Log, dag finality.DAG, detector *finality.Detector, blocks <-chan finality.BlockMeta) *Loop {
	l := &Loop{
		logger:   logger.WithName("finalizer"),
		dag:      dag,
		detector: detector,
		blocks:   blocks,
	}
	l.latestLFB.Store(detector.CurrentLFB())
	return l
}

// LatestFinalized returns the most recent LFB this loop has observed,
// without blocking on the Run loop.
func (l *Loop) LatestFinalized() finality.BlockHash {
	v := l.latestLFB.Load()
	if v == nil {
		return finality.BlockHash{}
	}
	return v.(finality.BlockHash)
}

// Run drives the detector until ctx is canceled or the block channel is
// closed, emitting each finalized result on the returned channel. Run
// returns at once; the work happens on its own goroutine, which closes the
// returned channel when it stops.
func (l *Loop) Run(ctx context.Context) <-chan finality.Finalized {
	out := make(chan finality.Finalized)

	go func() {
		defer close(out)

		lfb := l.detector.CurrentLFB()
		for {
			select {
			case <-ctx.Done():
				return
			case block, ok := <-l.blocks:
				if !ok {
					return
				}

				result, err := l.detector.OnNewBlock(ctx, l.dag, block, lfb)
				if err != nil {
					// The detector never retries (spec §7); retries are
					// this loop's caller's decision, so we surface the
					// failure via the log and keep draining the block
					// stream rather than wedging it.
					l.logger.With().Error("on_new_block failed",
						block.Hash, log.Err(err))
					continue
				}
				if result == nil {
					continue
				}

				lfb = result.ConsensusValue
				l.latestLFB.Store(lfb)

				select {
				case out <- *result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
