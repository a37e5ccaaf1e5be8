package manager

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time snapshot of the Manager's operational state,
// the UDF-core analogue of framesupplier's SupplierStats.
type Stats struct {
	Processed       uint64
	Dropped         uint64
	Errors          uint64
	DispatchDropped uint64
	InFlight        int32
	QueueDepthIn    int
	QueueDepthOut   int
	LastProcessedAt time.Time
	Idle            bool
}

type runtimeStats struct {
	processed       atomic.Uint64
	dropped         atomic.Uint64
	errors          atomic.Uint64
	dispatchDropped atomic.Uint64
	inFlight        atomic.Int32
	lastProcessedAt atomic.Value // time.Time
}

func (s *runtimeStats) markProcessed() {
	s.processed.Add(1)
	s.lastProcessedAt.Store(time.Now())
}

func (s *runtimeStats) lastProcessed() time.Time {
	v := s.lastProcessedAt.Load()
	if v == nil {
		return time.Time{}
	}
	return v.(time.Time)
}

// snapshot builds a Stats value, flagging Idle if no frame has completed
// the chain in longer than idleThreshold — mirroring
// framesupplier/internal/stats.go's IsIdle calculation, applied to the
// whole chain rather than one worker slot.
func (s *runtimeStats) snapshot(idleThreshold time.Duration, queueDepthIn, queueDepthOut int) Stats {
	last := s.lastProcessed()
	idle := !last.IsZero() && time.Since(last) > idleThreshold
	return Stats{
		Processed:       s.processed.Load(),
		Dropped:         s.dropped.Load(),
		Errors:          s.errors.Load(),
		DispatchDropped: s.dispatchDropped.Load(),
		InFlight:        s.inFlight.Load(),
		QueueDepthIn:    queueDepthIn,
		QueueDepthOut:   queueDepthOut,
		LastProcessedAt: last,
		Idle:            idle,
	}
}
