package dag

import (
	"time"

	"github.com/stxkxs/strata/internal/event"
)

// emit is a nil-safe wrapper around the optional event bus.
func (d *DAG) emit(t event.EventType, data map[string]interface{}) {
	if d.events == nil {
		return
	}
	d.events.Emit(event.NewEvent(t, data))
}

func (d *DAG) incDispatched() {
	if d.metrics != nil {
		d.metrics.IncNodesDispatched()
	}
}

func (d *DAG) incCompleted() {
	if d.metrics != nil {
		d.metrics.IncNodesCompleted()
	}
}

func (d *DAG) incFailed() {
	if d.metrics != nil {
		d.metrics.IncNodesFailed()
	}
}

func (d *DAG) recordNodeDuration(dur time.Duration) {
	if d.metrics != nil {
		d.metrics.RecordNodeDuration(dur)
	}
}
