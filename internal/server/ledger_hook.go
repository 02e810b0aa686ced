package server

import (
	"github.com/stxkxs/strata/internal/event"
	"github.com/stxkxs/strata/internal/state"
)

// ledgerHook updates the run ledger's active run from node lifecycle
// events, reacting to the bus without the dag package knowing the ledger
// exists. Non-blocking: a dropped or delayed ledger update must never
// slow down scheduling.
type ledgerHook struct {
	mgr *state.Manager
}

func newLedgerHook(mgr *state.Manager) *ledgerHook {
	return &ledgerHook{mgr: mgr}
}

func (h *ledgerHook) Name() string { return "run-ledger" }

func (h *ledgerHook) Matches(t event.EventType) bool {
	switch t {
	case event.NodeStarted, event.NodeCompleted, event.NodeFailed:
		return true
	default:
		return false
	}
}

func (h *ledgerHook) IsBlocking() bool { return false }

func (h *ledgerHook) Handle(ev event.Event) error {
	id, _ := ev.Data["id"].(string)
	name, _ := ev.Data["node"].(string)

	switch ev.Type {
	case event.NodeStarted:
		return h.mgr.RecordNodeStarted(id, name)
	case event.NodeCompleted:
		return h.mgr.RecordNodeCompleted(id, name)
	case event.NodeFailed:
		errMsg, _ := ev.Data["error"].(string)
		return h.mgr.RecordNodeFailed(id, name, errString(errMsg))
	default:
		return nil
	}
}

type errString string

func (e errString) Error() string { return string(e) }
