package orchestrator

import "github.com/aretw0/gamesession/pkg/domain"

// pendingTable maps the id of a suspended call to the call itself.
type pendingTable struct {
	calls map[domain.MessageID]*Call
}

func newPendingTable() *pendingTable {
	return &pendingTable{calls: make(map[domain.MessageID]*Call)}
}

// park suspends call. A different call parked under the same id is superseded.
func (p *pendingTable) park(call *Call) {
	if prev, ok := p.calls[call.ID]; ok && prev != call {
		prev.complete(nil, domain.ErrSuperseded)
	}
	p.calls[call.ID] = call
}

// take removes and returns the call parked under id, or nil.
func (p *pendingTable) take(id domain.MessageID) *Call {
	call, ok := p.calls[id]
	if !ok {
		return nil
	}
	delete(p.calls, id)
	return call
}

// drain removes every parked call.
func (p *pendingTable) drain() []*Call {
	calls := make([]*Call, 0, len(p.calls))
	for id, c := range p.calls {
		calls = append(calls, c)
		delete(p.calls, id)
	}
	return calls
}

func (p *pendingTable) len() int {
	return len(p.calls)
}
