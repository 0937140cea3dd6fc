package dimse

import (
	"fmt"
	"sync"
)

// State is an association lifecycle state (spec §4.J "Association state
// machine"). This collapses the ACSE/X.217 protocol's full thirteen-state
// table (the source codeninja55/go-radx's dul.StateMachine ports in full)
// down to the states spec.md actually names; the state machine pattern
// itself -- a mutex-guarded current state plus an explicit transition
// table -- is kept from that package.
type State int

const (
	StateIdle State = iota
	StateAwaitingAssociateAC
	StateEstablished
	StateReleasing
	StateClosed
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingAssociateAC:
		return "AwaitingAssociateAc"
	case StateEstablished:
		return "Established"
	case StateReleasing:
		return "Releasing"
	case StateClosed:
		return "Closed"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Event drives state transitions.
type Event int

const (
	EventSendAssociateRQ Event = iota
	EventRecvAssociateRQ
	EventRecvAssociateAC
	EventSendAssociateAC
	EventRecvAssociateRJ
	EventSendData
	EventRecvData
	EventSendReleaseRQ
	EventRecvReleaseRQ
	EventSendReleaseRP
	EventRecvReleaseRP
	EventSendAbort
	EventRecvAbort
	EventTransportClosed
)

func (e Event) String() string {
	names := [...]string{
		"SendAssociateRQ", "RecvAssociateRQ", "RecvAssociateAC", "SendAssociateAC", "RecvAssociateRJ",
		"SendData", "RecvData", "SendReleaseRQ", "RecvReleaseRQ",
		"SendReleaseRP", "RecvReleaseRP", "SendAbort", "RecvAbort", "TransportClosed",
	}
	if int(e) < len(names) {
		return names[e]
	}
	return "Unknown"
}

// StateMachine tracks one association's lifecycle state and validates
// transitions against it.
type StateMachine struct {
	mu    sync.Mutex
	state State
}

// NewStateMachine returns a StateMachine starting in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateIdle}
}

// Current returns the current state.
func (sm *StateMachine) Current() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// ProcessEvent validates event against the current state, transitions on
// success, and returns an error identifying the invalid (state, event)
// pair otherwise (spec §7 "unexpected PDU for state").
func (sm *StateMachine) ProcessEvent(event Event) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	next, ok := transition(sm.state, event)
	if !ok {
		return fmt.Errorf("%w: event %s in state %s", ErrUnexpectedPDU, event, sm.state)
	}
	sm.state = next
	return nil
}

func transition(state State, event Event) (State, bool) {
	// Abort and unexpected transport closure reach StateAborted /
	// StateClosed from any state (spec §4.J: "Aborted" sink reachable
	// from any state).
	switch event {
	case EventSendAbort, EventRecvAbort:
		return StateAborted, true
	case EventTransportClosed:
		return StateClosed, true
	}

	switch state {
	case StateIdle:
		switch event {
		case EventSendAssociateRQ:
			return StateAwaitingAssociateAC, true
		case EventRecvAssociateRQ:
			return StateAwaitingAssociateAC, true
		}
	case StateAwaitingAssociateAC:
		switch event {
		case EventRecvAssociateAC, EventSendAssociateAC:
			return StateEstablished, true
		case EventRecvAssociateRJ:
			return StateClosed, true
		}
	case StateEstablished:
		switch event {
		case EventSendData, EventRecvData:
			return StateEstablished, true
		case EventSendReleaseRQ, EventRecvReleaseRQ:
			return StateReleasing, true
		}
	case StateReleasing:
		switch event {
		case EventRecvReleaseRP, EventSendReleaseRP:
			return StateClosed, true
		}
	}
	return state, false
}
