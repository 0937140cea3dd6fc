package dimse_test

import (
	"testing"

	"github.com/lucidhealth/dicom/dimse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequesterHappyPath(t *testing.T) {
	sm := dimse.NewStateMachine()
	require.Equal(t, dimse.StateIdle, sm.Current())

	require.NoError(t, sm.ProcessEvent(dimse.EventSendAssociateRQ))
	assert.Equal(t, dimse.StateAwaitingAssociateAC, sm.Current())

	require.NoError(t, sm.ProcessEvent(dimse.EventRecvAssociateAC))
	assert.Equal(t, dimse.StateEstablished, sm.Current())

	require.NoError(t, sm.ProcessEvent(dimse.EventSendData))
	assert.Equal(t, dimse.StateEstablished, sm.Current())

	require.NoError(t, sm.ProcessEvent(dimse.EventSendReleaseRQ))
	assert.Equal(t, dimse.StateReleasing, sm.Current())

	require.NoError(t, sm.ProcessEvent(dimse.EventRecvReleaseRP))
	assert.Equal(t, dimse.StateClosed, sm.Current())
}

func TestAcceptorHappyPath(t *testing.T) {
	sm := dimse.NewStateMachine()

	require.NoError(t, sm.ProcessEvent(dimse.EventRecvAssociateRQ))
	assert.Equal(t, dimse.StateAwaitingAssociateAC, sm.Current())

	require.NoError(t, sm.ProcessEvent(dimse.EventSendAssociateAC))
	assert.Equal(t, dimse.StateEstablished, sm.Current())

	require.NoError(t, sm.ProcessEvent(dimse.EventRecvReleaseRQ))
	assert.Equal(t, dimse.StateReleasing, sm.Current())

	require.NoError(t, sm.ProcessEvent(dimse.EventSendReleaseRP))
	assert.Equal(t, dimse.StateClosed, sm.Current())
}

func TestAssociateRejectClosesFromAwaiting(t *testing.T) {
	sm := dimse.NewStateMachine()
	require.NoError(t, sm.ProcessEvent(dimse.EventSendAssociateRQ))
	require.NoError(t, sm.ProcessEvent(dimse.EventRecvAssociateRJ))
	assert.Equal(t, dimse.StateClosed, sm.Current())
}

func TestAbortReachableFromAnyState(t *testing.T) {
	sm := dimse.NewStateMachine()
	require.NoError(t, sm.ProcessEvent(dimse.EventSendAssociateRQ))
	require.NoError(t, sm.ProcessEvent(dimse.EventRecvAssociateAC))
	require.NoError(t, sm.ProcessEvent(dimse.EventRecvAbort))
	assert.Equal(t, dimse.StateAborted, sm.Current())
}

func TestInvalidTransitionReturnsError(t *testing.T) {
	sm := dimse.NewStateMachine()
	err := sm.ProcessEvent(dimse.EventSendData)
	assert.ErrorIs(t, err, dimse.ErrUnexpectedPDU)
	assert.Equal(t, dimse.StateIdle, sm.Current())
}
