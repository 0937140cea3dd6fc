package dimse_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lucidhealth/dicom"
	"github.com/lucidhealth/dicom/dimse"
	"github.com/lucidhealth/dicom/dimse/pdu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeAssociations wires up an SCU/SCP association pair over an in-memory
// net.Pipe, negotiating the single abstract syntax abstractSyntax under
// Explicit VR Little Endian.
func pipeAssociations(t *testing.T, abstractSyntax string) (scu, scp *dimse.Association) {
	t.Helper()
	clientConn, serverConn := net.Pipe()

	scuConn := dimse.NewConn(clientConn, "scu")
	scpConn := dimse.NewConn(serverConn, "scp")
	scu = dimse.NewAssociation(scuConn, "scu")
	scp = dimse.NewAssociation(scpConn, "scp")

	var wg sync.WaitGroup
	wg.Add(2)
	var scuErr, scpErr error

	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		scuErr = scu.RequestAssociation(ctx, "SCU_AE", "SCP_AE", []dimse.PresentationContextProposal{
			{ID: 1, AbstractSyntax: abstractSyntax, TransferSyntaxes: []string{dicom.ExplicitVRLittleEndian}},
		})
	}()
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		p, err := scpConn.ReadPDU(ctx)
		if err != nil {
			scpErr = err
			return
		}
		rq, ok := p.(*pdu.AssociateRQ)
		if !ok {
			scpErr = dimse.ErrUnexpectedPDU
			return
		}
		scpErr = scp.AcceptAssociation(ctx, rq, "SCP_AE", []dimse.SupportedContext{
			{AbstractSyntax: abstractSyntax, TransferSyntaxes: []string{dicom.ExplicitVRLittleEndian}},
		})
	}()
	wg.Wait()

	require.NoError(t, scuErr)
	require.NoError(t, scpErr)
	return scu, scp
}

func TestAssociationNegotiationAccepted(t *testing.T) {
	const abstractSyntax = "1.2.840.10008.1.1"
	scu, scp := pipeAssociations(t, abstractSyntax)

	pc, ok := scu.FindPresentationContext(abstractSyntax)
	require.True(t, ok)
	assert.Equal(t, dicom.ExplicitVRLittleEndian, pc.TransferSyntax)

	scpPC, ok := scp.PresentationContext(1)
	require.True(t, ok)
	assert.True(t, scpPC.Accepted)
	assert.Equal(t, abstractSyntax, scpPC.AbstractSyntax)
}

func TestSendMessageWithoutNegotiatedContextFails(t *testing.T) {
	const abstractSyntax = "1.2.840.10008.1.1"
	scu, _ := pipeAssociations(t, abstractSyntax)

	msg := &dimse.Message{
		Command: &dimse.CommandSet{
			CommandField:        dimse.CommandCEchoRQ,
			MessageID:           1,
			AffectedSOPClassUID: abstractSyntax,
			CommandDataSetType:  dimse.DataSetTypeNone,
		},
		PresentationContextID: 99, // never negotiated
	}
	err := scu.SendMessage(context.Background(), msg)
	assert.ErrorIs(t, err, dimse.ErrContextNotNegotiated)
}
