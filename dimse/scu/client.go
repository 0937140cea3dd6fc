// Package scu implements a DIMSE Service Class User: the association
// requester side that drives C-ECHO, C-STORE, C-FIND, C-GET, and C-MOVE
// against a remote SCP, grounded on codeninja55/go-radx's dimse/scu
// package and adapted onto this module's association and dataset types.
package scu

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/lucidhealth/dicom"
	"github.com/lucidhealth/dicom/dimse"
	"github.com/lucidhealth/dicom/dimse/pdu"
)

// Config configures a Client.
type Config struct {
	CallingAETitle       string
	CalledAETitle        string
	RemoteAddr           string
	MaxPDULength         uint32
	PresentationContexts []dimse.PresentationContextProposal
}

// Client is a DIMSE SCU: one TCP connection plus its negotiated
// association, reused across calls until Close.
type Client struct {
	config      Config
	conn        *dimse.Conn
	assoc       *dimse.Association
	messageID   uint32
	reassembler *dimse.Reassembler
}

// NewClient returns a Client for config. Call Connect before issuing any
// DIMSE request.
func NewClient(config Config) *Client {
	if config.MaxPDULength == 0 {
		config.MaxPDULength = pdu.DefaultMaxLength
	}
	return &Client{config: config}
}

// Connect dials the remote SCP and negotiates an association.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := dimse.Dial(ctx, "tcp", c.config.RemoteAddr, "")
	if err != nil {
		return err
	}
	c.conn = conn
	c.assoc = dimse.NewAssociation(conn, "")
	c.reassembler = dimse.NewReassembler(c.assoc.TransferSyntaxFor)

	return c.assoc.RequestAssociation(ctx, c.config.CallingAETitle, c.config.CalledAETitle, c.config.PresentationContexts)
}

// Close releases the association and closes the connection.
func (c *Client) Close(ctx context.Context) error {
	if c.assoc == nil {
		return nil
	}
	err := c.assoc.Release(ctx)
	closeErr := c.conn.Close()
	if err != nil {
		return err
	}
	return closeErr
}

func (c *Client) nextMessageID() uint16 {
	n := atomic.AddUint32(&c.messageID, 1)
	return uint16(n % 65536)
}

// sendAndAwait sends msg and waits for its response message on the same
// presentation context.
func (c *Client) sendAndAwait(ctx context.Context, msg *dimse.Message) (*dimse.Message, error) {
	if err := c.assoc.SendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return c.awaitResponse(ctx)
}

func (c *Client) awaitResponse(ctx context.Context) (*dimse.Message, error) {
	for {
		p, err := c.conn.ReadPDU(ctx)
		if err != nil {
			return nil, err
		}
		dtf, ok := p.(*pdu.DataTF)
		if !ok {
			return nil, fmt.Errorf("%w: got PDU type 0x%02X awaiting DIMSE response", dimse.ErrUnexpectedPDU, p.Type())
		}
		msg, complete, err := c.reassembler.AddPDU(dtf)
		if err != nil {
			return nil, err
		}
		if complete {
			return msg, nil
		}
	}
}

// Echo issues a C-ECHO-RQ and returns the responder's status.
func (c *Client) Echo(ctx context.Context, abstractSyntax string) (uint16, error) {
	pc, ok := c.assoc.FindPresentationContext(abstractSyntax)
	if !ok {
		return 0, fmt.Errorf("%w: %s", dimse.ErrContextNotNegotiated, abstractSyntax)
	}
	cmd := &dimse.CommandSet{
		CommandField:        dimse.CommandCEchoRQ,
		MessageID:           c.nextMessageID(),
		AffectedSOPClassUID: abstractSyntax,
		CommandDataSetType:  dimse.DataSetTypeNone,
	}
	resp, err := c.sendAndAwait(ctx, &dimse.Message{Command: cmd, PresentationContextID: pc.ID})
	if err != nil {
		return 0, err
	}
	return resp.Command.Status, nil
}

// Store issues a C-STORE-RQ for ds under the given SOP class/instance
// UIDs.
func (c *Client) Store(ctx context.Context, sopClassUID, sopInstanceUID string, ds *dicom.Dataset) (uint16, error) {
	pc, ok := c.assoc.FindPresentationContext(sopClassUID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", dimse.ErrContextNotNegotiated, sopClassUID)
	}
	cmd := &dimse.CommandSet{
		CommandField:           dimse.CommandCStoreRQ,
		MessageID:              c.nextMessageID(),
		AffectedSOPClassUID:    sopClassUID,
		AffectedSOPInstanceUID: sopInstanceUID,
		Priority:               dimse.PriorityMedium,
		CommandDataSetType:     dimse.DataSetTypePresent,
	}
	resp, err := c.sendAndAwait(ctx, &dimse.Message{Command: cmd, Dataset: ds, PresentationContextID: pc.ID})
	if err != nil {
		return 0, err
	}
	return resp.Command.Status, nil
}

// FindResult is one match yielded to a Find callback.
type FindResult struct {
	Identifier *dicom.Dataset
}

// Find issues a C-FIND-RQ and invokes callback once per Pending response,
// returning the query's final status.
func (c *Client) Find(ctx context.Context, sopClassUID string, query *dicom.Dataset, callback func(FindResult) error) (uint16, error) {
	pc, ok := c.assoc.FindPresentationContext(sopClassUID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", dimse.ErrContextNotNegotiated, sopClassUID)
	}
	cmd := &dimse.CommandSet{
		CommandField:        dimse.CommandCFindRQ,
		MessageID:           c.nextMessageID(),
		AffectedSOPClassUID: sopClassUID,
		Priority:            dimse.PriorityMedium,
		CommandDataSetType:  dimse.DataSetTypePresent,
	}
	if err := c.assoc.SendMessage(ctx, &dimse.Message{Command: cmd, Dataset: query, PresentationContextID: pc.ID}); err != nil {
		return 0, err
	}

	for {
		resp, err := c.awaitResponse(ctx)
		if err != nil {
			return 0, err
		}
		if dimse.IsPending(resp.Command.Status) {
			if err := callback(FindResult{Identifier: resp.Dataset}); err != nil {
				return 0, err
			}
			continue
		}
		return resp.Command.Status, nil
	}
}

// Move issues a C-MOVE-RQ to destinationAE and returns the final
// cumulative sub-operation counts and status.
func (c *Client) Move(ctx context.Context, sopClassUID, destinationAE string, query *dicom.Dataset) (dimse.CommandSet, error) {
	pc, ok := c.assoc.FindPresentationContext(sopClassUID)
	if !ok {
		return dimse.CommandSet{}, fmt.Errorf("%w: %s", dimse.ErrContextNotNegotiated, sopClassUID)
	}
	cmd := &dimse.CommandSet{
		CommandField:        dimse.CommandCMoveRQ,
		MessageID:           c.nextMessageID(),
		AffectedSOPClassUID: sopClassUID,
		Priority:            dimse.PriorityMedium,
		CommandDataSetType:  dimse.DataSetTypePresent,
		MoveDestination:     destinationAE,
	}
	if err := c.assoc.SendMessage(ctx, &dimse.Message{Command: cmd, Dataset: query, PresentationContextID: pc.ID}); err != nil {
		return dimse.CommandSet{}, err
	}

	var last *dimse.CommandSet
	for {
		resp, err := c.awaitResponse(ctx)
		if err != nil {
			return dimse.CommandSet{}, err
		}
		last = resp.Command
		if !dimse.IsPending(resp.Command.Status) {
			return *last, nil
		}
	}
}

// StoreCallback handles one C-STORE sub-operation the remote SCP drives
// back over this association during a C-GET.
type StoreCallback func(ds *dicom.Dataset) (uint16, error)

// Get issues a C-GET-RQ, servicing interleaved C-STORE sub-operation
// requests with storeHandler until the final C-GET-RSP arrives.
func (c *Client) Get(ctx context.Context, sopClassUID string, query *dicom.Dataset, storeHandler StoreCallback) (dimse.CommandSet, error) {
	pc, ok := c.assoc.FindPresentationContext(sopClassUID)
	if !ok {
		return dimse.CommandSet{}, fmt.Errorf("%w: %s", dimse.ErrContextNotNegotiated, sopClassUID)
	}
	cmd := &dimse.CommandSet{
		CommandField:        dimse.CommandCGetRQ,
		MessageID:           c.nextMessageID(),
		AffectedSOPClassUID: sopClassUID,
		Priority:            dimse.PriorityMedium,
		CommandDataSetType:  dimse.DataSetTypePresent,
	}
	if err := c.assoc.SendMessage(ctx, &dimse.Message{Command: cmd, Dataset: query, PresentationContextID: pc.ID}); err != nil {
		return dimse.CommandSet{}, err
	}

	for {
		resp, err := c.awaitResponse(ctx)
		if err != nil {
			return dimse.CommandSet{}, err
		}

		if resp.Command.CommandField == dimse.CommandCStoreRQ {
			status, err := storeHandler(resp.Dataset)
			if err != nil {
				status = 0xC000
			}
			respCmd := &dimse.CommandSet{
				CommandField:              dimse.ResponseFieldFor(dimse.CommandCStoreRQ),
				MessageIDBeingRespondedTo: resp.Command.MessageID,
				AffectedSOPClassUID:       resp.Command.AffectedSOPClassUID,
				AffectedSOPInstanceUID:    resp.Command.AffectedSOPInstanceUID,
				Status:                    status,
				CommandDataSetType:        dimse.DataSetTypeNone,
			}
			if err := c.assoc.SendMessage(ctx, &dimse.Message{Command: respCmd, PresentationContextID: resp.PresentationContextID}); err != nil {
				return dimse.CommandSet{}, err
			}
			continue
		}

		if !dimse.IsPending(resp.Command.Status) {
			return *resp.Command, nil
		}
	}
}
