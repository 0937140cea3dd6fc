package dimse

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lucidhealth/dicom/dicomlog"
	"github.com/lucidhealth/dicom/dimse/pdu"
)

// ApplicationContextUID is the fixed DICOM Application Context Name
// negotiated by every association (spec §4.J "Negotiation" step 1).
const ApplicationContextUID = "1.2.840.10008.3.1.1.1"

// ImplementationClassUID identifies this module's DIMSE implementation in
// the User Information sub-item.
const ImplementationClassUID = "1.2.840.10008.lucidhealth.dicom.1.0"

const ImplementationVersionName = "LUCID_DICOM_1_0"

// PresentationContextProposal is one (abstract syntax, candidate transfer
// syntaxes) pair an SCU proposes when requesting an association.
type PresentationContextProposal struct {
	ID               byte
	AbstractSyntax   string
	TransferSyntaxes []string
}

// SupportedContext is one abstract syntax an SCP is willing to accept,
// together with the transfer syntaxes it supports for it.
type SupportedContext struct {
	AbstractSyntax   string
	TransferSyntaxes []string
}

// PresentationContext is a negotiated (accepted or rejected) presentation
// context, recorded on both sides of an established association.
type PresentationContext struct {
	ID             byte
	AbstractSyntax string
	TransferSyntax string
	Result         uint8
	Accepted       bool
}

// Association is one negotiated DIMSE association: the framed connection,
// the negotiated presentation contexts, and the agreed PDU size limits
// (spec §4.J).
type Association struct {
	conn *Conn

	mu                   sync.RWMutex
	calledAETitle        string
	callingAETitle       string
	presentationContexts map[byte]*PresentationContext
	maxPDULength         uint32

	id string // correlation id, spec's ambient logging requirement
}

// NewAssociation wraps conn as the transport for a not-yet-negotiated
// association. id is a log correlation id; if empty, a random one is
// generated (this is the association package's one use of google/uuid,
// distinct from DICOM UID generation elsewhere in the module).
func NewAssociation(conn *Conn, id string) *Association {
	if id == "" {
		id = uuid.NewString()
	}
	return &Association{
		conn:                 conn,
		presentationContexts: make(map[byte]*PresentationContext),
		maxPDULength:         pdu.DefaultMaxLength,
		id:                   id,
	}
}

// ID returns the association's log correlation id.
func (a *Association) ID() string { return a.id }

// RequestAssociation performs the SCU side of negotiation: send
// A-ASSOCIATE-RQ, await AC/RJ/Abort (spec §4.J "Negotiation").
func (a *Association) RequestAssociation(ctx context.Context, callingAE, calledAE string, proposals []PresentationContextProposal) error {
	a.callingAETitle = callingAE
	a.calledAETitle = calledAE

	rq := &pdu.AssociateRQ{
		ProtocolVersion:    1,
		CalledAETitle:      pdu.PadAETitle(calledAE),
		CallingAETitle:     pdu.PadAETitle(callingAE),
		ApplicationContext: ApplicationContextUID,
		UserInfo: pdu.UserInformation{
			MaxPDULength:           pdu.DefaultMaxLength,
			ImplementationClassUID: ImplementationClassUID,
			ImplementationVersion:  ImplementationVersionName,
		},
	}
	for _, p := range proposals {
		rq.PresentationContexts = append(rq.PresentationContexts, pdu.PresentationContextRQ{
			ID:               p.ID,
			AbstractSyntax:   p.AbstractSyntax,
			TransferSyntaxes: p.TransferSyntaxes,
		})
	}

	sm := a.conn.StateMachine()
	if err := sm.ProcessEvent(EventSendAssociateRQ); err != nil {
		return err
	}
	if err := a.conn.SendPDU(ctx, rq); err != nil {
		return err
	}

	resp, err := a.conn.ReadPDU(ctx)
	if err != nil {
		return err
	}

	switch v := resp.(type) {
	case *pdu.AssociateAC:
		if err := sm.ProcessEvent(EventRecvAssociateAC); err != nil {
			return err
		}
		a.applyAccepted(v, rq)
		dicomlog.Vprintf(1, "dimse[%s]: association accepted by %s", a.id, a.calledAETitle)
		return nil
	case *pdu.AssociateRJ:
		sm.ProcessEvent(EventRecvAssociateRJ)
		return &RejectError{Result: v.Result, Source: v.Source, Reason: v.Reason}
	case *pdu.Abort:
		sm.ProcessEvent(EventRecvAbort)
		return &AbortError{Source: v.Source, Reason: v.Reason}
	default:
		return fmt.Errorf("%w: got PDU type 0x%02X awaiting associate response", ErrUnexpectedPDU, resp.Type())
	}
}

func (a *Association) applyAccepted(ac *pdu.AssociateAC, rq *pdu.AssociateRQ) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ac.UserInfo.MaxPDULength > 0 {
		a.maxPDULength = ac.UserInfo.MaxPDULength
	}
	for _, pc := range ac.PresentationContexts {
		abstractSyntax := ""
		for _, p := range rq.PresentationContexts {
			if p.ID == pc.ID {
				abstractSyntax = p.AbstractSyntax
			}
		}
		a.presentationContexts[pc.ID] = &PresentationContext{
			ID:             pc.ID,
			AbstractSyntax: abstractSyntax,
			TransferSyntax: pc.TransferSyntax,
			Result:         pc.Result,
			Accepted:       pc.Result == pdu.ResultAcceptance,
		}
	}
}

// AcceptAssociation performs the SCP side: read the A-ASSOCIATE-RQ already
// received, negotiate each proposed context against supported, and send
// back an A-ASSOCIATE-AC in which each context that cannot be accepted
// carries its rejection result. It never sends an A-ASSOCIATE-RJ.
func (a *Association) AcceptAssociation(ctx context.Context, rq *pdu.AssociateRQ, aeTitle string, supported []SupportedContext) error {
	a.callingAETitle = pdu.TrimAETitle(rq.CallingAETitle)
	a.calledAETitle = aeTitle

	sm := a.conn.StateMachine()
	if err := sm.ProcessEvent(EventRecvAssociateRQ); err != nil {
		return err
	}

	ac := &pdu.AssociateAC{
		ProtocolVersion:    1,
		CalledAETitle:      rq.CalledAETitle,
		CallingAETitle:     rq.CallingAETitle,
		ApplicationContext: ApplicationContextUID,
		UserInfo: pdu.UserInformation{
			MaxPDULength:           pdu.DefaultMaxLength,
			ImplementationClassUID: ImplementationClassUID,
			ImplementationVersion:  ImplementationVersionName,
		},
	}

	a.mu.Lock()
	if rq.UserInfo.MaxPDULength > 0 && rq.UserInfo.MaxPDULength < a.maxPDULength {
		a.maxPDULength = rq.UserInfo.MaxPDULength
	}
	for _, pcRQ := range rq.PresentationContexts {
		pcAC := negotiateContext(pcRQ, supported)
		ac.PresentationContexts = append(ac.PresentationContexts, pcAC)
		a.presentationContexts[pcRQ.ID] = &PresentationContext{
			ID:             pcRQ.ID,
			AbstractSyntax: pcRQ.AbstractSyntax,
			TransferSyntax: pcAC.TransferSyntax,
			Result:         pcAC.Result,
			Accepted:       pcAC.Result == pdu.ResultAcceptance,
		}
	}
	a.mu.Unlock()

	if err := a.conn.SendPDU(ctx, ac); err != nil {
		return err
	}
	return sm.ProcessEvent(EventSendAssociateAC)
}

func negotiateContext(rq pdu.PresentationContextRQ, supported []SupportedContext) pdu.PresentationContextAC {
	for _, sup := range supported {
		if sup.AbstractSyntax != rq.AbstractSyntax {
			continue
		}
		for _, ts := range rq.TransferSyntaxes {
			for _, supTS := range sup.TransferSyntaxes {
				if ts == supTS {
					return pdu.PresentationContextAC{ID: rq.ID, Result: pdu.ResultAcceptance, TransferSyntax: ts}
				}
			}
		}
		return pdu.PresentationContextAC{ID: rq.ID, Result: pdu.ResultTransferSyntaxesNotSupported}
	}
	return pdu.PresentationContextAC{ID: rq.ID, Result: pdu.ResultAbstractSyntaxNotSupported}
}

// PresentationContext returns the negotiated context with the given id.
func (a *Association) PresentationContext(id byte) (*PresentationContext, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pc, ok := a.presentationContexts[id]
	return pc, ok
}

// FindPresentationContext returns the first accepted presentation context
// whose abstract syntax matches, used by SCUs to pick a context id for an
// outgoing request.
func (a *Association) FindPresentationContext(abstractSyntax string) (*PresentationContext, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, pc := range a.presentationContexts {
		if pc.Accepted && pc.AbstractSyntax == abstractSyntax {
			return pc, true
		}
	}
	return nil, false
}

// MaxPDULength returns the negotiated maximum PDU length.
func (a *Association) MaxPDULength() uint32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.maxPDULength
}

// TransferSyntaxFor returns the dataset transfer syntax negotiated for
// presentation context id, or "" if unnegotiated. Suitable as the resolver
// a Reassembler needs.
func (a *Association) TransferSyntaxFor(id byte) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if pc, ok := a.presentationContexts[id]; ok {
		return pc.TransferSyntax
	}
	return ""
}

// SendMessage fragments and sends msg over the association's connection.
func (a *Association) SendMessage(ctx context.Context, msg *Message) error {
	pc, ok := a.PresentationContext(msg.PresentationContextID)
	if !ok || !pc.Accepted {
		return fmt.Errorf("%w: context id %d", ErrContextNotNegotiated, msg.PresentationContextID)
	}
	pdus, err := msg.Encode(a.MaxPDULength(), pc.TransferSyntax)
	if err != nil {
		return err
	}
	sm := a.conn.StateMachine()
	for _, p := range pdus {
		if err := sm.ProcessEvent(EventSendData); err != nil {
			return err
		}
		if err := a.conn.SendPDU(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Release performs a clean A-RELEASE-RQ/RP exchange as the requester.
func (a *Association) Release(ctx context.Context) error {
	sm := a.conn.StateMachine()
	if err := sm.ProcessEvent(EventSendReleaseRQ); err != nil {
		return err
	}
	if err := a.conn.SendPDU(ctx, &pdu.ReleaseRQ{}); err != nil {
		return err
	}
	resp, err := a.conn.ReadPDU(ctx)
	if err != nil {
		return err
	}
	if _, ok := resp.(*pdu.ReleaseRP); !ok {
		return fmt.Errorf("%w: got PDU type 0x%02X awaiting release response", ErrUnexpectedPDU, resp.Type())
	}
	return sm.ProcessEvent(EventRecvReleaseRP)
}

// AcceptRelease responds to a peer-initiated A-RELEASE-RQ with RP.
func (a *Association) AcceptRelease(ctx context.Context) error {
	sm := a.conn.StateMachine()
	if err := sm.ProcessEvent(EventRecvReleaseRQ); err != nil {
		return err
	}
	if err := a.conn.SendPDU(ctx, &pdu.ReleaseRP{}); err != nil {
		return err
	}
	return sm.ProcessEvent(EventSendReleaseRP)
}

// Abort sends an A-ABORT and transitions the local state machine.
func (a *Association) Abort(ctx context.Context, source, reason uint8) error {
	sm := a.conn.StateMachine()
	sm.ProcessEvent(EventSendAbort)
	return a.conn.SendPDU(ctx, &pdu.Abort{Source: source, Reason: reason})
}

// CalledAETitle returns the association's called (SCP) AE title.
func (a *Association) CalledAETitle() string { return a.calledAETitle }

// CallingAETitle returns the association's calling (SCU) AE title.
func (a *Association) CallingAETitle() string { return a.callingAETitle }

// Conn returns the underlying framed connection.
func (a *Association) Conn() *Conn { return a.conn }
