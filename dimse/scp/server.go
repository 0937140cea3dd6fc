package scp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/lucidhealth/dicom"
	"github.com/lucidhealth/dicom/dicomlog"
	"github.com/lucidhealth/dicom/dimse"
	"github.com/lucidhealth/dicom/dimse/pdu"
)

// Config configures a Server.
type Config struct {
	AETitle           string
	ListenAddr        string
	MaxPDULength      uint32
	MaxAssociations   int
	SupportedContexts []dimse.SupportedContext

	EchoHandler     EchoHandler
	StoreHandler    StoreHandler
	FindHandler     FindHandler
	GetHandler      GetHandler
	MoveHandler     MoveHandler
	NServiceHandler NServiceHandler
}

// Server is a DIMSE SCP: it accepts TCP connections, negotiates
// associations, and dispatches DIMSE requests to the configured handlers.
type Server struct {
	config   Config
	listener net.Listener

	mu           sync.Mutex
	activeConns  int
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewServer returns a Server for config. Call Listen to start accepting.
func NewServer(config Config) *Server {
	if config.MaxPDULength == 0 {
		config.MaxPDULength = pdu.DefaultMaxLength
	}
	if config.EchoHandler == nil {
		config.EchoHandler = DefaultEchoHandler
	}
	return &Server{config: config, shutdownCh: make(chan struct{})}
}

// Listen binds the configured address and serves associations until ctx
// is canceled or Shutdown is called.
func (s *Server) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("dimse/scp: listen %s: %w", s.config.ListenAddr, err)
	}
	s.listener = ln
	dicomlog.Vprintf(1, "dimse/scp: %s listening on %s", s.config.AETitle, s.config.ListenAddr)

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdownCh:
				return nil
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("dimse/scp: accept: %w", err)
			}
		}

		s.mu.Lock()
		if s.config.MaxAssociations > 0 && s.activeConns >= s.config.MaxAssociations {
			s.mu.Unlock()
			conn.Close()
			continue
		}
		s.activeConns++
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				s.activeConns--
				s.mu.Unlock()
			}()
			s.handleConnection(ctx, conn)
		}()
	}
}

// Shutdown stops accepting new associations and waits for in-flight ones
// to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
		if s.listener != nil {
			s.listener.Close()
		}
	})
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConnection(ctx context.Context, raw net.Conn) {
	defer raw.Close()
	conn := dimse.NewConn(raw, raw.RemoteAddr().String())

	sm := conn.StateMachine()
	p, err := conn.ReadPDU(ctx)
	if err != nil {
		dicomlog.Errorf("dimse/scp: read associate request: %v", err)
		return
	}
	rq, ok := p.(*pdu.AssociateRQ)
	if !ok {
		sm.ProcessEvent(dimse.EventRecvAbort)
		conn.SendPDU(ctx, &pdu.Abort{Source: pdu.AbortSourceServiceProvider, Reason: pdu.AbortReasonUnexpectedPDU})
		return
	}

	assoc := dimse.NewAssociation(conn, "")
	if err := assoc.AcceptAssociation(ctx, rq, s.config.AETitle, s.config.SupportedContexts); err != nil {
		dicomlog.Errorf("dimse/scp[%s]: accept association: %v", assoc.ID(), err)
		return
	}
	dicomlog.Vprintf(1, "dimse/scp[%s]: association established with %s", assoc.ID(), assoc.CallingAETitle())

	s.serveAssociation(ctx, assoc)
}

func (s *Server) serveAssociation(ctx context.Context, assoc *dimse.Association) {
	reassembler := dimse.NewReassembler(assoc.TransferSyntaxFor)
	cancels := newCancelRegistry()
	for {
		p, err := assoc.Conn().ReadPDU(ctx)
		if err != nil {
			dicomlog.Vprintf(1, "dimse/scp[%s]: connection closed: %v", assoc.ID(), err)
			return
		}

		switch v := p.(type) {
		case *pdu.DataTF:
			msg, complete, err := reassembler.AddPDU(v)
			if err != nil {
				dicomlog.Errorf("dimse/scp[%s]: reassembly: %v", assoc.ID(), err)
				return
			}
			if !complete {
				continue
			}
			if msg.Command.CommandField == dimse.CommandCCancelRQ {
				cancels.cancel(msg.Command.MessageIDBeingRespondedTo)
				continue
			}
			go func(msg *dimse.Message) {
				if err := s.dispatch(ctx, assoc, msg, cancels); err != nil {
					dicomlog.Errorf("dimse/scp[%s]: dispatch: %v", assoc.ID(), err)
				}
			}(msg)
		case *pdu.ReleaseRQ:
			if err := assoc.AcceptRelease(ctx); err != nil {
				dicomlog.Errorf("dimse/scp[%s]: release: %v", assoc.ID(), err)
			}
			return
		case *pdu.Abort:
			dicomlog.Vprintf(1, "dimse/scp[%s]: peer aborted (source=%d reason=%d)", assoc.ID(), v.Source, v.Reason)
			return
		default:
			dicomlog.Errorf("dimse/scp[%s]: unexpected PDU type 0x%02X", assoc.ID(), p.Type())
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, assoc *dimse.Association, msg *dimse.Message, cancels *cancelRegistry) error {
	switch msg.Command.CommandField {
	case dimse.CommandCEchoRQ:
		return s.handleEcho(ctx, assoc, msg)
	case dimse.CommandCStoreRQ:
		return s.handleStore(ctx, assoc, msg)
	case dimse.CommandCFindRQ:
		return s.handleFind(ctx, assoc, msg, cancels)
	case dimse.CommandCGetRQ:
		return s.handleGet(ctx, assoc, msg, cancels)
	case dimse.CommandCMoveRQ:
		return s.handleMove(ctx, assoc, msg, cancels)
	case dimse.CommandNEventReportRQ, dimse.CommandNGetRQ, dimse.CommandNSetRQ,
		dimse.CommandNActionRQ, dimse.CommandNCreateRQ, dimse.CommandNDeleteRQ:
		return s.handleNService(ctx, assoc, msg)
	default:
		return fmt.Errorf("dimse/scp: unsupported command field 0x%04X", msg.Command.CommandField)
	}
}

func (s *Server) respond(ctx context.Context, assoc *dimse.Association, req *dimse.CommandSet, status uint16, ds *dicom.Dataset) error {
	cmd := &dimse.CommandSet{
		CommandField:              dimse.ResponseFieldFor(req.CommandField),
		MessageIDBeingRespondedTo: req.MessageID,
		AffectedSOPClassUID:       req.AffectedSOPClassUID,
		Status:                    status,
		CommandDataSetType:        dimse.DataSetTypeNone,
	}
	if ds != nil {
		cmd.CommandDataSetType = dimse.DataSetTypePresent
	}
	return assoc.SendMessage(ctx, &dimse.Message{Command: cmd, Dataset: ds, PresentationContextID: assocPresentationContextID(assoc, req)})
}

// assocPresentationContextID picks the presentation context a response
// must go out on, by matching the request's affected SOP class against
// the negotiated contexts.
func assocPresentationContextID(assoc *dimse.Association, req *dimse.CommandSet) byte {
	pc, ok := assoc.FindPresentationContext(req.AffectedSOPClassUID)
	if !ok {
		return 0
	}
	return pc.ID
}

func (s *Server) handleEcho(ctx context.Context, assoc *dimse.Association, msg *dimse.Message) error {
	resp, err := s.config.EchoHandler.Echo(ctx, EchoRequest{})
	if err != nil {
		return s.respond(ctx, assoc, msg.Command, 0xC001, nil)
	}
	return s.respond(ctx, assoc, msg.Command, resp.Status, nil)
}

func (s *Server) handleStore(ctx context.Context, assoc *dimse.Association, msg *dimse.Message) error {
	if s.config.StoreHandler == nil {
		return s.respond(ctx, assoc, msg.Command, 0xC002, nil)
	}
	resp, err := s.config.StoreHandler.Store(ctx, StoreRequest{
		SOPClassUID:    msg.Command.AffectedSOPClassUID,
		SOPInstanceUID: msg.Command.AffectedSOPInstanceUID,
		Dataset:        msg.Dataset,
	})
	if err != nil {
		return s.respond(ctx, assoc, msg.Command, 0xC000, nil)
	}
	return s.respond(ctx, assoc, msg.Command, resp.Status, nil)
}

func (s *Server) handleFind(ctx context.Context, assoc *dimse.Association, msg *dimse.Message, cancels *cancelRegistry) error {
	if s.config.FindHandler == nil {
		return s.respond(ctx, assoc, msg.Command, 0xC002, nil)
	}
	cctx, done := cancels.withCancel(ctx, msg.Command.MessageID)
	defer done()

	err := s.config.FindHandler.Find(cctx, FindRequest{
		SOPClassUID: msg.Command.AffectedSOPClassUID,
		Identifier:  msg.Dataset,
	}, func(qr QueryResult) error {
		return s.respond(ctx, assoc, msg.Command, dimse.StatusPending, qr.Identifier)
	})
	if err != nil {
		if cctx.Err() != nil {
			return s.respond(ctx, assoc, msg.Command, dimse.StatusCancel, nil)
		}
		return s.respond(ctx, assoc, msg.Command, 0xC001, nil)
	}
	return s.respond(ctx, assoc, msg.Command, dimse.StatusSuccess, nil)
}

func (s *Server) handleGet(ctx context.Context, assoc *dimse.Association, msg *dimse.Message, cancels *cancelRegistry) error {
	if s.config.GetHandler == nil {
		return s.respond(ctx, assoc, msg.Command, 0xC002, nil)
	}
	cctx, done := cancels.withCancel(ctx, msg.Command.MessageID)
	defer done()

	progress, err := s.config.GetHandler.Get(cctx, GetRequest{
		SOPClassUID: msg.Command.AffectedSOPClassUID,
		Identifier:  msg.Dataset,
	}, func(instance *dicom.Dataset) error {
		return s.sendSubStore(ctx, assoc, msg.Command, instance)
	})
	if err != nil {
		if cctx.Err() != nil {
			return s.respondProgress(ctx, assoc, msg.Command, dimse.StatusCancel, progress)
		}
		return s.respondProgress(ctx, assoc, msg.Command, 0xC001, progress)
	}
	return s.respondProgress(ctx, assoc, msg.Command, dimse.StatusSuccess, progress)
}

func (s *Server) handleMove(ctx context.Context, assoc *dimse.Association, msg *dimse.Message, cancels *cancelRegistry) error {
	if s.config.MoveHandler == nil {
		return s.respond(ctx, assoc, msg.Command, 0xC002, nil)
	}
	cctx, done := cancels.withCancel(ctx, msg.Command.MessageID)
	defer done()

	progress, err := s.config.MoveHandler.Move(cctx, MoveRequest{
		SOPClassUID: msg.Command.AffectedSOPClassUID,
		Destination: msg.Command.MoveDestination,
		Identifier:  msg.Dataset,
	}, func(p SubOpProgress) error {
		return s.respondProgress(ctx, assoc, msg.Command, dimse.StatusPending, p)
	})
	if err != nil {
		if cctx.Err() != nil {
			return s.respondProgress(ctx, assoc, msg.Command, dimse.StatusCancel, progress)
		}
		return s.respondProgress(ctx, assoc, msg.Command, 0xC001, progress)
	}
	return s.respondProgress(ctx, assoc, msg.Command, dimse.StatusSuccess, progress)
}

// handleNService answers the normalized-instance services (N-EVENT-REPORT,
// N-GET, N-SET, N-ACTION, N-CREATE, N-DELETE) with a single symmetric
// handler, since spec.md treats them uniformly as command-only or
// command+dataset exchanges rather than modeling per-service semantics.
func (s *Server) handleNService(ctx context.Context, assoc *dimse.Association, msg *dimse.Message) error {
	if s.config.NServiceHandler == nil {
		return s.respond(ctx, assoc, msg.Command, 0xC002, nil)
	}
	resp, err := s.config.NServiceHandler.Handle(ctx, NServiceRequest{
		CommandField:           msg.Command.CommandField,
		AffectedSOPClassUID:    msg.Command.AffectedSOPClassUID,
		AffectedSOPInstanceUID: msg.Command.AffectedSOPInstanceUID,
		RequestedSOPClassUID:   msg.Command.RequestedSOPClassUID,
		Dataset:                msg.Dataset,
	})
	if err != nil {
		return s.respond(ctx, assoc, msg.Command, 0xC000, nil)
	}
	return s.respond(ctx, assoc, msg.Command, resp.Status, resp.Dataset)
}

func (s *Server) respondProgress(ctx context.Context, assoc *dimse.Association, req *dimse.CommandSet, status uint16, p SubOpProgress) error {
	cmd := &dimse.CommandSet{
		CommandField:                   dimse.ResponseFieldFor(req.CommandField),
		MessageIDBeingRespondedTo:      req.MessageID,
		AffectedSOPClassUID:            req.AffectedSOPClassUID,
		Status:                         status,
		CommandDataSetType:             dimse.DataSetTypeNone,
		NumberOfRemainingSuboperations: p.Remaining,
		NumberOfCompletedSuboperations: p.Completed,
		NumberOfFailedSuboperations:    p.Failed,
		NumberOfWarningSuboperations:   p.Warning,
	}
	return assoc.SendMessage(ctx, &dimse.Message{Command: cmd, PresentationContextID: assocPresentationContextID(assoc, req)})
}

// sendSubStore issues a C-STORE-RQ over the same association for a C-GET
// sub-operation and returns once it is sent; it does not wait for the
// C-STORE-RSP (spec §6 "C-GET": the
// store traffic shares the requesting association rather than opening a
// new one as C-MOVE does).
func (s *Server) sendSubStore(ctx context.Context, assoc *dimse.Association, getReq *dimse.CommandSet, instance *dicom.Dataset) error {
	pc, ok := assoc.FindPresentationContext(sopClassUID(instance))
	if !ok {
		return fmt.Errorf("dimse/scp: no negotiated context for sub-store SOP class %s", sopClassUID(instance))
	}
	cmd := &dimse.CommandSet{
		CommandField:           dimse.CommandCStoreRQ,
		MessageID:              getReq.MessageID,
		AffectedSOPClassUID:    sopClassUID(instance),
		AffectedSOPInstanceUID: sopInstanceUID(instance),
		Priority:               dimse.PriorityMedium,
		CommandDataSetType:     dimse.DataSetTypePresent,
	}
	return assoc.SendMessage(ctx, &dimse.Message{Command: cmd, Dataset: instance, PresentationContextID: pc.ID})
}
