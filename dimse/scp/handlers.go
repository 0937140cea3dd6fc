// Package scp implements a DIMSE Service Class Provider: a listener that
// accepts associations, negotiates presentation contexts, and dispatches
// incoming DIMSE requests to user-supplied handlers, grounded on
// codeninja55/go-radx's dimse/scp package and adapted onto this module's
// dataset, error, and logging conventions.
package scp

import (
	"context"

	"github.com/lucidhealth/dicom"
)

// EchoRequest/EchoResponse model C-ECHO, the connectivity check service
// (spec §6 "C-ECHO").
type EchoRequest struct{}
type EchoResponse struct {
	Status uint16
}

// EchoHandler responds to a C-ECHO-RQ.
type EchoHandler interface {
	Echo(ctx context.Context, req EchoRequest) (EchoResponse, error)
}

// EchoHandlerFunc adapts a function into an EchoHandler.
type EchoHandlerFunc func(ctx context.Context, req EchoRequest) (EchoResponse, error)

func (f EchoHandlerFunc) Echo(ctx context.Context, req EchoRequest) (EchoResponse, error) {
	return f(ctx, req)
}

// DefaultEchoHandler always answers Success, the behavior a conformant
// SCP exhibits when it has nothing else to check (spec §6).
var DefaultEchoHandler = EchoHandlerFunc(func(ctx context.Context, req EchoRequest) (EchoResponse, error) {
	return EchoResponse{Status: 0x0000}, nil
})

// StoreRequest/StoreResponse model C-STORE.
type StoreRequest struct {
	SOPClassUID    string
	SOPInstanceUID string
	Dataset        *dicom.Dataset
}
type StoreResponse struct {
	Status uint16
}

// StoreHandler persists a stored instance.
type StoreHandler interface {
	Store(ctx context.Context, req StoreRequest) (StoreResponse, error)
}

type StoreHandlerFunc func(ctx context.Context, req StoreRequest) (StoreResponse, error)

func (f StoreHandlerFunc) Store(ctx context.Context, req StoreRequest) (StoreResponse, error) {
	return f(ctx, req)
}

// QueryResult is one matching row an iterative query service (C-FIND,
// C-MOVE, C-GET) yields.
type QueryResult struct {
	Identifier *dicom.Dataset
}

// FindRequest/FindHandler model C-FIND (spec §6 "C-FIND").
type FindRequest struct {
	SOPClassUID string
	Identifier  *dicom.Dataset
}

// FindHandler streams QueryResults to yield for a C-FIND-RQ; it returns
// once all matches have been yielded, or an error to abort the query
// with a failure status.
type FindHandler interface {
	Find(ctx context.Context, req FindRequest, yield func(QueryResult) error) error
}

type FindHandlerFunc func(ctx context.Context, req FindRequest, yield func(QueryResult) error) error

func (f FindHandlerFunc) Find(ctx context.Context, req FindRequest, yield func(QueryResult) error) error {
	return f(ctx, req, yield)
}

// MoveRequest/MoveHandler model C-MOVE (spec §6 "C-MOVE"): the handler
// resolves the query and arranges for matching instances to be sent to
// destinationAE via a separate C-STORE association, reporting progress
// through the returned suboperation counts.
type MoveRequest struct {
	SOPClassUID string
	Destination string
	Identifier  *dicom.Dataset
}

// SubOpProgress reports cumulative suboperation counts for C-MOVE/C-GET
// (spec §6, §9 boundary scenario 6's cumulative counters).
type SubOpProgress struct {
	Remaining uint16
	Completed uint16
	Failed    uint16
	Warning   uint16
}

type MoveHandler interface {
	Move(ctx context.Context, req MoveRequest, progress func(SubOpProgress) error) (SubOpProgress, error)
}

type MoveHandlerFunc func(ctx context.Context, req MoveRequest, progress func(SubOpProgress) error) (SubOpProgress, error)

func (f MoveHandlerFunc) Move(ctx context.Context, req MoveRequest, progress func(SubOpProgress) error) (SubOpProgress, error) {
	return f(ctx, req, progress)
}

// GetRequest/GetHandler model C-GET: like C-MOVE, but sub-operation
// C-STORE requests are sent back over the *same* association rather than
// a separately established one.
type GetRequest struct {
	SOPClassUID string
	Identifier  *dicom.Dataset
}

// GetHandler yields matching instances directly; the server drives the
// C-STORE sub-operations over the requesting association and reports
// cumulative progress to the SCU.
type GetHandler interface {
	Get(ctx context.Context, req GetRequest, yield func(*dicom.Dataset) error) (SubOpProgress, error)
}

type GetHandlerFunc func(ctx context.Context, req GetRequest, yield func(*dicom.Dataset) error) (SubOpProgress, error)

func (f GetHandlerFunc) Get(ctx context.Context, req GetRequest, yield func(*dicom.Dataset) error) (SubOpProgress, error) {
	return f(ctx, req, yield)
}

// NServiceRequest/NServiceResponse model the normalized-instance services
// N-EVENT-REPORT, N-GET, N-SET, N-ACTION, N-CREATE, and N-DELETE, which
// spec.md treats uniformly as command-only or command+dataset exchanges
// rather than with per-service semantics (spec §6).
type NServiceRequest struct {
	CommandField           uint16
	AffectedSOPClassUID    string
	AffectedSOPInstanceUID string
	RequestedSOPClassUID   string
	Dataset                *dicom.Dataset
}

type NServiceResponse struct {
	Status  uint16
	Dataset *dicom.Dataset
}

// NServiceHandler answers any of the six N-* services.
type NServiceHandler interface {
	Handle(ctx context.Context, req NServiceRequest) (NServiceResponse, error)
}

type NServiceHandlerFunc func(ctx context.Context, req NServiceRequest) (NServiceResponse, error)

func (f NServiceHandlerFunc) Handle(ctx context.Context, req NServiceRequest) (NServiceResponse, error) {
	return f(ctx, req)
}
