package dimse

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lucidhealth/dicom/dicomlog"
	"github.com/lucidhealth/dicom/dimse/pdu"
)

// Conn wraps a net.Conn with PDU-level framing, per-call deadlines derived
// from the caller's context, and the state machine governing which PDUs
// are legal to send or receive next (spec §5 "cancellation as an explicit
// argument to every I/O-bound operation", §4.J). writeMu serializes PDU
// writes: an SCP may have a long-running C-FIND/C-GET/C-MOVE handler
// writing responses while the read loop concurrently observes a
// C-CANCEL-RQ, so two goroutines can legitimately call SendPDU at once.
type Conn struct {
	raw     net.Conn
	sm      *StateMachine
	id      string // correlation id for log lines, spec's "ambient stack" logging
	writeMu sync.Mutex
}

// NewConn wraps raw for framed PDU exchange, logging under correlation id.
func NewConn(raw net.Conn, id string) *Conn {
	return &Conn{raw: raw, sm: NewStateMachine(), id: id}
}

// StateMachine returns the connection's association state machine.
func (c *Conn) StateMachine() *StateMachine { return c.sm }

// SendPDU writes p to the wire, honoring ctx's deadline.
func (c *Conn) SendPDU(ctx context.Context, p pdu.PDU) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		c.raw.SetWriteDeadline(dl)
	} else {
		c.raw.SetWriteDeadline(time.Time{})
	}
	dicomlog.Vprintf(2, "dimse[%s]: send PDU type 0x%02X", c.id, p.Type())
	if err := p.Encode(c.raw); err != nil {
		return fmt.Errorf("dimse[%s]: send PDU: %w", c.id, err)
	}
	return nil
}

// ReadPDU reads the next PDU from the wire, honoring ctx's deadline.
func (c *Conn) ReadPDU(ctx context.Context) (pdu.PDU, error) {
	if dl, ok := ctx.Deadline(); ok {
		c.raw.SetReadDeadline(dl)
	} else {
		c.raw.SetReadDeadline(time.Time{})
	}
	p, err := pdu.Read(c.raw)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, fmt.Errorf("dimse[%s]: %w", c.id, ErrTimeout)
		}
		return nil, fmt.Errorf("dimse[%s]: read PDU: %w", c.id, err)
	}
	dicomlog.Vprintf(2, "dimse[%s]: recv PDU type 0x%02X", c.id, p.Type())
	return p, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the peer's network address.
func (c *Conn) RemoteAddr() net.Addr { return c.raw.RemoteAddr() }

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr { return c.raw.LocalAddr() }

// Dial opens a TCP connection to address and wraps it as a Conn.
func Dial(ctx context.Context, network, address, id string) (*Conn, error) {
	var d net.Dialer
	raw, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dimse: dial %s: %w", address, err)
	}
	return NewConn(raw, id), nil
}
