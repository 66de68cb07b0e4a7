// Package netutil holds small codec helpers shared by the IR and EU
// sides: the 2-byte big-endian assignment header.
package netutil

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"time"
)

// HeartbeatHeader is the reserved assignment-header value meaning
// "stay idle, no assignment yet".
const HeartbeatHeader uint16 = 0

// ErrInvalidHeader is the sentinel for an assignment header that is not
// a usable target port. ReadHeader never returns it: every 2-byte value
// decodes, and callers check the result with ValidPort.
var ErrInvalidHeader = errors.New("netutil: invalid assignment header")

// WriteHeader writes the 2-byte big-endian assignment header with a
// deadline, so a stalled peer can't block the caller forever.
func WriteHeader(conn net.Conn, port uint16, deadline time.Duration) error {
	if deadline > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(deadline)); err != nil {
			return err
		}
		defer conn.SetWriteDeadline(time.Time{})
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], port)
	_, err := conn.Write(buf[:])
	return err
}

// ReadHeader reads the 2-byte big-endian assignment header. io.EOF and
// io.ErrUnexpectedEOF propagate unchanged so callers can distinguish a
// clean disconnect from a short read.
func ReadHeader(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// ValidPort reports whether p is a usable assignment target, i.e.
// non-zero (0 is reserved for heartbeats) and in the TCP port range.
func ValidPort(p uint16) bool {
	return p != 0
}
