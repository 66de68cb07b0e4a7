// Package wire implements the two AutoSync message framings: the
// preferred "PT1" framing and the legacy single-byte-count framing it
// falls back to for older EU builds.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// Magic is the 3-byte PT1 framing prefix.
var Magic = [3]byte{'P', 'T', '1'}

// ErrMalformed is the sentinel for a message that cannot be parsed
// under either framing. ReadMessage does not return it: a truncated
// message surfaces as the underlying read error (io.EOF or
// io.ErrUnexpectedEOF). Callers close the connection on any error
// without propagating it further: protocol violations are
// per-connection.
var ErrMalformed = errors.New("wire: malformed autosync message")

// EncodePT1 frames ports using the preferred PT1 framing: "PT1" ‖ u16
// count ‖ count × u16 port. count is clamped to maxPorts and the ports
// slice is truncated to match — callers that need "no cap" should pass
// a maxPorts >= len(ports).
func EncodePT1(ports []uint16, maxPorts int) []byte {
	if maxPorts > 0 && len(ports) > maxPorts {
		ports = ports[:maxPorts]
	}
	buf := make([]byte, 3+2+2*len(ports))
	copy(buf, Magic[:])
	binary.BigEndian.PutUint16(buf[3:5], uint16(len(ports)))
	for i, p := range ports {
		binary.BigEndian.PutUint16(buf[5+2*i:7+2*i], p)
	}
	return buf
}

// ReadMessage reads exactly one framed message from r, detecting PT1
// vs. legacy framing by a 3-byte peek:
//
//   - peek == "PT1"      -> PT1 framing: read the u16 count that
//     follows the peeked magic, then count ports.
//   - any other peek     -> legacy framing: peek[0] is itself the u8
//     count, and peek[1:3] is *already* the first port's two bytes —
//     this exact alignment must be preserved, not "corrected", since
//     real legacy EU builds depend on it.
//
// Ports are clamped to maxPorts (PT1) or read in full (legacy, which
// predates the cap) and silently dropped if outside [1,65535].
func ReadMessage(r io.Reader, maxPorts int) ([]uint16, error) {
	var peek [3]byte
	if _, err := io.ReadFull(r, peek[:]); err != nil {
		return nil, err
	}

	if peek == Magic {
		return readPT1Body(r, maxPorts)
	}
	return readLegacyBody(r, peek)
}

func readPT1Body(r io.Reader, maxPorts int) ([]uint16, error) {
	var countBuf [2]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, err
	}
	declared := int(binary.BigEndian.Uint16(countBuf[:]))
	count := declared
	if maxPorts > 0 && count > maxPorts {
		count = maxPorts
	}
	ports, err := readPorts(r, count)
	if err != nil {
		return nil, err
	}
	// still must consume the sender's full declared count, even when
	// clamped, so the connection's byte stream stays aligned for the
	// next message on this connection.
	if extra := declared - count; extra > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(extra)*2); err != nil {
			return nil, err
		}
	}
	return ports, nil
}

// readLegacyBody handles the legacy framing's documented quirk: peek[0]
// is the count byte, and peek[1:3] is already the first port's two
// bytes (not a separate header to re-read).
func readLegacyBody(r io.Reader, peek [3]byte) ([]uint16, error) {
	count := int(peek[0])
	if count == 0 {
		return nil, nil
	}

	ports := make([]uint16, 0, count)
	firstPort := binary.BigEndian.Uint16(peek[1:3])
	ports = append(ports, firstPort)

	if count > 1 {
		rest, err := readPorts(r, count-1)
		if err != nil {
			return nil, err
		}
		ports = append(ports, rest...)
	}
	return filterValid(ports), nil
}

func readPorts(r io.Reader, count int) ([]uint16, error) {
	if count <= 0 {
		return nil, nil
	}
	buf := make([]byte, 2*count)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	ports := make([]uint16, count)
	for i := 0; i < count; i++ {
		ports[i] = binary.BigEndian.Uint16(buf[2*i : 2*i+2])
	}
	return filterValid(ports), nil
}

// filterValid drops port 0: ports outside [1,65535] are silently
// dropped, and 0 is the only value a uint16 can take outside that
// range.
func filterValid(ports []uint16) []uint16 {
	out := ports[:0]
	for _, p := range ports {
		if p != 0 {
			out = append(out, p)
		}
	}
	return out
}
