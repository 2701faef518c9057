package robot

import (
	"errors"
	"io"
	"net"
	"time"
)

// chunkSize is the number of bytes pulled from the transport per underlying
// read. Kept deliberately small so the sentinel-straddle case (the two
// sentinel bytes landing in different chunks) is exercised even against a
// transport that happily buffers whole records in one syscall.
const chunkSize = 8

// deadlineReader is the subset of net.Conn FrameReader needs. Exercised by
// a net.Conn in production and by an in-memory fake in tests, so the per-chunk
// timeout contract of spec §4.1 is testable without a real socket.
type deadlineReader interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// FrameReader extracts sentinel-terminated records from a byte stream that
// may arrive in arbitrary chunks. It owns a leftover buffer of bytes already
// pulled from the transport that belong to a subsequent record; the buffer
// never exceeds the largest max-payload-length plus the sentinel length,
// since a Read call never retains more than one record's worth of trailing
// bytes (spec §3 invariants).
type FrameReader struct {
	conn     deadlineReader
	leftover []byte
}

// NewFrameReader wraps conn in a FrameReader.
func NewFrameReader(conn deadlineReader) *FrameReader {
	return &FrameReader{conn: conn}
}

// Read returns one record (payload followed by Sentinel) of total length at
// most maxPayloadLen+2, or a *ProtocolError. A framing violation yields
// KindSyntax; a timed-out or closed transport yields KindTimeout.
func (r *FrameReader) Read(maxPayloadLen int, timeout time.Duration) ([]byte, error) {
	record := make([]byte, 0, maxPayloadLen+2)
	matched := 0 // number of trailing bytes of Sentinel currently matched: 0, 1, or 2 (done)

	// consume scans buf byte by byte, appending to record and tracking the
	// sentinel match state. It returns the unconsumed remainder of buf once
	// either buf runs out or the sentinel completes.
	consume := func(buf []byte) (rest []byte, done bool, err error) {
		for i, b := range buf {
			record = append(record, b)

			switch {
			case matched == 1 && b == Sentinel[1]:
				matched = 2
				return buf[i+1:], true, nil
			case b == Sentinel[0]:
				// Either starting a fresh match (matched was 0) or the
				// mismatch at matched==1 happens to itself be a sentinel
				// start byte: recheck from state 0 without skipping it.
				matched = 1
			default:
				matched = 0
			}

			if len(record)-matched > maxPayloadLen {
				return nil, false, syntaxErrorf("missing message separator")
			}
		}
		return nil, false, nil
	}

	rest, done, err := consume(r.leftover)
	r.leftover = nil
	if err != nil {
		return nil, err
	}
	if done {
		r.leftover = rest
		return record, nil
	}

	buf := make([]byte, chunkSize)
	for {
		if err := r.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, timeoutErrorf(err, "failed to set read deadline")
		}

		n, rerr := r.conn.Read(buf)
		if n > 0 {
			rest, done, cerr := consume(buf[:n])
			if cerr != nil {
				return nil, cerr
			}
			if done {
				r.leftover = rest
				return record, nil
			}
		}

		if rerr != nil {
			if n == 0 && errors.Is(rerr, io.EOF) {
				return nil, timeoutErrorf(rerr, "peer closed")
			}
			var ne net.Error
			if errors.As(rerr, &ne) && ne.Timeout() {
				return nil, timeoutErrorf(rerr, "read timed out")
			}
			return nil, timeoutErrorf(rerr, "transport error")
		}
	}
}
