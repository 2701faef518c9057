package robot

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sxccxs/robot-server/internal/bpool"
)

// Writer appends Sentinel to every outbound payload and flushes it. There
// are no ordering guarantees across connections, only within one (spec
// §4.4, §5).
type Writer struct {
	w   io.Writer
	c   io.Closer
	log logrus.FieldLogger
}

// NewWriter wraps conn for writing. log defaults to the standard logger when
// nil.
func NewWriter(conn net.Conn, log logrus.FieldLogger) *Writer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Writer{w: conn, c: conn, log: log}
}

// Write appends Sentinel to payload and writes it in one call so a short
// write can never split a record's terminator from its body.
func (w *Writer) Write(payload []byte) error {
	buf := bpool.Get()
	defer bpool.Put(buf)
	buf.Write(payload)
	buf.WriteString(Sentinel)
	_, err := w.w.Write(buf.Bytes())
	return err
}

// WriteRecord writes one of the fixed outbound literals.
func (w *Writer) WriteRecord(rec outRecord) error {
	return w.Write([]byte(rec))
}

// halfCloser is implemented by *net.TCPConn; Close prefers it so the read
// side stays open for any in-flight reply from the peer.
type halfCloser interface {
	CloseWrite() error
}

// Close half-closes the transport, or closes it outright if the concrete
// type doesn't support a half-close. A peer reset encountered while closing
// is logged, not surfaced (spec §4.4).
func (w *Writer) Close() error {
	var err error
	if hc, ok := w.c.(halfCloser); ok {
		err = hc.CloseWrite()
	} else {
		err = w.c.Close()
	}
	if err == nil {
		return nil
	}
	if isPeerReset(err) {
		w.log.WithError(err).Debug("peer reset while closing connection")
		return nil
	}
	return err
}

func isPeerReset(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "reset by peer") || strings.Contains(msg, "broken pipe")
}
