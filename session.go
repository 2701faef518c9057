package robot

import (
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionState is the per-connection state machine of spec §4.8. A Closed
// state may be entered from any other state on a fatal error.
type SessionState int

const (
	StateReadingUsername SessionState = iota
	StateReadingKeyID
	StateSendingChallenge
	StateAwaitingClientConfirmation
	StateOrienting
	StateNavigating
	StateAwaitingSecret
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateReadingUsername:
		return "ReadingUsername"
	case StateReadingKeyID:
		return "ReadingKeyId"
	case StateSendingChallenge:
		return "SendingChallenge"
	case StateAwaitingClientConfirmation:
		return "AwaitingClientConfirmation"
	case StateOrienting:
		return "Orienting"
	case StateNavigating:
		return "Navigating"
	case StateAwaitingSecret:
		return "AwaitingSecret"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is the Session Controller of spec §4.8. It sequences
// authenticate -> orient+navigate -> receive secret, maps every failure to
// the wire reply of spec §7, and guarantees the connection is always closed
// on exit — success, protocol error, or a recovered panic.
type Session struct {
	id      int64
	conn    net.Conn
	cfg     Config
	writer  *Writer
	log     logrus.FieldLogger
	state   SessionState
	message string
}

// NewSession builds a Session over an accepted connection. id is an
// opaque, caller-assigned identifier used only for logging (e.g. a
// monotonically increasing per-listener counter).
func NewSession(id int64, conn net.Conn, cfg Config, log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		id:     id,
		conn:   conn,
		cfg:    cfg,
		writer: NewWriter(conn, log),
		log:    log.WithField("session", id),
	}
}

// Run drives the session to completion. It never panics out to the caller:
// a recovered panic is logged at Error level with a stack trace and treated
// as a fatal, unreported close (spec §4.8, §7).
func (s *Session) Run() {
	defer s.writer.Close()
	defer s.recoverCrash()

	frameReader := NewFrameReader(s.conn)
	var reader Reader
	if s.cfg.RechargingEnabled {
		reader = NewRechargingReader(frameReader, s.cfg.TimeoutRecharging)
	} else {
		reader = &plainReader{fr: frameReader}
	}

	if err := s.run(reader); err != nil {
		s.reportAndClose(err)
		return
	}
	s.setState(StateClosed)
}

func (s *Session) run(reader Reader) error {
	auth := NewAuthenticator(reader, s.writer, s.cfg.KeyTable(), s.setState)
	username, err := auth.Authenticate(s.cfg.Timeout)
	if err != nil {
		return err
	}
	s.log.WithField("username", username).Info("authenticated")

	s.setState(StateOrienting)
	nav := s.newNavigator(reader)
	s.setState(StateNavigating)
	if err := nav.NavigateToOrigin(s.cfg.Timeout); err != nil {
		return err
	}
	s.log.Info("navigation complete")

	s.setState(StateAwaitingSecret)
	receiver := NewSecretReceiver(reader, s.writer)
	message, err := receiver.Receive(s.cfg.Timeout)
	if err != nil {
		return err
	}
	s.message = message
	s.log.WithField("message", message).Info("secret received")
	return nil
}

func (s *Session) newNavigator(reader Reader) *Navigator {
	if s.cfg.Planner == PlannerBFS {
		return NewBFSNavigator(reader, s.writer)
	}
	return NewNavigator(reader, s.writer)
}

func (s *Session) setState(state SessionState) {
	s.state = state
	s.log.WithField("state", state).Debug("session state transition")
}

// reportAndClose maps err's kind to the wire reply of spec §7 (sending
// none for a timeout, since the peer is presumably gone), logs it, and
// transitions to Closed. The connection itself is closed by the deferred
// Writer.Close in Run.
func (s *Session) reportAndClose(err error) {
	s.setState(StateClosed)

	kind, ok := KindOf(err)
	if !ok {
		// Not a *ProtocolError: an unexpected internal failure. Treat like
		// a timeout for wire purposes (no reply, connection just drops)
		// but log it loudly since it indicates a bug, not a bad client.
		s.log.WithError(err).Error("unclassified session error")
		return
	}

	reply, shouldReply := kind.WireReply()
	if !shouldReply {
		s.log.WithError(err).Info("session closed without reply")
		return
	}
	if werr := s.writer.Write([]byte(reply)); werr != nil {
		s.log.WithError(werr).Warn("failed to write error reply")
	}
	s.log.WithError(err).WithField("reply", reply).Info("session closed with error reply")
}

func (s *Session) recoverCrash() {
	if r := recover(); r != nil {
		s.log.WithFields(logrus.Fields{
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("recovered from panic in session")
	}
}

// Message returns the secret message retrieved by this session, if the
// session completed successfully.
func (s *Session) Message() string { return s.message }
