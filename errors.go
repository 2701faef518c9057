package robot

import "fmt"

// ErrorKind identifies one of the flat, disjoint protocol failure kinds a
// connection can terminate with. Modeled on the teacher's StatusCode/CloseError
// split in close.go: a small closed set of codes plus a typed error carrying one.
type ErrorKind int

const (
	// KindSyntax covers malformed records, overlong records, and missing
	// sentinels.
	KindSyntax ErrorKind = iota
	// KindLogic covers unexpected control records: a stray FULL_POWER, or
	// anything other than FULL_POWER following a RECHARGING pause.
	KindLogic
	// KindLoginFail covers a confirmation hash mismatch or a malformed
	// CONFIRMATION record.
	KindLoginFail
	// KindKeyOutOfRange covers a KEY_ID outside the configured table, or a
	// malformed KEY_ID record.
	KindKeyOutOfRange
	// KindTimeout covers a read that exceeded its deadline or a peer that
	// closed the connection mid-read. No wire reply is sent for this kind.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindLogic:
		return "logic error"
	case KindLoginFail:
		return "login failed"
	case KindKeyOutOfRange:
		return "key out of range"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// WireReply returns the exact outbound record literal a connection should
// send before closing for this kind, and whether a reply should be sent at
// all (KindTimeout sends none, per spec: the peer is presumably gone).
func (k ErrorKind) WireReply() (reply string, shouldReply bool) {
	switch k {
	case KindSyntax:
		return string(outSyntaxError), true
	case KindLogic:
		return string(outLogicError), true
	case KindLoginFail:
		return string(outLoginFailed), true
	case KindKeyOutOfRange:
		return string(outKeyOutOfRange), true
	case KindTimeout:
		return "", false
	default:
		return "", false
	}
}

// ProtocolError is returned by every protocol-level operation that fails in a
// way the Session Controller must map to a wire reply. Use errors.As to
// recover it, or the KindOf helper below (mirrors the teacher's CloseStatus).
type ProtocolError struct {
	Kind ErrorKind
	Msg  string
	// Err is the underlying cause, if any (e.g. a net.Error from the
	// transport). Unwrap exposes it so errors.Is/errors.As keep working.
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// KindOf is a convenience wrapper around errors.As to grab the ErrorKind from
// a ProtocolError, analogous to the teacher's CloseStatus helper in close.go.
// It returns (0, false) if err is nil or not a *ProtocolError.
func KindOf(err error) (ErrorKind, bool) {
	if err == nil {
		return 0, false
	}
	pe, ok := asProtocolError(err)
	if !ok {
		return 0, false
	}
	return pe.Kind, true
}

func asProtocolError(err error) (*ProtocolError, bool) {
	for err != nil {
		if pe, ok := err.(*ProtocolError); ok {
			return pe, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

func syntaxErrorf(format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{Kind: KindSyntax, Msg: fmt.Sprintf(format, v...)}
}

func logicErrorf(format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{Kind: KindLogic, Msg: fmt.Sprintf(format, v...)}
}

func loginFailf(format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{Kind: KindLoginFail, Msg: fmt.Sprintf(format, v...)}
}

func keyOutOfRangef(format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{Kind: KindKeyOutOfRange, Msg: fmt.Sprintf(format, v...)}
}

func timeoutErrorf(cause error, format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{Kind: KindTimeout, Msg: fmt.Sprintf(format, v...), Err: cause}
}

// numberFormatError is an internal-only error: it never reaches the wire
// directly. Callers (Codec) return it for a length- or pattern-valid but
// out-of-range integer field; the caller of the Codec (Authenticator) is
// responsible for remapping it to KindKeyOutOfRange or KindLoginFail per
// spec §4.5 — forwarding it unmapped would be a protocol bug, not a shortcut.
type numberFormatError struct {
	msg string
}

func (e *numberFormatError) Error() string { return e.msg }

func numberFormatErrorf(format string, v ...interface{}) *numberFormatError {
	return &numberFormatError{msg: fmt.Sprintf(format, v...)}
}
