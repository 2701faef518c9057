package robot

import (
	"regexp"
	"strconv"
	"strings"
)

// Codec is pure byte <-> value translation: it performs no I/O. Each inbound
// decode either produces a typed value or a typed error; all inputs have
// already had the sentinel stripped by a Reader (spec §4.3).
type Codec struct{}

var (
	intPattern = regexp.MustCompile(`^[+-]?\d+$`)
	okPattern  = regexp.MustCompile(`^OK ([+-]?\d+) ([+-]?\d+)$`)
)

// stripSentinel removes a trailing Sentinel from record, returning an error
// if it is missing — a caller handing the Codec raw, un-stripped bytes is a
// framing bug, not a client error, but we still report it the same way a
// Reader would (spec §4.3).
func stripSentinel(record []byte) (string, error) {
	s := string(record)
	if !strings.HasSuffix(s, Sentinel) {
		return "", syntaxErrorf("missing message separator")
	}
	return strings.TrimSuffix(s, Sentinel), nil
}

// DecodeUsername validates a USERNAME record: non-empty ASCII up to 18 bytes.
func (Codec) DecodeUsername(record []byte) (string, error) {
	payload, err := stripSentinel(record)
	if err != nil {
		return "", err
	}
	if len(payload) == 0 || len(payload) > maxUsername || !isASCII(payload) {
		return "", syntaxErrorf("invalid username %q", payload)
	}
	return payload, nil
}

// decodeInt implements the shared KEY_ID/CONFIRMATION grammar: an optionally
// signed decimal integer, length-capped, range-checked after parsing. Range
// violations are numberFormatError, not SyntaxError — the caller (the
// Authenticator) is responsible for remapping that per spec §4.5.
func decodeInt(record []byte, maxLen int, lo, hi int) (int, error) {
	payload, err := stripSentinel(record)
	if err != nil {
		return 0, err
	}
	if len(payload) == 0 || len(payload) > maxLen || !intPattern.MatchString(payload) {
		return 0, syntaxErrorf("invalid integer field %q", payload)
	}
	n, err := strconv.Atoi(payload)
	if err != nil {
		return 0, syntaxErrorf("invalid integer field %q", payload)
	}
	if n < lo || n > hi {
		return 0, numberFormatErrorf("integer field %d out of range [%d, %d]", n, lo, hi)
	}
	return n, nil
}

// DecodeKeyID validates a KEY_ID record: up to 3 digits, value in [0, 999].
func (Codec) DecodeKeyID(record []byte) (int, error) {
	return decodeInt(record, maxKeyID, 0, 999)
}

// DecodeConfirmation validates a CONFIRMATION record: up to 5 digits, value
// in [0, 0xFFFF].
func (Codec) DecodeConfirmation(record []byte) (int, error) {
	return decodeInt(record, maxConfirmation, 0, 0xFFFF)
}

// DecodeOKPosition validates an OK_POSITION record: "OK <x> <y>".
func (Codec) DecodeOKPosition(record []byte) (Coord, error) {
	payload, err := stripSentinel(record)
	if err != nil {
		return Coord{}, err
	}
	if len(payload) > maxOKPosition {
		return Coord{}, syntaxErrorf("invalid OK position %q", payload)
	}
	m := okPattern.FindStringSubmatch(payload)
	if m == nil {
		return Coord{}, syntaxErrorf("invalid OK position %q", payload)
	}
	x, err := strconv.Atoi(m[1])
	if err != nil {
		return Coord{}, syntaxErrorf("invalid OK position %q", payload)
	}
	y, err := strconv.Atoi(m[2])
	if err != nil {
		return Coord{}, syntaxErrorf("invalid OK position %q", payload)
	}
	return Coord{X: int32(x), Y: int32(y)}, nil
}

// DecodeMessage validates a MESSAGE record: non-empty ASCII up to 98 bytes.
func (Codec) DecodeMessage(record []byte) (string, error) {
	payload, err := stripSentinel(record)
	if err != nil {
		return "", err
	}
	if len(payload) == 0 || len(payload) > maxMessage || !isASCII(payload) {
		return "", syntaxErrorf("invalid message %q", payload)
	}
	return payload, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// EncodeConfirmation formats a CONFIRMATION record's payload: decimal, no
// padding, no sign (the value is always non-negative per spec §3).
func (Codec) EncodeConfirmation(value uint16) string {
	return strconv.Itoa(int(value))
}
