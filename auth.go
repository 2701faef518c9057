package robot

import "time"

// hashModulo is the modulus used for both the username hash and the
// challenge-response encoding (spec §4.5).
const hashModulo = 0x10000

// Authenticator runs the challenge-response sub-protocol of spec §4.5. It
// holds no state across calls; each Authenticate call drives exactly one
// session's login exchange.
type Authenticator struct {
	reader  Reader
	writer  *Writer
	codec   Codec
	keys    map[int]KeyPair
	onState func(SessionState)
}

// NewAuthenticator builds an Authenticator over reader/writer, authorized
// against the given key table. onState, if non-nil, is invoked at each of
// the sub-protocol's named states (spec §4.8's SessionState machine) so the
// Session Controller can log/observe the finer-grained steps this bundled
// exchange performs internally.
func NewAuthenticator(reader Reader, writer *Writer, keys map[int]KeyPair, onState func(SessionState)) *Authenticator {
	if onState == nil {
		onState = func(SessionState) {}
	}
	return &Authenticator{reader: reader, writer: writer, codec: Codec{}, keys: keys, onState: onState}
}

// Authenticate runs the full login exchange. Any SyntaxError propagates
// unchanged; a KEY_ID numeric-format error is surfaced as KindKeyOutOfRange
// and a CONFIRMATION numeric-format error as KindLoginFail — a deliberate
// protocol-level remapping (spec §4.5), not a pass-through of the Codec's
// internal numberFormatError.
func (a *Authenticator) Authenticate(timeout time.Duration) (username string, err error) {
	a.onState(StateReadingUsername)
	username, err = a.readUsername(timeout)
	if err != nil {
		return "", err
	}

	if err := a.writer.WriteRecord(outKeyRequest); err != nil {
		return "", err
	}

	a.onState(StateReadingKeyID)
	keyPair, err := a.readKeyID(timeout)
	if err != nil {
		return "", err
	}

	nameHash := hashUsername(username)

	a.onState(StateSendingChallenge)
	if err := a.sendServerConfirmation(nameHash, keyPair.ServerKey); err != nil {
		return "", err
	}

	a.onState(StateAwaitingClientConfirmation)
	if err := a.readClientConfirmation(timeout, nameHash, keyPair.ClientKey); err != nil {
		return "", err
	}

	if err := a.writer.WriteRecord(outOK); err != nil {
		return "", err
	}

	return username, nil
}

func (a *Authenticator) readUsername(timeout time.Duration) (string, error) {
	record, err := a.reader.Read(maxUsername, timeout)
	if err != nil {
		return "", err
	}
	return a.codec.DecodeUsername(record)
}

func (a *Authenticator) readKeyID(timeout time.Duration) (KeyPair, error) {
	record, err := a.reader.Read(maxKeyID, timeout)
	if err != nil {
		return KeyPair{}, err
	}
	keyID, err := a.codec.DecodeKeyID(record)
	if err != nil {
		if _, ok := err.(*numberFormatError); ok {
			return KeyPair{}, keyOutOfRangef("key id out of range: %v", err)
		}
		return KeyPair{}, err
	}
	keyPair, ok := a.keys[keyID]
	if !ok {
		return KeyPair{}, keyOutOfRangef("key id %d not in table", keyID)
	}
	return keyPair, nil
}

func (a *Authenticator) sendServerConfirmation(nameHash int, serverKey uint16) error {
	encoded := encodeHash(nameHash, serverKey)
	return a.writer.Write([]byte(a.codec.EncodeConfirmation(encoded)))
}

func (a *Authenticator) readClientConfirmation(timeout time.Duration, nameHash int, clientKey uint16) error {
	record, err := a.reader.Read(maxConfirmation, timeout)
	if err != nil {
		return err
	}
	confirmation, err := a.codec.DecodeConfirmation(record)
	if err != nil {
		if _, ok := err.(*numberFormatError); ok {
			return loginFailf("confirmation not a valid number: %v", err)
		}
		return err
	}
	if decodeHash(confirmation, clientKey) != nameHash {
		return loginFailf("confirmation hash mismatch")
	}
	return nil
}

// hashUsername is the sum of ASCII ordinals of username, scaled by 1000,
// reduced mod 65536 (spec §4.5).
func hashUsername(username string) int {
	sum := 0
	for i := 0; i < len(username); i++ {
		sum += int(username[i])
	}
	return mod(sum*1000, hashModulo)
}

func encodeHash(nameHash int, serverKey uint16) uint16 {
	return uint16(mod(nameHash+int(serverKey), hashModulo))
}

func decodeHash(value int, clientKey uint16) int {
	return mod(value-int(clientKey), hashModulo)
}

func mod(n, m int) int {
	n %= m
	if n < 0 {
		n += m
	}
	return n
}
