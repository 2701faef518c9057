package robot

import "time"

// SecretReceiver runs the one-shot pickup/logout exchange of spec §4.7.
type SecretReceiver struct {
	reader Reader
	writer *Writer
	codec  Codec
}

// NewSecretReceiver builds a SecretReceiver over reader/writer.
func NewSecretReceiver(reader Reader, writer *Writer) *SecretReceiver {
	return &SecretReceiver{reader: reader, writer: writer, codec: Codec{}}
}

// Receive sends PICK_UP, reads the MESSAGE reply, and on success sends
// LOGOUT and returns the message payload. Any read/parse error is surfaced
// for the Session Controller to map to a wire reply (spec §4.7).
func (s *SecretReceiver) Receive(timeout time.Duration) (string, error) {
	if err := s.writer.WriteRecord(outPickUp); err != nil {
		return "", err
	}

	record, err := s.reader.Read(maxMessage, timeout)
	if err != nil {
		return "", err
	}
	message, err := s.codec.DecodeMessage(record)
	if err != nil {
		return "", err
	}

	if err := s.writer.WriteRecord(outLogout); err != nil {
		return "", err
	}
	return message, nil
}
