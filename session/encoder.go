package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// CurrentSchemaVersion is the leading byte written by Encode.
const CurrentSchemaVersion = 1

var errUnsupportedSchema = errors.New("unsupported session schema version")

// Encode serializes s (without its token, which is the key) into the compact
// binary layout stored in Redis:
//
//	version(1) | user_id(8) | len(1) username | len(1) email | login_time(8) | expires_at(8)
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(1 + 8 + 2 + len(s.Username) + len(s.Email) + 16)

	buf.WriteByte(CurrentSchemaVersion)

	if err := binary.Write(&buf, binary.BigEndian, s.UserID); err != nil {
		return nil, err
	}

	if len(s.Username) > 255 {
		return nil, errors.New("username too long")
	}
	buf.WriteByte(byte(len(s.Username)))
	buf.WriteString(s.Username)

	if len(s.Email) > 255 {
		return nil, errors.New("email too long")
	}
	buf.WriteByte(byte(len(s.Email)))
	buf.WriteString(s.Email)

	if err := binary.Write(&buf, binary.BigEndian, s.LoginTime.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode. The returned session has no token.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: %d", errUnsupportedSchema, version)
	}

	s := &Session{}
	if err := binary.Read(reader, binary.BigEndian, &s.UserID); err != nil {
		return nil, err
	}

	if s.Username, err = readShortString(reader); err != nil {
		return nil, err
	}
	if s.Email, err = readShortString(reader); err != nil {
		return nil, err
	}

	var loginUnix, expiresUnix int64
	if err := binary.Read(reader, binary.BigEndian, &loginUnix); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresUnix); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing session bytes")
	}

	s.LoginTime = time.Unix(loginUnix, 0)
	s.ExpiresAt = time.Unix(expiresUnix, 0)
	return s, nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
