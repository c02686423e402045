package auth

import (
	"encoding/binary"
	"io"
)

// writeUTF and readUTF mirror the wire shape of Java's
// DataOutputStream.writeUTF / DataInputStream.readUTF for the ASCII-range
// strings this store deals in: a 2-byte big-endian byte-length prefix
// followed by the raw bytes.
func writeUTF(w io.Writer, s string) error {
	b := []byte(s)
	if err := binary.Write(w, binary.BigEndian, uint16(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readUTF(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeSalt(w io.Writer, salt []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(salt))); err != nil {
		return err
	}
	_, err := w.Write(salt)
	return err
}

func readSalt(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	salt := make([]byte, n)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, err
	}
	return salt, nil
}
