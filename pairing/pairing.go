// Package pairing establishes an authenticated, encrypted session on top
// of any byte stream: a passphrase-authenticated nonce handshake derives
// a per-session key, which then seals every read and write in
// ChaCha20-Poly1305 frames. It runs over the serial link between the
// desktop client and the microcontroller, or over any other transport
// that exposes io.ReadWriteCloser.
package pairing

import (
	"bytes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	handshakeMagic   = "IPX1\x00"
	nonceSize        = 32
	authContext      = "inputproxy-pairing-v1"
	sessionContext   = "inputproxy-session-v1"
	pbkdf2Iterations = 100000
	pbkdf2Salt       = "inputproxy-pairing-salt-v1"
	maxFrameSize     = 64 * 1024
)

// deriveKey stretches the shared passphrase into a 32-byte key.
func deriveKey(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("pairing: passphrase cannot be empty")
	}
	return pbkdf2.Key(sha256.New, passphrase, []byte(pbkdf2Salt), pbkdf2Iterations, 32)
}

// deriveSessionKey mixes the long-term key with both nonces so every
// paired session uses a distinct ChaCha20-Poly1305 key even when the
// passphrase never changes.
func deriveSessionKey(key, nonceA, nonceB []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(nonceA)
	h.Write(nonceB)
	h.Write([]byte(sessionContext))
	return h.Sum(nil)
}

// WrapClient performs the client side of the pairing handshake over conn
// and returns a stream that transparently encrypts and authenticates
// everything written and read through it.
func WrapClient(conn io.ReadWriteCloser, passphrase string) (io.ReadWriteCloser, error) {
	key, err := deriveKey(passphrase)
	if err != nil {
		return nil, err
	}

	clientNonce := make([]byte, nonceSize)
	if _, err := rand.Read(clientNonce); err != nil {
		return nil, fmt.Errorf("pairing: generate client nonce: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(authContext))
	mac.Write(clientNonce)
	clientAuth := mac.Sum(nil)

	msg := append([]byte(handshakeMagic), clientNonce...)
	msg = append(msg, clientAuth...)
	if _, err := conn.Write(msg); err != nil {
		return nil, fmt.Errorf("pairing: write handshake: %w", err)
	}

	respPrefix := make([]byte, 3)
	if _, err := io.ReadFull(conn, respPrefix); err != nil {
		return nil, fmt.Errorf("pairing: read handshake response: %w", err)
	}
	if string(respPrefix) != "OK\x00" {
		return nil, errors.New("pairing: server rejected handshake")
	}

	serverNonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(conn, serverNonce); err != nil {
		return nil, fmt.Errorf("pairing: read server nonce: %w", err)
	}

	sessionKey := deriveSessionKey(key, serverNonce, clientNonce)
	return wrap(conn, sessionKey)
}

// WrapServer performs the server side of the pairing handshake over conn,
// verifying the peer knows passphrase before returning an encrypted
// stream. A bad magic and a bad passphrase are rejected with the same
// error, so the error does not reveal whether a bad attempt reached
// authentication at all; on a bad passphrase the client is sent a
// non-OK response so that its side fails too.
func WrapServer(conn io.ReadWriteCloser, passphrase string) (io.ReadWriteCloser, error) {
	key, err := deriveKey(passphrase)
	if err != nil {
		return nil, err
	}

	magic := make([]byte, len(handshakeMagic))
	if _, err := io.ReadFull(conn, magic); err != nil {
		return nil, fmt.Errorf("pairing: read handshake magic: %w", err)
	}
	if string(magic) != handshakeMagic {
		return nil, errors.New("pairing: handshake rejected")
	}

	clientNonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(conn, clientNonce); err != nil {
		return nil, fmt.Errorf("pairing: read client nonce: %w", err)
	}

	clientAuth := make([]byte, sha256.Size)
	if _, err := io.ReadFull(conn, clientAuth); err != nil {
		return nil, fmt.Errorf("pairing: read client auth: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(authContext))
	mac.Write(clientNonce)
	expectedAuth := mac.Sum(nil)
	if !hmac.Equal(clientAuth, expectedAuth) {
		_, _ = conn.Write([]byte("NO\x00"))
		return nil, errors.New("pairing: handshake rejected")
	}

	serverNonce := make([]byte, nonceSize)
	if _, err := rand.Read(serverNonce); err != nil {
		return nil, fmt.Errorf("pairing: generate server nonce: %w", err)
	}
	response := append([]byte("OK\x00"), serverNonce...)
	if _, err := conn.Write(response); err != nil {
		return nil, fmt.Errorf("pairing: write handshake response: %w", err)
	}

	sessionKey := deriveSessionKey(key, serverNonce, clientNonce)
	return wrap(conn, sessionKey)
}

// sessionConn seals every Write and opens every Read as one AEAD frame:
// a 4-byte big-endian length prefix, a 12-byte nonce (a per-sender
// counter in the low 8 bytes), then the sealed ciphertext.
type sessionConn struct {
	io.ReadWriteCloser
	aead    cipher.AEAD
	sendCtr uint64
	recvBuf bytes.Buffer
	mu      sync.Mutex
}

func wrap(conn io.ReadWriteCloser, sessionKey []byte) (io.ReadWriteCloser, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("pairing: init aead: %w", err)
	}
	return &sessionConn{ReadWriteCloser: conn, aead: aead}, nil
}

func (s *sessionConn) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce := make([]byte, 12)
	binary.BigEndian.PutUint64(nonce[4:], s.sendCtr)
	s.sendCtr++

	ct := s.aead.Seal(nil, nonce, p, nil)
	length := uint32(len(nonce) + len(ct))

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], length)

	if _, err := s.ReadWriteCloser.Write(hdr[:]); err != nil {
		return 0, err
	}
	if _, err := s.ReadWriteCloser.Write(nonce); err != nil {
		return 0, err
	}
	if _, err := s.ReadWriteCloser.Write(ct); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *sessionConn) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recvBuf.Len() == 0 {
		var hdr [4]byte
		if _, err := io.ReadFull(s.ReadWriteCloser, hdr[:]); err != nil {
			return 0, err
		}
		length := binary.BigEndian.Uint32(hdr[:])
		if length > maxFrameSize {
			return 0, io.ErrUnexpectedEOF
		}

		pkt := make([]byte, length)
		if _, err := io.ReadFull(s.ReadWriteCloser, pkt); err != nil {
			return 0, err
		}
		if len(pkt) < 12 {
			return 0, io.ErrUnexpectedEOF
		}
		nonce, ct := pkt[:12], pkt[12:]

		pt, err := s.aead.Open(nil, nonce, ct, nil)
		if err != nil {
			return 0, fmt.Errorf("pairing: decrypt frame: %w", err)
		}
		s.recvBuf.Write(pt)
	}
	return s.recvBuf.Read(p)
}
