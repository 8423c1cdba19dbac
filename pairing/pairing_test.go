package pairing

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapClientServerRoundTripsPlaintext(t *testing.T) {
	clientConn, serverConn := net.Pipe()

	type result struct {
		conn io.ReadWriteCloser
		err  error
	}
	clientCh := make(chan result, 1)
	serverCh := make(chan result, 1)

	go func() {
		c, err := WrapClient(clientConn, "correct horse battery staple")
		clientCh <- result{c, err}
	}()
	go func() {
		c, err := WrapServer(serverConn, "correct horse battery staple")
		serverCh <- result{c, err}
	}()

	clientRes := <-clientCh
	serverRes := <-serverCh
	require.NoError(t, clientRes.err)
	require.NoError(t, serverRes.err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := clientRes.conn.Write([]byte("hello from client"))
		assert.NoError(t, err)
	}()

	buf := make([]byte, 64)
	n, err := serverRes.conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello from client", string(buf[:n]))
	<-done
}

func TestWrapServerRejectsWrongPassphrase(t *testing.T) {
	clientConn, serverConn := net.Pipe()

	serverErrCh := make(chan error, 1)
	go func() {
		_, err := WrapServer(serverConn, "correct horse battery staple")
		serverErrCh <- err
	}()

	_, clientErr := WrapClient(clientConn, "wrong passphrase entirely")
	assert.Error(t, clientErr)
	assert.Error(t, <-serverErrCh)
}

func TestDeriveKeyRejectsEmptyPassphrase(t *testing.T) {
	_, err := deriveKey("")
	assert.Error(t, err)
}

func TestDeriveSessionKeyDependsOnBothNonces(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	a := deriveSessionKey(key, []byte("nonceA"), []byte("nonceB"))
	b := deriveSessionKey(key, []byte("nonceA"), []byte("different"))
	assert.NotEqual(t, a, b)
}

func TestSuccessiveFramesDecryptInOrder(t *testing.T) {
	clientConn, serverConn := net.Pipe()

	clientCh := make(chan io.ReadWriteCloser, 1)
	serverCh := make(chan io.ReadWriteCloser, 1)
	go func() {
		c, _ := WrapClient(clientConn, "shared-secret")
		clientCh <- c
	}()
	go func() {
		c, _ := WrapServer(serverConn, "shared-secret")
		serverCh <- c
	}()
	client := <-clientCh
	server := <-serverCh
	require.NotNil(t, client)
	require.NotNil(t, server)

	go func() {
		client.Write([]byte("first"))
		client.Write([]byte("second"))
	}()

	buf := make([]byte, 64)
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "first", string(buf[:n]))

	n, err = server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "second", string(buf[:n]))
}
