package rpc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigcore/inputproxy/rpc"
)

// loopback wires two managers' frame filters directly together, as if
// connected by a perfect transport, for in-process call testing.
func loopback(t *testing.T) (client, server *rpc.Manager) {
	t.Helper()
	client = rpc.NewManager(rpc.Config{})
	server = rpc.NewManager(rpc.Config{})

	client.AddOutputFilter(rpc.NewFrameOutputFilter())
	server.AddInputFilter(rpc.NewFrameInputFilter())
	client.OnSend(func(b []byte) { server.ProcessInput(b) })

	server.AddOutputFilter(rpc.NewFrameOutputFilter())
	client.AddInputFilter(rpc.NewFrameInputFilter())
	server.OnSend(func(b []byte) { client.ProcessInput(b) })

	return client, server
}

type addProvider struct {
	Add func(a, b int32) int32
}

func TestManagerFixedSizeCallRoundTrip(t *testing.T) {
	client, server := loopback(t)

	impl := &addProvider{Add: func(a, b int32) int32 { return a + b }}
	require.NoError(t, server.RegisterServer(1, impl))

	var stub addProvider
	require.NoError(t, client.NewClient(1, &stub))

	assert.EqualValues(t, 7, stub.Add(3, 4))
}

type echoProvider struct {
	Upper func(s string) string
}

func TestManagerVariableLengthCallRoundTrip(t *testing.T) {
	client, server := loopback(t)

	impl := &echoProvider{Upper: func(s string) string {
		out := make([]byte, len(s))
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			out[i] = c
		}
		return string(out)
	}}
	require.NoError(t, server.RegisterServer(2, impl))

	var stub echoProvider
	require.NoError(t, client.NewClient(2, &stub))

	assert.Equal(t, "HELLO VIIPER", stub.Upper("hello viiper"))
}

type notifyProvider struct {
	Notify func(msg string)
}

func TestManagerFireAndForgetDoesNotBlock(t *testing.T) {
	client, server := loopback(t)

	received := make(chan string, 1)
	impl := &notifyProvider{Notify: func(msg string) { received <- msg }}
	require.NoError(t, server.RegisterServer(3, impl))

	var stub notifyProvider
	require.NoError(t, client.NewClient(3, &stub))

	stub.Notify("ping")
	select {
	case msg := <-received:
		assert.Equal(t, "ping", msg)
	case <-time.After(time.Second):
		t.Fatal("notify never arrived")
	}
}

type asyncProvider struct {
	Compute func(x int32) *rpc.Future[int32]
}

func TestManagerAsyncFutureCallRoundTrip(t *testing.T) {
	client, server := loopback(t)

	impl := &asyncProvider{Compute: func(x int32) *rpc.Future[int32] {
		fut := &rpc.Future[int32]{}
		go func() {
			time.Sleep(time.Millisecond)
			fut.Resolve(x * 2)
		}()
		return fut
	}}
	require.NoError(t, server.RegisterServer(4, impl))

	var stub asyncProvider
	require.NoError(t, client.NewClient(4, &stub))

	fut := stub.Compute(21)
	val, err := fut.Wait()
	require.NoError(t, err)
	assert.EqualValues(t, 42, val)
}

func TestManagerNoHandlerReportsErrorAndTimesOut(t *testing.T) {
	client, server := loopback(t)
	client.SetDefaultTimeout(20 * time.Millisecond)

	var serverErrs []rpc.Error
	server.OnError(func(e rpc.Error) { serverErrs = append(serverErrs, e) })

	var stub addProvider
	require.NoError(t, client.NewClient(9, &stub))

	assert.EqualValues(t, 0, stub.Add(1, 1))

	require.Len(t, serverErrs, 1)
	assert.Equal(t, rpc.NoHandler, serverErrs[0].Kind)
}

func TestManagerUnexpectedCallIDReportsError(t *testing.T) {
	_, server := loopback(t)

	var errs []rpc.Error
	server.OnError(func(e rpc.Error) { errs = append(errs, e) })

	header := rpc.PacketHeader{ProviderID: 1, MethodID: 0, Flags: rpc.FlagReply, CallID: 12345}
	packet, err := rpc.EncodePacket(header, nil)
	require.NoError(t, err)

	framed := rpc.NewFrameOutputFilter().Apply(packet)
	require.Len(t, framed, 1)
	server.ProcessInput(framed[0])

	require.Len(t, errs, 1)
	assert.Equal(t, rpc.UnexpectedCallID, errs[0].Kind)
}

func TestManagerArgumentsTooLargeReportsErrorWithoutSending(t *testing.T) {
	client, _ := loopback(t)

	var errs []rpc.Error
	client.OnError(func(e rpc.Error) { errs = append(errs, e) })

	type bigArg struct {
		Send func(data string)
	}
	var stub bigArg
	require.NoError(t, client.NewClient(5, &stub))

	stub.Send(string(make([]byte, rpc.MaxPayloadLength+100)))

	require.Len(t, errs, 1)
	assert.Equal(t, rpc.ArgumentsTooLarge, errs[0].Kind)
}
