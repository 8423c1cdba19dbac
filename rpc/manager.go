// Package rpc implements the packet fabric riding inside framed byte
// streams: providers are plain structs of typed function fields, filled in
// as callable handlers on one side and synthesized into calling stubs on
// the other via reflection, with no generated glue code on either side.
package rpc

import (
	"sync"
	"sync/atomic"
	"time"
)

// Config controls a Manager's default behavior.
type Config struct {
	// DefaultTimeout is applied to calls with no method-specific timeout.
	// Zero means calls never time out unless SetMethodTimeout says
	// otherwise.
	DefaultTimeout time.Duration
}

type pendingCall struct {
	mu        sync.Mutex
	done      bool
	timer     *time.Timer
	onReply   func(payload []byte)
	onTimeout func()
}

// Manager is the RPC fabric: it dispatches incoming packets to registered
// server handlers, tracks outstanding client calls, and drives outgoing
// packets through a chain of output filters to a transport sink.
type Manager struct {
	mu sync.Mutex

	serverHandlers map[uint32]handlerFunc
	serverMethods  map[uint16][]uint16

	pendingCalls map[uint32]*pendingCall
	callIDSeq    uint32

	defaultTimeout time.Duration
	methodTimeouts map[uint32]time.Duration

	inputFilters  []Filter
	outputFilters []Filter

	onSend    func([]byte)
	onSendPkt func(PacketHeader) bool
	onRecvPkt func(PacketHeader) bool
	onError   func(Error)
}

// NewManager constructs a Manager with no filters and no registered
// providers; call AddInputFilter/AddOutputFilter and RegisterServer/
// NewClient to wire it up.
func NewManager(cfg Config) *Manager {
	return &Manager{
		serverHandlers: make(map[uint32]handlerFunc),
		serverMethods:  make(map[uint16][]uint16),
		pendingCalls:   make(map[uint32]*pendingCall),
		defaultTimeout: cfg.DefaultTimeout,
		methodTimeouts: make(map[uint32]time.Duration),
	}
}

// AddInputFilter appends f to the chain applied to bytes arriving via
// ProcessInput, in call order.
func (m *Manager) AddInputFilter(f Filter) { m.inputFilters = append(m.inputFilters, f) }

// AddOutputFilter appends f to the chain applied to outgoing packets before
// OnSend is invoked, in call order.
func (m *Manager) AddOutputFilter(f Filter) { m.outputFilters = append(m.outputFilters, f) }

// OnSend registers the sink that receives fully-filtered outgoing bytes
// (typically a transport write).
func (m *Manager) OnSend(cb func([]byte)) { m.onSend = cb }

// OnSendPacketHook registers a veto hook run before a packet is filtered and
// sent; returning false drops the packet silently.
func (m *Manager) OnSendPacketHook(hook func(PacketHeader) bool) { m.onSendPkt = hook }

// OnReceivePacketHook registers a veto hook run after a packet is decoded
// but before dispatch; returning false drops the packet silently.
func (m *Manager) OnReceivePacketHook(hook func(PacketHeader) bool) { m.onRecvPkt = hook }

// OnError registers the sink that receives fabric-level errors (no
// handler, timeout, malformed packet, and so on).
func (m *Manager) OnError(cb func(Error)) { m.onError = cb }

// SetDefaultTimeout sets the timeout applied when no method-specific
// timeout is configured.
func (m *Manager) SetDefaultTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultTimeout = d
}

// SetMethodTimeout overrides the timeout for a specific provider/method
// pair.
func (m *Manager) SetMethodTimeout(providerID, methodID uint16, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methodTimeouts[key(providerID, methodID)] = d
}

// ClearMethodTimeout removes a method-specific timeout override, reverting
// to the default.
func (m *Manager) ClearMethodTimeout(providerID, methodID uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.methodTimeouts, key(providerID, methodID))
}

func (m *Manager) effectiveTimeout(providerID, methodID uint16) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.methodTimeouts[key(providerID, methodID)]; ok {
		return d
	}
	return m.defaultTimeout
}

func (m *Manager) reportError(e Error) {
	if m.onError != nil {
		m.onError(e)
	}
}

func (m *Manager) nextCallID() uint32 {
	return atomic.AddUint32(&m.callIDSeq, 1)
}

// ProcessInput feeds raw bytes (as received from a transport) through the
// input filter chain and dispatches every packet that emerges.
func (m *Manager) ProcessInput(data []byte) {
	cur := [][]byte{data}
	for _, f := range m.inputFilters {
		var next [][]byte
		for _, chunk := range cur {
			next = append(next, f.Apply(chunk)...)
		}
		cur = next
	}
	for _, packet := range cur {
		m.dispatchPacket(packet)
	}
}

func (m *Manager) dispatchPacket(data []byte) {
	header, payload, err := DecodePacket(data)
	if err != nil {
		m.reportError(Error{Kind: InvalidPacketLength, Err: err})
		return
	}
	if m.onRecvPkt != nil && !m.onRecvPkt(header) {
		return
	}
	if header.IsReply() {
		m.handleReply(header, payload)
		return
	}
	m.handleRequest(header, payload)
}

func (m *Manager) handleRequest(header PacketHeader, payload []byte) {
	m.mu.Lock()
	h, ok := m.serverHandlers[key(header.ProviderID, header.MethodID)]
	m.mu.Unlock()
	if !ok {
		m.reportError(Error{Kind: NoHandler, ProviderID: header.ProviderID, MethodID: header.MethodID, CallID: header.CallID})
		return
	}

	var reply func([]byte, bool)
	if header.CallID != 0 {
		reply = func(payload []byte, variable bool) {
			out := payload
			if variable {
				out = encodeVariableBytes(payload)
			}
			m.sendReply(header.ProviderID, header.MethodID, header.CallID, out)
		}
	}
	h(payload, reply)
}

func (m *Manager) handleReply(header PacketHeader, payload []byte) {
	m.mu.Lock()
	pc, ok := m.pendingCalls[header.CallID]
	if ok {
		delete(m.pendingCalls, header.CallID)
	}
	m.mu.Unlock()
	if !ok {
		m.reportError(Error{Kind: UnexpectedCallID, ProviderID: header.ProviderID, MethodID: header.MethodID, CallID: header.CallID})
		return
	}

	pc.mu.Lock()
	if pc.done {
		pc.mu.Unlock()
		return
	}
	pc.done = true
	if pc.timer != nil {
		pc.timer.Stop()
	}
	pc.mu.Unlock()

	pc.onReply(payload)
}

func (m *Manager) registerPendingCall(callID uint32, timeout time.Duration, onReply func([]byte), onTimeout func()) {
	pc := &pendingCall{onReply: onReply, onTimeout: onTimeout}

	m.mu.Lock()
	m.pendingCalls[callID] = pc
	m.mu.Unlock()

	if timeout > 0 {
		pc.timer = time.AfterFunc(timeout, func() {
			m.mu.Lock()
			if cur, ok := m.pendingCalls[callID]; ok && cur == pc {
				delete(m.pendingCalls, callID)
			} else {
				m.mu.Unlock()
				return
			}
			m.mu.Unlock()

			pc.mu.Lock()
			if pc.done {
				pc.mu.Unlock()
				return
			}
			pc.done = true
			pc.mu.Unlock()

			pc.onTimeout()
		})
	}
}

func (m *Manager) cancelPendingCall(callID uint32) {
	m.mu.Lock()
	pc, ok := m.pendingCalls[callID]
	if ok {
		delete(m.pendingCalls, callID)
	}
	m.mu.Unlock()
	if ok && pc.timer != nil {
		pc.timer.Stop()
	}
}

// sendRequest builds and emits a non-reply packet. It returns false if the
// packet could not be built (payload too large) without sending anything.
func (m *Manager) sendRequest(providerID, methodID uint16, callID uint32, payload []byte) bool {
	return m.send(PacketHeader{ProviderID: providerID, MethodID: methodID, CallID: callID}, payload)
}

func (m *Manager) sendReply(providerID, methodID uint16, callID uint32, payload []byte) {
	if !m.send(PacketHeader{ProviderID: providerID, MethodID: methodID, Flags: FlagReply, CallID: callID}, payload) {
		m.reportError(Error{Kind: PayloadTooLarge, ProviderID: providerID, MethodID: methodID, CallID: callID})
	}
}

func (m *Manager) send(header PacketHeader, payload []byte) bool {
	packet, err := EncodePacket(header, payload)
	if err != nil {
		return false
	}
	if m.onSendPkt != nil && !m.onSendPkt(header) {
		return true
	}

	cur := [][]byte{packet}
	for _, f := range m.outputFilters {
		var next [][]byte
		for _, chunk := range cur {
			next = append(next, f.Apply(chunk)...)
		}
		cur = next
	}
	if m.onSend != nil {
		for _, chunk := range cur {
			m.onSend(chunk)
		}
	}
	return true
}
