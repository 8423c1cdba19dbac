package rpc

import (
	"fmt"
	"reflect"
	"strconv"
)

var futureInternalType = reflect.TypeOf((*futureInternal)(nil)).Elem()

// handlerFunc is the normalized shape of a dispatched server-side method: it
// receives the raw call payload and, if it wants to reply, calls reply.
// reply may be invoked asynchronously (Future-returning methods) or not at
// all (void methods).
type handlerFunc func(payload []byte, reply func(payload []byte, variable bool))

// fieldMethodID returns the method ID for a struct field: the value of an
// `rpc:"n"` tag if present, otherwise the field's ordinal position in
// declaration order. Both sides of a provider only agree if they use the
// same struct definition (or at least the same tags), per the fabric's
// compile-time reflection contract.
func fieldMethodID(field reflect.StructField, ordinal int) uint16 {
	if tag, ok := field.Tag.Lookup("rpc"); ok {
		if n, err := strconv.ParseUint(tag, 10, 16); err == nil {
			return uint16(n)
		}
	}
	return uint16(ordinal)
}

// RegisterServer inspects provider (a pointer to a struct of function
// fields) and registers each field as a handler for providerID. A field's
// method ID is taken from its `rpc:"n"` struct tag if present, otherwise its
// index in declaration order, mirroring the stable ordinal a compile-time
// reflection pass assigns in the source this pattern is drawn from.
func (m *Manager) RegisterServer(providerID uint16, provider any) error {
	v := reflect.ValueOf(provider)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("rpc: RegisterServer wants a pointer to a struct, got %T", provider)
	}
	v = v.Elem()
	t := v.Type()

	var methodIDs []uint16
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		if fv.Kind() != reflect.Func || fv.IsNil() {
			return fmt.Errorf("rpc: RegisterServer: field %s is not a populated function", field.Name)
		}
		methodID := fieldMethodID(field, i)
		h := buildServerHandler(fv)

		m.mu.Lock()
		m.serverHandlers[key(providerID, methodID)] = h
		m.mu.Unlock()
		methodIDs = append(methodIDs, methodID)
	}

	m.mu.Lock()
	m.serverMethods[providerID] = methodIDs
	m.mu.Unlock()
	return nil
}

// DeregisterServer removes every handler previously registered for
// providerID.
func (m *Manager) DeregisterServer(providerID uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, methodID := range m.serverMethods[providerID] {
		delete(m.serverHandlers, key(providerID, methodID))
	}
	delete(m.serverMethods, providerID)
}

func buildServerHandler(fn reflect.Value) handlerFunc {
	ft := fn.Type()
	numIn := ft.NumIn()

	return func(payload []byte, reply func([]byte, bool)) {
		args, err := DecodeArgsTable(payload, numIn)
		if err != nil {
			return
		}
		in := make([]reflect.Value, numIn)
		for i := 0; i < numIn; i++ {
			rv, err := decodeReflectValue(ft.In(i), args[i])
			if err != nil {
				return
			}
			in[i] = rv
		}

		out := fn.Call(in)
		if ft.NumOut() == 0 || reply == nil {
			return
		}

		result := out[0]
		if ft.Out(0).Implements(futureInternalType) {
			fut := result.Interface().(futureInternal)
			variable := fut.isVariable()
			fut.onCompleteBytes(func(payload []byte) {
				if variable {
					reply(payload, true)
				} else {
					reply(payload, false)
				}
			})
			return
		}

		payloadOut, variable, err := encodeReflectValue(result)
		if err != nil {
			return
		}
		reply(payloadOut, variable)
	}
}

// NewClient populates client (a pointer to a struct of function fields) with
// synthesized functions that issue calls against providerID over this
// Manager. Each field's call semantics are derived from its signature: no
// return value fires-and-forgets, a Future[T] return issues a non-blocking
// call, and any other single return value blocks for the matching reply.
func (m *Manager) NewClient(providerID uint16, client any) error {
	v := reflect.ValueOf(client)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("rpc: NewClient wants a pointer to a struct, got %T", client)
	}
	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		if fv.Kind() != reflect.Func {
			return fmt.Errorf("rpc: NewClient: field %s is not a function type", field.Name)
		}
		methodID := fieldMethodID(field, i)
		fv.Set(m.buildClientFunc(providerID, methodID, fv.Type()))
	}
	return nil
}

func (m *Manager) buildClientFunc(providerID, methodID uint16, ft reflect.Type) reflect.Value {
	return reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		argBytes := make([][]byte, len(args))
		for i, a := range args {
			b, _, err := encodeReflectValue(a)
			if err != nil {
				m.reportError(Error{Kind: ArgumentsTooLarge, ProviderID: providerID, MethodID: methodID, Err: err})
				return zeroResults(ft)
			}
			argBytes[i] = b
		}
		payload := EncodeArgsTable(argBytes)
		if len(payload) > MaxPayloadLength {
			m.reportError(Error{Kind: ArgumentsTooLarge, ProviderID: providerID, MethodID: methodID})
			return zeroResults(ft)
		}

		if ft.NumOut() == 0 {
			m.sendRequest(providerID, methodID, 0, payload)
			return nil
		}

		outType := ft.Out(0)
		if outType.Implements(futureInternalType) {
			futVal := reflect.New(outType.Elem()).Elem()
			addrFut := futVal.Addr()
			fut := addrFut.Interface().(futureInternal)

			callID := m.nextCallID()
			timeout := m.effectiveTimeout(providerID, methodID)
			m.registerPendingCall(callID, timeout,
				func(payload []byte) {
					if err := fut.resolveBytes(payload); err != nil {
						fut.Fail(err)
					}
				},
				func() {
					fut.Fail(Error{Kind: Timeout, ProviderID: providerID, MethodID: methodID, CallID: callID})
				},
			)
			if !m.sendRequest(providerID, methodID, callID, payload) {
				m.cancelPendingCall(callID)
				fut.Fail(Error{Kind: PayloadTooLarge, ProviderID: providerID, MethodID: methodID, CallID: callID})
			}
			return []reflect.Value{addrFut}
		}

		callID := m.nextCallID()
		timeout := m.effectiveTimeout(providerID, methodID)
		done := make(chan struct{})
		var resultVal reflect.Value
		var callErr error
		m.registerPendingCall(callID, timeout,
			func(payload []byte) {
				rv, err := decodeReplyValue(outType, payload)
				resultVal, callErr = rv, err
				close(done)
			},
			func() {
				callErr = Error{Kind: Timeout, ProviderID: providerID, MethodID: methodID, CallID: callID}
				close(done)
			},
		)
		if !m.sendRequest(providerID, methodID, callID, payload) {
			m.cancelPendingCall(callID)
			m.reportError(Error{Kind: PayloadTooLarge, ProviderID: providerID, MethodID: methodID, CallID: callID})
			return zeroResults(ft)
		}
		<-done
		if callErr != nil {
			m.reportError(toError(callErr, providerID, methodID, callID))
			return zeroResults(ft)
		}
		return []reflect.Value{resultVal}
	})
}

func toError(err error, providerID, methodID uint16, callID uint32) Error {
	if e, ok := err.(Error); ok {
		return e
	}
	return Error{Kind: InvalidPacketLength, ProviderID: providerID, MethodID: methodID, CallID: callID, Err: err}
}

func zeroResults(ft reflect.Type) []reflect.Value {
	out := make([]reflect.Value, ft.NumOut())
	for i := range out {
		out[i] = reflect.Zero(ft.Out(i))
	}
	return out
}
