package rpc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
)

// EncodeArgsTable packs a sequence of already-serialized arguments into the
// length-table wire format: an N-entry table of uint16 lengths followed by
// the concatenated argument bytes, in declaration order.
func EncodeArgsTable(args [][]byte) []byte {
	out := make([]byte, 2*len(args), 2*len(args)+sumLens(args))
	for i, a := range args {
		binary.LittleEndian.PutUint16(out[2*i:2*i+2], uint16(len(a)))
	}
	for _, a := range args {
		out = append(out, a...)
	}
	return out
}

func sumLens(args [][]byte) int {
	n := 0
	for _, a := range args {
		n += len(a)
	}
	return n
}

// DecodeArgsTable splits a length-table payload back into n argument slices.
func DecodeArgsTable(payload []byte, n int) ([][]byte, error) {
	if len(payload) < 2*n {
		return nil, fmt.Errorf("rpc: payload too short for %d-entry length table", n)
	}
	lens := make([]int, n)
	total := 2 * n
	for i := 0; i < n; i++ {
		l := int(binary.LittleEndian.Uint16(payload[2*i : 2*i+2]))
		lens[i] = l
		total += l
	}
	if total != len(payload) {
		return nil, fmt.Errorf("rpc: length table declares %d bytes, payload has %d", total, len(payload))
	}
	out := make([][]byte, n)
	off := 2 * n
	for i, l := range lens {
		out[i] = payload[off : off+l]
		off += l
	}
	return out, nil
}

// encodeVariableBytes is the wire form of a variable-length single return
// value: a uint16 length prefix followed by the bytes.
func encodeVariableBytes(b []byte) []byte {
	out := make([]byte, 2+len(b))
	binary.LittleEndian.PutUint16(out[0:2], uint16(len(b)))
	copy(out[2:], b)
	return out
}

func decodeVariableBytes(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("rpc: variable payload shorter than length prefix")
	}
	l := int(binary.LittleEndian.Uint16(data[0:2]))
	if 2+l != len(data) {
		return nil, fmt.Errorf("rpc: variable payload declares %d bytes, got %d", l, len(data)-2)
	}
	return data[2 : 2+l], nil
}

// isVariableKind reports whether reflect values of this type use the
// variable-length ([]byte / string) wire encoding rather than the fixed-size
// binary encoding.
func isVariableKind(t reflect.Type) bool {
	if t.Kind() == reflect.String {
		return true
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return true
	}
	return false
}

// encodeReflectValue renders v onto the wire using the fixed/variable rule:
// strings and []byte get a length-prefix, everything else is encoded as
// fixed-size little-endian bytes via encoding/binary.
func encodeReflectValue(v reflect.Value) ([]byte, bool, error) {
	t := v.Type()
	if isVariableKind(t) {
		if t.Kind() == reflect.String {
			return []byte(v.String()), true, nil
		}
		return v.Bytes(), true, nil
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, v.Interface()); err != nil {
		return nil, false, fmt.Errorf("rpc: fixed-size encode of %s: %w", t, err)
	}
	return buf.Bytes(), false, nil
}

// decodeReflectValue is the inverse of encodeReflectValue: raw is either the
// bare fixed-size bytes or the already length-stripped variable bytes for
// the given target type.
func decodeReflectValue(t reflect.Type, raw []byte) (reflect.Value, error) {
	if isVariableKind(t) {
		if t.Kind() == reflect.String {
			return reflect.ValueOf(string(raw)).Convert(t), nil
		}
		cp := append([]byte(nil), raw...)
		return reflect.ValueOf(cp).Convert(t), nil
	}
	out := reflect.New(t)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, out.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("rpc: fixed-size decode of %s: %w", t, err)
	}
	return out.Elem(), nil
}

// decodeReplyValue decodes a full reply payload for a call returning T: per
// the wire format, a variable-length reply is u16 length || bytes (rule 7),
// so the length prefix is stripped before decodeReflectValue sees the bare
// value; a fixed-size reply is passed through unchanged.
func decodeReplyValue(t reflect.Type, raw []byte) (reflect.Value, error) {
	if isVariableKind(t) {
		stripped, err := decodeVariableBytes(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return decodeReflectValue(t, stripped)
	}
	return decodeReflectValue(t, raw)
}
