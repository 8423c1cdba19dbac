// Package kvstore implements the persistent flat key-value map the core
// reads its mode and device id from at boot: a single escaped
// "key1|val1|key2|val2|..." string preceded by a magic/length header,
// occupying one flash-sector-sized record with no incremental append.
package kvstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Magic is the 4-byte record header identifying a valid store.
const Magic uint32 = 0x494E5058

const (
	headerLen = 8 // magic u32 + length u32

	keyMode     = "mode"
	keyDeviceID = "deviceId"

	ModeHID    = "HID"
	ModeXInput = "XINPUT"
)

// Store wraps a backing random-access file: Load reads the whole record
// into memory, Save rewrites it in full.
type Store struct {
	backing io.ReadWriteSeeker
	values  map[string]string
}

// New returns an empty store bound to backing. Call Load to populate it
// from an existing record, or Save to write a fresh one.
func New(backing io.ReadWriteSeeker) *Store {
	return &Store{backing: backing, values: map[string]string{}}
}

// OpenFileStore opens (creating if needed) the file at path as the
// backing store for a Store, taking an advisory exclusive flock so two
// host processes never race each other rewriting the same record — the
// host stand-in for the microcontroller's single flash sector, which has
// no concurrent writer at all. The returned closer releases the lock and
// closes the file; callers must call it even if Load/Save fails.
func OpenFileStore(path string) (store *Store, closer func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("kvstore: open %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("kvstore: flock %s: %w", path, err)
	}
	return New(f), func() error {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return f.Close()
	}, nil
}

// Load reads and parses the record, validating the magic and length
// prefix. An empty backing store (zero bytes) is treated as an empty map,
// not an error, so first boot works without pre-formatting.
func (s *Store) Load() error {
	if _, err := s.backing.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("kvstore: seek: %w", err)
	}

	var hdr [headerLen]byte
	n, err := io.ReadFull(s.backing, hdr[:])
	if err == io.EOF || n == 0 {
		s.values = map[string]string{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("kvstore: read header: %w", err)
	}

	magic := binary.LittleEndian.Uint32(hdr[0:4])
	if magic != Magic {
		return fmt.Errorf("kvstore: bad magic %#x", magic)
	}
	length := binary.LittleEndian.Uint32(hdr[4:8])

	body := make([]byte, length)
	if _, err := io.ReadFull(s.backing, body); err != nil {
		return fmt.Errorf("kvstore: read body: %w", err)
	}

	values, err := parse(string(body))
	if err != nil {
		return fmt.Errorf("kvstore: parse body: %w", err)
	}
	s.values = values
	return nil
}

// Save re-serializes the in-memory map and rewrites the whole record from
// offset 0.
func (s *Store) Save() error {
	body := serialize(s.values)

	buf := make([]byte, headerLen+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(body)))
	copy(buf[headerLen:], body)

	if _, err := s.backing.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("kvstore: seek: %w", err)
	}
	if _, err := s.backing.Write(buf); err != nil {
		return fmt.Errorf("kvstore: write: %w", err)
	}
	return nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores key=value in memory. Call Save to persist it.
func (s *Store) Set(key, value string) {
	s.values[key] = value
}

// Delete removes key from memory. Call Save to persist the removal.
func (s *Store) Delete(key string) {
	delete(s.values, key)
}

// Mode returns the persisted device mode ("HID" or "XINPUT"), or ModeHID
// if unset.
func (s *Store) Mode() string {
	if v, ok := s.values[keyMode]; ok {
		return v
	}
	return ModeHID
}

// SetMode validates and stores the device mode.
func (s *Store) SetMode(mode string) error {
	if mode != ModeHID && mode != ModeXInput {
		return fmt.Errorf("kvstore: invalid mode %q", mode)
	}
	s.values[keyMode] = mode
	return nil
}

// DeviceID returns the persisted 5-character alphanumeric device id, or
// "" if unset.
func (s *Store) DeviceID() string {
	return s.values[keyDeviceID]
}

// SetDeviceID validates and stores the device id.
func (s *Store) SetDeviceID(id string) error {
	if len(id) != 5 {
		return fmt.Errorf("kvstore: deviceId must be 5 characters, got %d", len(id))
	}
	for _, r := range id {
		if !isAlphanumeric(r) {
			return fmt.Errorf("kvstore: deviceId must be alphanumeric, got %q", id)
		}
	}
	s.values[keyDeviceID] = id
	return nil
}

func isAlphanumeric(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// escape backtick-escapes backtick and pipe per the on-wire format:
// '`' becomes "``", '|' becomes "`|".
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '`':
			b.WriteString("``")
		case '|':
			b.WriteString("`|")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func serialize(values map[string]string) string {
	var b strings.Builder
	first := true
	for k, v := range values {
		if !first {
			b.WriteByte('|')
		}
		first = false
		b.WriteString(escape(k))
		b.WriteByte('|')
		b.WriteString(escape(v))
	}
	return b.String()
}

// parse reverses escape and splits the body into alternating key/value
// fields, since a literal '|' only terminates a field when it was not
// preceded by an escaping backtick.
func parse(body string) (map[string]string, error) {
	var fields []string
	var cur strings.Builder

	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '`' && i+1 < len(runes) {
			switch runes[i+1] {
			case '`':
				cur.WriteRune('`')
				i++
				continue
			case '|':
				cur.WriteRune('|')
				i++
				continue
			}
		}
		if r == '|' {
			fields = append(fields, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if body != "" || cur.Len() > 0 {
		fields = append(fields, cur.String())
	}

	if len(fields) == 1 && fields[0] == "" {
		return map[string]string{}, nil
	}
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("kvstore: malformed record, odd field count %d", len(fields))
	}

	values := make(map[string]string, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		values[fields[i]] = fields[i+1]
	}
	return values, nil
}
