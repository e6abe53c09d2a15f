// Package rdb loads the binary snapshot file format the server reads at
// startup: a 9-byte magic, a stream of opcode-tagged sections, and
// per-key opcodes carrying an optional expiry followed by a typed value.
// The server never writes this format back out; rdb only decodes.
package rdb

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rkvdb/rkv/store"
)

const magic = "REDIS0011"

// Opcodes that precede a section rather than a key/value pair.
const (
	opAux          = 0xFA
	opResizeDB     = 0xFB
	opExpireMillis = 0xFC
	opExpireSecs   = 0xFD
	opSelectDB     = 0xFE
	opEOF          = 0xFF
)

// valueTypeString is the only value-type byte this loader accepts; every
// other type is a hard failure (spec.md §4.5: "other types cause a hard
// failure").
const valueTypeString = 0x00

// ErrUnsupportedValueType is returned for any value-type byte other than
// the string type.
var ErrUnsupportedValueType = errors.New("rdb: unsupported value type")

// ErrUnsupportedCompression is returned when a string uses the
// LZF-compressed special encoding, which this loader does not implement.
var ErrUnsupportedCompression = errors.New("rdb: LZF-compressed strings are not supported")

// ErrBadMagic is returned when the file doesn't open with the expected
// 9-byte header.
var ErrBadMagic = errors.New("rdb: bad magic header")

// KV is one decoded key/value pair, destined for database index DBIndex.
type KV struct {
	DBIndex int
	Key     string
	Entry   store.Entry
}

// Load reads the snapshot at path and returns its key/value pairs,
// already filtered of any entry whose expiry had already passed at load
// time (spec.md §4.5: "expired-on-load keys are silently dropped"). A
// missing file is returned as the unwrapped os.Open error, so callers can
// recognise it with os.IsNotExist and initialize empty databases instead
// of failing (spec.md §4.5 and §9's documented open question
// resolution).
func Load(path string) ([]KV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	kvs, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("rdb: %s: %w", path, err)
	}
	return kvs, nil
}

// Decode parses a complete snapshot stream from r, applying the same
// rules as Load. Exported for testing against in-memory buffers.
func Decode(r io.Reader) ([]KV, error) {
	d := &decoder{r: r}
	return d.run()
}

// EmptySnapshot returns the smallest valid snapshot byte stream: just
// the magic header immediately followed by EOF. The leader's PSYNC reply
// sends this in place of a real point-in-time dump (spec.md §4.7 step 7:
// "an in-memory empty snapshot"), since replication write propagation
// rather than snapshot transfer is this server's actual state-transfer
// mechanism for followers that connect after startup.
func EmptySnapshot() []byte {
	return append([]byte(magic), opEOF)
}

type decoder struct {
	r io.Reader
}

func (d *decoder) run() ([]KV, error) {
	if err := d.readMagic(); err != nil {
		return nil, err
	}

	var kvs []KV
	dbIndex := 0
	var pendingExpiry store.Expiry

	for {
		op, err := d.readByte()
		if err != nil {
			return nil, fmt.Errorf("read opcode: %w", err)
		}

		switch op {
		case opEOF:
			return kvs, nil

		case opAux:
			if _, err := d.readString(); err != nil {
				return nil, fmt.Errorf("aux key: %w", err)
			}
			if _, err := d.readString(); err != nil {
				return nil, fmt.Errorf("aux value: %w", err)
			}

		case opResizeDB:
			if _, err := d.readLength(); err != nil {
				return nil, fmt.Errorf("resizedb hash size: %w", err)
			}
			if _, err := d.readLength(); err != nil {
				return nil, fmt.Errorf("resizedb expire size: %w", err)
			}

		case opExpireMillis:
			var buf [8]byte
			if _, err := io.ReadFull(d.r, buf[:]); err != nil {
				return nil, fmt.Errorf("expiretimems: %w", err)
			}
			ms := int64(binary.LittleEndian.Uint64(buf[:]))
			pendingExpiry = store.ExpireAtUnixMillis(ms)

		case opExpireSecs:
			var buf [4]byte
			if _, err := io.ReadFull(d.r, buf[:]); err != nil {
				return nil, fmt.Errorf("expiretime: %w", err)
			}
			sec := int64(binary.LittleEndian.Uint32(buf[:]))
			pendingExpiry = store.ExpireAtUnixSeconds(sec)

		case opSelectDB:
			n, err := d.readLength()
			if err != nil {
				return nil, fmt.Errorf("selectdb: %w", err)
			}
			dbIndex = int(n)

		default:
			kv, err := d.readKeyValue(op, dbIndex, pendingExpiry)
			if err != nil {
				return nil, err
			}
			pendingExpiry = store.NoExpiry
			if kv.Entry.Present() {
				kvs = append(kvs, kv)
			}
		}
	}
}

func (d *decoder) readMagic() error {
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if string(buf) != magic {
		return ErrBadMagic
	}
	return nil
}

func (d *decoder) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// readKeyValue reads a (valueType already consumed as op, key, value)
// triple and applies expiry, the default-typed opcode-fallthrough branch
// of spec.md §4.5's table.
func (d *decoder) readKeyValue(valueType byte, dbIndex int, expiry store.Expiry) (KV, error) {
	if valueType != valueTypeString {
		return KV{}, fmt.Errorf("%w: 0x%02x", ErrUnsupportedValueType, valueType)
	}

	key, err := d.readString()
	if err != nil {
		return KV{}, fmt.Errorf("key: %w", err)
	}
	val, err := d.readString()
	if err != nil {
		return KV{}, fmt.Errorf("value: %w", err)
	}

	return KV{
		DBIndex: dbIndex,
		Key:     string(key),
		Entry: store.Entry{
			Value:  store.NewStringValue(store.NewString(val)),
			Expiry: expiry,
		},
	}, nil
}

// length encoding top-2-bit families (spec.md §4.5).
const (
	lenEnc6Bit    = 0b00
	lenEnc14Bit   = 0b01
	lenEnc32Bit   = 0b10
	lenEncSpecial = 0b11
)

// readLength reads a plain length prefix (6-bit, 14-bit, or 32-bit). It
// must not be called where a special string encoding is legal — use
// readString for that.
func (d *decoder) readLength() (uint64, error) {
	n, special, err := d.readLengthOrSpecial()
	if err != nil {
		return 0, err
	}
	if special {
		return 0, errors.New("rdb: special encoding not valid here")
	}
	return n, nil
}

// readLengthOrSpecial reads the length-encoding header byte(s) and
// reports either a plain length or, for the special-string family, the
// 6-bit subtype with special=true.
func (d *decoder) readLengthOrSpecial() (value uint64, special bool, err error) {
	first, err := d.readByte()
	if err != nil {
		return 0, false, err
	}
	switch first >> 6 {
	case lenEnc6Bit:
		return uint64(first & 0x3F), false, nil
	case lenEnc14Bit:
		second, err := d.readByte()
		if err != nil {
			return 0, false, err
		}
		return uint64(first&0x3F)<<8 | uint64(second), false, nil
	case lenEnc32Bit:
		var buf [4]byte
		if _, err := io.ReadFull(d.r, buf[:]); err != nil {
			return 0, false, err
		}
		return uint64(binary.BigEndian.Uint32(buf[:])), false, nil
	default: // lenEncSpecial
		return uint64(first & 0x3F), true, nil
	}
}

// readString reads a length-encoded string payload, resolving the
// special-string integer encodings to their decimal ASCII rendering and
// rejecting LZF compression (spec.md §4.5).
func (d *decoder) readString() ([]byte, error) {
	n, special, err := d.readLengthOrSpecial()
	if err != nil {
		return nil, err
	}
	if !special {
		buf := make([]byte, n)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return nil, fmt.Errorf("string payload: %w", err)
		}
		return buf, nil
	}

	switch n {
	case 0:
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return []byte(strconv.FormatInt(int64(int8(b)), 10)), nil
	case 1:
		var buf [2]byte
		if _, err := io.ReadFull(d.r, buf[:]); err != nil {
			return nil, err
		}
		return []byte(strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(buf[:]))), 10)), nil
	case 2:
		var buf [4]byte
		if _, err := io.ReadFull(d.r, buf[:]); err != nil {
			return nil, err
		}
		return []byte(strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(buf[:]))), 10)), nil
	case 3:
		return nil, ErrUnsupportedCompression
	default:
		return nil, fmt.Errorf("rdb: unknown special string encoding %d", n)
	}
}
