package serialization

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/pkg/errors"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

var errMalformed = errors.New("errMalformed")

// MaxMessagePayload is the upper bound for any single length-prefixed field.
// It protects decoders from allocating huge buffers off a corrupt prefix.
const MaxMessagePayload = 32 * 1024 * 1024

var littleEndian = binary.LittleEndian

// WriteElement writes the little endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	var buf [8]byte
	switch e := element.(type) {
	case uint8:
		buf[0] = e
		return write(w, buf[:1])

	case uint16:
		littleEndian.PutUint16(buf[:2], e)
		return write(w, buf[:2])

	case int32:
		littleEndian.PutUint32(buf[:4], uint32(e))
		return write(w, buf[:4])

	case uint32:
		littleEndian.PutUint32(buf[:4], e)
		return write(w, buf[:4])

	case int64:
		littleEndian.PutUint64(buf[:], uint64(e))
		return write(w, buf[:])

	case uint64:
		littleEndian.PutUint64(buf[:], e)
		return write(w, buf[:])

	case bool:
		if e {
			buf[0] = 0x01
		}
		return write(w, buf[:1])

	case hashes.Hash:
		return write(w, e[:])

	case *hashes.Hash:
		return write(w, e[:])
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func ReadElement(r io.Reader, element interface{}) error {
	var buf [8]byte
	switch e := element.(type) {
	case *uint8:
		if err := read(r, buf[:1]); err != nil {
			return err
		}
		*e = buf[0]
		return nil

	case *uint16:
		if err := read(r, buf[:2]); err != nil {
			return err
		}
		*e = littleEndian.Uint16(buf[:2])
		return nil

	case *int32:
		if err := read(r, buf[:4]); err != nil {
			return err
		}
		*e = int32(littleEndian.Uint32(buf[:4]))
		return nil

	case *uint32:
		if err := read(r, buf[:4]); err != nil {
			return err
		}
		*e = littleEndian.Uint32(buf[:4])
		return nil

	case *int64:
		if err := read(r, buf[:]); err != nil {
			return err
		}
		*e = int64(littleEndian.Uint64(buf[:]))
		return nil

	case *uint64:
		if err := read(r, buf[:]); err != nil {
			return err
		}
		*e = littleEndian.Uint64(buf[:])
		return nil

	case *bool:
		if err := read(r, buf[:1]); err != nil {
			return err
		}
		switch buf[0] {
		case 0x00:
			*e = false
		case 0x01:
			*e = true
		default:
			return errors.Wrapf(errMalformed, "in order to keep serialization canonical, true has to"+
				" always be 0x01")
		}
		return nil

	case *hashes.Hash:
		return read(r, e[:])
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
}

// ReadElements reads multiple items from r. It is equivalent to multiple
// calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadVarInt reads a variable length integer from r and returns it as a uint64.
// Encodings that could have used fewer bytes are rejected.
func ReadVarInt(r io.Reader) (uint64, error) {
	var discriminant uint8
	err := ReadElement(r, &discriminant)
	if err != nil {
		return 0, err
	}

	var rv, min uint64
	switch discriminant {
	case 0xff:
		err = ReadElement(r, &rv)
		min = 0x100000000

	case 0xfe:
		var sv uint32
		err = ReadElement(r, &sv)
		rv = uint64(sv)
		min = 0x10000

	case 0xfd:
		var sv uint16
		err = ReadElement(r, &sv)
		rv = uint64(sv)
		min = 0xfd

	default:
		return uint64(discriminant), nil
	}
	if err != nil {
		return 0, err
	}

	if rv < min {
		return 0, errors.Wrapf(errMalformed, "non-canonical varint %x - discriminant %x must "+
			"encode a value greater than %x", rv, discriminant, min)
	}
	return rv, nil
}

// WriteVarInt serializes val to w using a variable number of bytes depending
// on its value.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		return WriteElement(w, uint8(val))
	}

	if val <= math.MaxUint16 {
		return WriteElements(w, uint8(0xfd), uint16(val))
	}

	if val <= math.MaxUint32 {
		return WriteElements(w, uint8(0xfe), uint32(val))
	}

	return WriteElements(w, uint8(0xff), val)
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= math.MaxUint16:
		return 3
	case val <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// ReadVarBytes reads a variable length byte array. A byte array is encoded
// as a varInt containing the length of the array followed by the bytes
// themselves. An error is returned if the length is greater than the
// passed maxAllowed parameter which helps protect against memory exhaustion
// attacks and forced panics through malformed messages. The fieldName
// parameter is only used for the error message so it provides more context in
// the error. A zero length yields a nil slice.
func ReadVarBytes(r io.Reader, maxAllowed uint32, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	if count > uint64(maxAllowed) {
		return nil, errors.Wrapf(errMalformed, "%s is larger than the max allowed size "+
			"[count %d, max %d]", fieldName, count, maxAllowed)
	}
	if count == 0 {
		return nil, nil
	}

	b := make([]byte, count)
	err = read(r, b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w as a varInt
// containing the number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, bytes []byte) error {
	err := WriteVarInt(w, uint64(len(bytes)))
	if err != nil {
		return err
	}
	return write(w, bytes)
}

// ReadVarString reads a variable length string from r and returns it as a Go
// string.
func ReadVarString(r io.Reader, maxAllowed uint32) (string, error) {
	b, err := ReadVarBytes(r, maxAllowed, "string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteVarString serializes str to w as a varInt containing the length of the
// string followed by the bytes that represent the string itself.
func WriteVarString(w io.Writer, str string) error {
	return WriteVarBytes(w, []byte(str))
}

// VarBytesSerializeSize returns the number of bytes it would take to
// serialize b as a length-prefixed byte array.
func VarBytesSerializeSize(b []byte) int {
	return VarIntSerializeSize(uint64(len(b))) + len(b)
}

// IsMalformedError returns whether the error indicates a malformed data source
func IsMalformedError(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, errMalformed)
}

func read(r io.Reader, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	_, err := io.ReadFull(r, buf)
	return errors.WithStack(err)
}

func write(w io.Writer, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	_, err := w.Write(buf)
	return errors.WithStack(err)
}
