package zipremote

import (
	"encoding/binary"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

// Record signatures.
const (
	sigLocalHeader   = 0x04034b50
	sigCentralDir    = 0x02014b50
	sigEOCD          = 0x06054b50
	sigZip64EOCD     = 0x06064b50
	sigZip64Locator  = 0x07064b50
	zip64ExtraID     = 0x0001
	sentinel32       = 0xffffffff
	eocdLen          = 22
	zip64LocatorLen  = 20
	zip64EOCDLen     = 56
	centralHeaderLen = 46
	localHeaderLen   = 30
)

// Compression methods.
const (
	Store   uint16 = 0
	Deflate uint16 = 8
)

// readBuf consumes little-endian fields from the front of a byte slice.
type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func (b *readBuf) uint64() uint64 {
	v := binary.LittleEndian.Uint64(*b)
	*b = (*b)[8:]
	return v
}

func (b *readBuf) skip(n int) {
	*b = (*b)[n:]
}

func (b *readBuf) sub(n int) readBuf {
	v := (*b)[:n]
	*b = (*b)[n:]
	return v
}

// directoryEnd holds the parts of the EOCD record the reader uses.
type directoryEnd struct {
	entries  uint16
	size     uint32
	offset   uint32
	position int // offset of the record inside the scanned window
}

// findEOCD scans window backwards for the EOCD signature.
func findEOCD(window []byte) (directoryEnd, error) {
	for i := len(window) - eocdLen; i >= 0; i-- {
		if binary.LittleEndian.Uint32(window[i:]) != sigEOCD {
			continue
		}
		b := readBuf(window[i+4:])
		b.skip(6) // disk numbers, entries on this disk
		d := directoryEnd{position: i}
		d.entries = b.uint16()
		d.size = b.uint32()
		d.offset = b.uint32()
		return d, nil
	}
	return directoryEnd{}, errs.New(errs.ErrCodeInvalidArchive,
		"end of central directory not found in last %d bytes", len(window))
}

// findZip64Locator scans window backwards from before for the ZIP64 EOCD
// locator and returns the absolute offset of the ZIP64 EOCD record.
func findZip64Locator(window []byte, before int) (uint64, bool) {
	for i := before - zip64LocatorLen; i >= 0; i-- {
		if binary.LittleEndian.Uint32(window[i:]) != sigZip64Locator {
			continue
		}
		b := readBuf(window[i+4:])
		b.skip(4) // disk with the ZIP64 EOCD
		return b.uint64(), true
	}
	return 0, false
}

// parseZip64Locator decodes a locator record fetched on its own.
func parseZip64Locator(rec []byte) (uint64, bool) {
	if len(rec) < zip64LocatorLen || binary.LittleEndian.Uint32(rec) != sigZip64Locator {
		return 0, false
	}
	b := readBuf(rec[8:])
	return b.uint64(), true
}

// parseZip64EOCD returns the 64-bit central directory size and offset.
func parseZip64EOCD(rec []byte) (size, offset uint64, err error) {
	if len(rec) < zip64EOCDLen || binary.LittleEndian.Uint32(rec) != sigZip64EOCD {
		return 0, 0, errs.New(errs.ErrCodeInvalidArchive, "invalid zip64 end of central directory record")
	}
	b := readBuf(rec[40:])
	size = b.uint64()
	offset = b.uint64()
	return size, offset, nil
}

// parseDirectory decodes consecutive central directory records until buf is
// exhausted.
func parseDirectory(buf []byte) ([]Entry, error) {
	var entries []Entry
	b := readBuf(buf)
	for len(b) > 0 {
		if len(b) < centralHeaderLen {
			return entries, errs.New(errs.ErrCodeInvalidArchive, "truncated central directory record")
		}
		if sig := b.uint32(); sig != sigCentralDir {
			return entries, errs.New(errs.ErrCodeInvalidArchive, "bad central directory signature 0x%08x", sig)
		}
		b.skip(4) // versions
		var e Entry
		e.Flags = b.uint16()
		e.Method = b.uint16()
		b.skip(4) // mod time, date
		e.CRC32 = b.uint32()
		comp32 := b.uint32()
		uncomp32 := b.uint32()
		nameLen := int(b.uint16())
		extraLen := int(b.uint16())
		commentLen := int(b.uint16())
		b.skip(8) // disk start, internal + external attributes
		offset32 := b.uint32()

		if len(b) < nameLen+extraLen+commentLen {
			return entries, errs.New(errs.ErrCodeInvalidArchive, "central directory record overruns directory")
		}
		e.Name = string(b.sub(nameLen))
		extra := b.sub(extraLen)
		b.skip(commentLen)

		e.CompressedSize = uint64(comp32)
		e.UncompressedSize = uint64(uncomp32)
		e.Offset = uint64(offset32)
		if err := applyZip64Extra(&e, extra, uncomp32 == sentinel32, comp32 == sentinel32, offset32 == sentinel32); err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// applyZip64Extra replaces sentinel-valued fields with the 64-bit values
// from the ZIP64 extra field. Values appear in a fixed order and only for
// fields whose 32-bit counterpart is the sentinel.
func applyZip64Extra(e *Entry, extra readBuf, needUncomp, needComp, needOffset bool) error {
	if !needUncomp && !needComp && !needOffset {
		return nil
	}
	for len(extra) >= 4 {
		id := extra.uint16()
		size := int(extra.uint16())
		if len(extra) < size {
			break
		}
		field := extra.sub(size)
		if id != zip64ExtraID {
			continue
		}
		if needUncomp {
			if len(field) < 8 {
				return zip64Short(e.Name)
			}
			e.UncompressedSize = field.uint64()
		}
		if needComp {
			if len(field) < 8 {
				return zip64Short(e.Name)
			}
			e.CompressedSize = field.uint64()
		}
		if needOffset {
			if len(field) < 8 {
				return zip64Short(e.Name)
			}
			e.Offset = field.uint64()
		}
		return nil
	}
	return errs.New(errs.ErrCodeInvalidArchive, "%s: sentinel field without zip64 extra", e.Name)
}

func zip64Short(name string) error {
	return errs.New(errs.ErrCodeInvalidArchive, "%s: zip64 extra field too short", name)
}
