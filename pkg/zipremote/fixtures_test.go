package zipremote

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/klauspost/compress/flate"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

// memSource serves an in-memory archive and records every range read.
type memSource struct {
	data  []byte
	reads [][2]int64
}

func (m *memSource) Size(context.Context) (int64, error) {
	return int64(len(m.data)), nil
}

func (m *memSource) ReadRange(_ context.Context, off, n int64) ([]byte, error) {
	m.reads = append(m.reads, [2]int64{off, n})
	if off < 0 || off+n > int64(len(m.data)) {
		return nil, errs.New(errs.ErrCodeInvalidInput, "range %d+%d outside %d bytes", off, n, len(m.data))
	}
	out := make([]byte, n)
	copy(out, m.data[off:off+n])
	return out, nil
}

func (m *memSource) bytesRead() int64 {
	var total int64
	for _, r := range m.reads {
		total += r[1]
	}
	return total
}

// member describes one file for the hand-written archive writer.
type member struct {
	name    string
	body    []byte
	method  uint16
	badCRC  bool
	padding int // bytes of junk written before the local header
}

// zipSpec controls how writeZip lays out the trailer.
type zipSpec struct {
	members []member
	zip64   bool // sentinel 32-bit fields, ZIP64 extra, locator and ZIP64 EOCD
	comment string
}

// writeZip builds an archive byte by byte so the ZIP64 paths can be
// exercised without writing gigabytes.
func writeZip(t *testing.T, spec zipSpec) []byte {
	t.Helper()
	le := binary.LittleEndian
	var out []byte
	var central []byte

	for _, m := range spec.members {
		out = append(out, bytes.Repeat([]byte{0xAA}, m.padding)...)
		offset := uint64(len(out))

		payload := m.body
		if m.method == Deflate {
			var buf bytes.Buffer
			fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := fw.Write(m.body); err != nil {
				t.Fatal(err)
			}
			if err := fw.Close(); err != nil {
				t.Fatal(err)
			}
			payload = buf.Bytes()
		}
		crc := crc32.ChecksumIEEE(m.body)
		if m.badCRC {
			crc ^= 0xdeadbeef
		}

		out = le.AppendUint32(out, sigLocalHeader)
		out = le.AppendUint16(out, 45)
		out = le.AppendUint16(out, 0)
		out = le.AppendUint16(out, m.method)
		out = le.AppendUint32(out, 0) // time, date
		out = le.AppendUint32(out, crc)
		out = le.AppendUint32(out, uint32(len(payload)))
		out = le.AppendUint32(out, uint32(len(m.body)))
		out = le.AppendUint16(out, uint16(len(m.name)))
		out = le.AppendUint16(out, 0)
		out = append(out, m.name...)
		out = append(out, payload...)

		comp32, uncomp32, off32 := uint32(len(payload)), uint32(len(m.body)), uint32(offset)
		var extra []byte
		if spec.zip64 {
			comp32, uncomp32, off32 = sentinel32, sentinel32, sentinel32
			// An unrelated extra field first, to check the reader skips it.
			extra = le.AppendUint16(extra, 0x5455)
			extra = le.AppendUint16(extra, 5)
			extra = append(extra, 1, 0, 0, 0, 0)
			extra = le.AppendUint16(extra, zip64ExtraID)
			extra = le.AppendUint16(extra, 24)
			extra = le.AppendUint64(extra, uint64(len(m.body)))
			extra = le.AppendUint64(extra, uint64(len(payload)))
			extra = le.AppendUint64(extra, offset)
		}

		central = le.AppendUint32(central, sigCentralDir)
		central = le.AppendUint16(central, 45)
		central = le.AppendUint16(central, 45)
		central = le.AppendUint16(central, 0)
		central = le.AppendUint16(central, m.method)
		central = le.AppendUint32(central, 0)
		central = le.AppendUint32(central, crc)
		central = le.AppendUint32(central, comp32)
		central = le.AppendUint32(central, uncomp32)
		central = le.AppendUint16(central, uint16(len(m.name)))
		central = le.AppendUint16(central, uint16(len(extra)))
		central = le.AppendUint16(central, 0)
		central = le.AppendUint16(central, 0)
		central = le.AppendUint16(central, 0)
		central = le.AppendUint32(central, 0)
		central = le.AppendUint32(central, off32)
		central = append(central, m.name...)
		central = append(central, extra...)
	}

	cdOffset := uint64(len(out))
	cdSize := uint64(len(central))
	out = append(out, central...)

	entries := uint16(len(spec.members))
	size32, offset32 := uint32(cdSize), uint32(cdOffset)
	if spec.zip64 {
		zip64At := uint64(len(out))
		out = le.AppendUint32(out, sigZip64EOCD)
		out = le.AppendUint64(out, zip64EOCDLen-12)
		out = le.AppendUint16(out, 45)
		out = le.AppendUint16(out, 45)
		out = le.AppendUint32(out, 0)
		out = le.AppendUint32(out, 0)
		out = le.AppendUint64(out, uint64(entries))
		out = le.AppendUint64(out, uint64(entries))
		out = le.AppendUint64(out, cdSize)
		out = le.AppendUint64(out, cdOffset)

		out = le.AppendUint32(out, sigZip64Locator)
		out = le.AppendUint32(out, 0)
		out = le.AppendUint64(out, zip64At)
		out = le.AppendUint32(out, 1)

		entries = 0xffff
		size32, offset32 = sentinel32, sentinel32
	}

	out = le.AppendUint32(out, sigEOCD)
	out = le.AppendUint16(out, 0)
	out = le.AppendUint16(out, 0)
	out = le.AppendUint16(out, entries)
	out = le.AppendUint16(out, entries)
	out = le.AppendUint32(out, size32)
	out = le.AppendUint32(out, offset32)
	out = le.AppendUint16(out, uint16(len(spec.comment)))
	out = append(out, spec.comment...)
	return out
}

// stdZip writes an archive with the standard library writer.
func stdZip(t *testing.T, comment string, files map[string]string, methods map[string]uint16) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: methods[name]})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if comment != "" {
		if err := w.SetComment(comment); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
