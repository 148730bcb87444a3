package zipremote

import (
	"bytes"
	"context"
	"hash/crc32"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

const (
	// DefaultTailWindow is how many trailing bytes are searched for the EOCD.
	DefaultTailWindow = 128
	// DefaultProbeSize is how many bytes are fetched to read a local header.
	DefaultProbeSize = 512
	// MaxMemberSize bounds the decompressed size of a single member.
	MaxMemberSize = 256 << 20
)

// Options configures Open.
type Options struct {
	TailWindow int // Trailing bytes searched for the EOCD (default: 128)
	ProbeSize  int // Local header probe size (default: 512)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.TailWindow <= 0 {
		opts.TailWindow = DefaultTailWindow
	}
	if opts.TailWindow < eocdLen {
		opts.TailWindow = eocdLen
	}
	if opts.ProbeSize <= 0 {
		opts.ProbeSize = DefaultProbeSize
	}
	if opts.ProbeSize < localHeaderLen {
		opts.ProbeSize = localHeaderLen
	}
	return opts
}

// Entry is one central directory record with ZIP64 values already applied.
type Entry struct {
	Name             string `json:"name" yaml:"name"`
	Flags            uint16 `json:"flags" yaml:"flags"`
	Method           uint16 `json:"method" yaml:"method"`
	CRC32            uint32 `json:"crc32" yaml:"crc32"`
	CompressedSize   uint64 `json:"compressed_size" yaml:"compressed_size"`
	UncompressedSize uint64 `json:"uncompressed_size" yaml:"uncompressed_size"`
	Offset           uint64 `json:"offset" yaml:"offset"`
}

// IsDir reports whether the entry names a directory.
func (e Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// Archive is an opened remote archive. Its directory is read once by Open
// and never changes; members are fetched on demand.
type Archive struct {
	src     Source
	size    int64
	opts    Options
	entries []Entry
}

// Open reads the central directory of the archive behind src.
func Open(ctx context.Context, src Source, opts Options) (*Archive, error) {
	opts = opts.WithDefaults()

	size, err := src.Size(ctx)
	if err != nil {
		return nil, err
	}
	if size < eocdLen {
		return nil, errs.New(errs.ErrCodeInvalidArchive, "archive too small (%d bytes)", size)
	}

	window := int64(opts.TailWindow)
	if window > size {
		window = size
	}
	windowStart := size - window
	tail, err := src.ReadRange(ctx, windowStart, window)
	if err != nil {
		return nil, err
	}

	end, err := findEOCD(tail)
	if err != nil {
		return nil, err
	}

	cdSize, cdOffset := uint64(end.size), uint64(end.offset)
	if end.size == sentinel32 || end.offset == sentinel32 {
		cdSize, cdOffset, err = readZip64End(ctx, src, tail, end, windowStart)
		if err != nil {
			return nil, err
		}
	}
	if cdOffset > uint64(size) || cdSize > uint64(size)-cdOffset {
		return nil, errs.New(errs.ErrCodeInvalidArchive,
			"central directory at %d (%d bytes) outside archive of %d bytes", cdOffset, cdSize, size)
	}

	var dir []byte
	if cdSize > 0 {
		dir, err = src.ReadRange(ctx, int64(cdOffset), int64(cdSize))
		if err != nil {
			return nil, err
		}
	}
	entries, err := parseDirectory(dir)
	if err != nil {
		return nil, err
	}

	return &Archive{src: src, size: size, opts: opts, entries: entries}, nil
}

func readZip64End(ctx context.Context, src Source, tail []byte, end directoryEnd, windowStart int64) (size, offset uint64, err error) {
	recOffset, ok := findZip64Locator(tail, end.position)
	if !ok {
		// The locator sits directly before the EOCD; fetch it when the
		// window starts too late to include it.
		locAt := windowStart + int64(end.position) - zip64LocatorLen
		if locAt < 0 {
			return 0, 0, errs.New(errs.ErrCodeInvalidArchive, "zip64 locator not found")
		}
		rec, err := src.ReadRange(ctx, locAt, zip64LocatorLen)
		if err != nil {
			return 0, 0, err
		}
		if recOffset, ok = parseZip64Locator(rec); !ok {
			return 0, 0, errs.New(errs.ErrCodeInvalidArchive, "zip64 locator not found")
		}
	}
	archiveSize := uint64(windowStart) + uint64(len(tail))
	if recOffset > archiveSize || archiveSize-recOffset < zip64EOCDLen {
		return 0, 0, errs.New(errs.ErrCodeInvalidArchive, "zip64 end record at %d outside archive of %d bytes", recOffset, archiveSize)
	}
	rec, err := src.ReadRange(ctx, int64(recOffset), zip64EOCDLen)
	if err != nil {
		return 0, 0, err
	}
	return parseZip64EOCD(rec)
}

// Size returns the archive length in bytes.
func (a *Archive) Size() int64 { return a.size }

// Members returns a copy of the central directory.
func (a *Archive) Members() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Lookup returns the entry named name.
func (a *Archive) Lookup(name string) (Entry, bool) {
	for _, e := range a.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// FindSuffix returns the first entry whose name ends with suffix.
func (a *Archive) FindSuffix(suffix string) (Entry, bool) {
	for _, e := range a.entries {
		if strings.HasSuffix(e.Name, suffix) {
			return e, true
		}
	}
	return Entry{}, false
}

// ReadMember returns the named member decoded as UTF-8 text. Invalid
// sequences are replaced with U+FFFD.
func (a *Archive) ReadMember(ctx context.Context, name string) (string, error) {
	data, err := a.ReadFile(ctx, name)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

// ReadFile returns the decompressed bytes of the named member.
func (a *Archive) ReadFile(ctx context.Context, name string) ([]byte, error) {
	e, ok := a.Lookup(name)
	if !ok {
		return nil, errs.New(errs.ErrCodeMemberNotFound, "member %q not found", name)
	}
	return a.ReadEntry(ctx, e)
}

// ReadEntry fetches, decompresses and verifies e.
func (a *Archive) ReadEntry(ctx context.Context, e Entry) ([]byte, error) {
	if e.Method != Store && e.Method != Deflate {
		return nil, errs.New(errs.ErrCodeUnsupportedCompression, "%s: compression method %d", e.Name, e.Method)
	}
	if e.UncompressedSize > MaxMemberSize {
		return nil, errs.New(errs.ErrCodeInvalidArchive, "%s: member too large (%d bytes)", e.Name, e.UncompressedSize)
	}

	if e.Offset >= uint64(a.size) {
		return nil, errs.New(errs.ErrCodeInvalidArchive, "%s: local header offset %d out of range", e.Name, e.Offset)
	}
	probe := int64(a.opts.ProbeSize)
	if rest := a.size - int64(e.Offset); rest < probe {
		probe = rest
	}
	if probe < localHeaderLen {
		return nil, errs.New(errs.ErrCodeInvalidArchive, "%s: local header offset %d out of range", e.Name, e.Offset)
	}
	hdr, err := a.src.ReadRange(ctx, int64(e.Offset), probe)
	if err != nil {
		return nil, err
	}
	b := readBuf(hdr)
	if sig := b.uint32(); sig != sigLocalHeader {
		return nil, errs.New(errs.ErrCodeInvalidArchive, "%s: bad local header signature 0x%08x", e.Name, sig)
	}
	b.skip(22) // version through sizes
	nameLen := int64(b.uint16())
	extraLen := int64(b.uint16())

	start := int64(e.Offset) + localHeaderLen + nameLen + extraLen
	if start > a.size || e.CompressedSize > uint64(a.size-start) {
		return nil, errs.New(errs.ErrCodeInvalidArchive, "%s: payload overruns archive", e.Name)
	}
	var raw []byte
	if e.CompressedSize > 0 {
		raw, err = a.src.ReadRange(ctx, start, int64(e.CompressedSize))
		if err != nil {
			return nil, err
		}
	}

	data, err := decompress(e, raw)
	if err != nil {
		return nil, err
	}
	if sum := crc32.ChecksumIEEE(data); sum != e.CRC32 {
		return nil, errs.New(errs.ErrCodeChecksumMismatch, "%s: crc32 %08x, directory says %08x", e.Name, sum, e.CRC32)
	}
	return data, nil
}

func decompress(e Entry, raw []byte) ([]byte, error) {
	if e.Method == Store {
		return raw, nil
	}
	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()

	var buf bytes.Buffer
	buf.Grow(int(e.UncompressedSize))
	if _, err := io.Copy(&buf, io.LimitReader(r, MaxMemberSize+1)); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidArchive, err, "%s: inflate", e.Name)
	}
	if buf.Len() > MaxMemberSize {
		return nil, errs.New(errs.ErrCodeInvalidArchive, "%s: member too large", e.Name)
	}
	return buf.Bytes(), nil
}
