package notedoc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MagicString      = "RETRONOTE"
	VersionV1        = uint16(1)
	FlagRandomAccess = uint16(1 << 0)

	headerSize = len(MagicString) + 2 + 2 + 8 + 4
	tocEntSize = 1 + 8 + 4 + 4

	noteFlagFocusMode = uint8(1 << 0)
)

// EntryKind identifies one keyed payload of a note file.
type EntryKind uint8

const (
	EntryKindMeta        EntryKind = 0
	EntryKindText        EntryKind = 1
	EntryKindStyle       EntryKind = 2
	EntryKindPreferences EntryKind = 3
)

func (k EntryKind) String() string {
	switch k {
	case EntryKindMeta:
		return "meta"
	case EntryKindText:
		return "content"
	case EntryKindStyle:
		return "styles"
	case EntryKindPreferences:
		return "preferences"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Note is everything persisted for the single local note.
type Note struct {
	Content     *Document
	Preferences []byte
	Theme       string
	FocusMode   bool
	SavedUnix   int64
}

type LayoutSegment struct {
	Name   string
	Kind   EntryKind
	Offset uint64
	Length uint32
}

type LayoutInfo struct {
	HeaderLength uint32
	IndexOffset  uint64
	IndexLength  uint32
	FileSize     uint64
	Segments     []LayoutSegment
}

type tocEntry struct {
	Kind   EntryKind
	Offset uint64
	Length uint32
	CRC32  uint32
}

type encodeResult struct {
	Blob      []byte
	Entries   []tocEntry
	TOCOffset uint64
	TOCLength uint32
}

type payloadEntry struct {
	Kind    EntryKind
	Payload []byte
}

var (
	ErrInvalidMagic       = errors.New("notedoc: invalid magic")
	ErrUnsupportedVer     = errors.New("notedoc: unsupported version")
	ErrMissingRandomFlag  = errors.New("notedoc: random-access flag required")
	ErrInvalidTOC         = errors.New("notedoc: invalid toc")
	ErrInvalidEntryRange  = errors.New("notedoc: invalid entry range")
	ErrOverlappingEntries = errors.New("notedoc: overlapping entry ranges")
	ErrChecksum           = errors.New("notedoc: checksum mismatch")
	ErrNilNote            = errors.New("notedoc: note is nil")
)

func NewNote() *Note {
	return &Note{Content: NewDocument()}
}

func Save(path string, note *Note) error {
	return SaveWithOptions(path, note, SaveOptions{})
}

func SaveWithOptions(path string, note *Note, opts SaveOptions) error {
	blob, err := Encode(note, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Encode serializes note, wrapping it in a secure envelope when opts asks
// for compression or encryption.
func Encode(note *Note, opts SaveOptions) ([]byte, error) {
	if note == nil {
		return nil, ErrNilNote
	}
	note.SavedUnix = time.Now().Unix()
	if err := Validate(note); err != nil {
		return nil, err
	}
	res, err := encodeNoteDetailed(note)
	if err != nil {
		return nil, err
	}
	return wrapEnvelope(res.Blob, opts)
}

func Load(path string) (*Note, error) {
	return LoadWithOptions(path, LoadOptions{})
}

func LoadWithOptions(path string, opts LoadOptions) (*Note, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(b, opts)
}

func Decode(b []byte, opts LoadOptions) (*Note, error) {
	var err error
	if isSecureEnvelope(b) {
		b, err = decodeSecureEnvelope(b, opts)
		if err != nil {
			return nil, err
		}
	}
	note, err := decodeNote(b)
	if err != nil {
		return nil, err
	}
	if err := Validate(note); err != nil {
		return nil, err
	}
	return note, nil
}

func InspectLayout(note *Note) (*LayoutInfo, error) {
	if err := Validate(note); err != nil {
		return nil, err
	}
	res, err := encodeNoteDetailed(note)
	if err != nil {
		return nil, err
	}

	segments := []LayoutSegment{{
		Name:   "Header",
		Kind:   EntryKindMeta,
		Offset: 0,
		Length: uint32(headerSize),
	}, {
		Name:   "Index",
		Kind:   EntryKindMeta,
		Offset: res.TOCOffset,
		Length: res.TOCLength,
	}}
	for _, e := range res.Entries {
		segments = append(segments, LayoutSegment{
			Name:   e.Kind.String(),
			Kind:   e.Kind,
			Offset: e.Offset,
			Length: e.Length,
		})
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Offset < segments[j].Offset })

	return &LayoutInfo{
		HeaderLength: uint32(headerSize),
		IndexOffset:  res.TOCOffset,
		IndexLength:  res.TOCLength,
		FileSize:     uint64(len(res.Blob)),
		Segments:     segments,
	}, nil
}

func Validate(note *Note) error {
	if note == nil {
		return ErrNilNote
	}
	if !utf8.ValidString(note.Theme) {
		return errors.New("notedoc: theme must be valid UTF-8")
	}
	if note.Content == nil {
		return nil
	}
	if err := note.Content.Check(); err != nil {
		return err
	}
	for i, r := range note.Content.runs {
		if r.SizeCode != 0 {
			return fmt.Errorf("notedoc: run %d still carries legacy size code %d", i, r.SizeCode)
		}
		if r.Style.FontSize < 0 || r.Style.FontSize > 0xFFFF {
			return fmt.Errorf("notedoc: run %d font size %d out of range", i, r.Style.FontSize)
		}
	}
	return nil
}

func encodeNoteDetailed(note *Note) (*encodeResult, error) {
	content := note.Content
	if content == nil {
		content = NewDocument()
	}
	payloads := []payloadEntry{
		{Kind: EntryKindMeta, Payload: encodeMeta(note)},
		{Kind: EntryKindText, Payload: []byte(content.Text())},
		{Kind: EntryKindStyle, Payload: encodeStyleTable(content.runs)},
	}
	if len(note.Preferences) > 0 {
		payloads = append(payloads, payloadEntry{Kind: EntryKindPreferences, Payload: note.Preferences})
	}

	tocOffset := uint64(headerSize)
	tocLength := uint32(len(payloads) * tocEntSize)
	out := make([]byte, headerSize+int(tocLength))
	copy(out[:len(MagicString)], MagicString)

	entries := make([]tocEntry, 0, len(payloads))
	offset := uint64(len(out))
	for _, p := range payloads {
		entries = append(entries, tocEntry{
			Kind:   p.Kind,
			Offset: offset,
			Length: uint32(len(p.Payload)),
			CRC32:  crc32.ChecksumIEEE(p.Payload),
		})
		out = append(out, p.Payload...)
		offset += uint64(len(p.Payload))
	}

	ptr := headerSize
	for _, e := range entries {
		out[ptr] = byte(e.Kind)
		binary.LittleEndian.PutUint64(out[ptr+1:ptr+9], e.Offset)
		binary.LittleEndian.PutUint32(out[ptr+9:ptr+13], e.Length)
		binary.LittleEndian.PutUint32(out[ptr+13:ptr+17], e.CRC32)
		ptr += tocEntSize
	}

	h := len(MagicString)
	binary.LittleEndian.PutUint16(out[h:h+2], VersionV1)
	binary.LittleEndian.PutUint16(out[h+2:h+4], FlagRandomAccess)
	binary.LittleEndian.PutUint64(out[h+4:h+12], tocOffset)
	binary.LittleEndian.PutUint32(out[h+12:h+16], uint32(len(entries)))

	return &encodeResult{Blob: out, Entries: entries, TOCOffset: tocOffset, TOCLength: tocLength}, nil
}

func decodeNote(blob []byte) (*Note, error) {
	if len(blob) < headerSize || string(blob[:len(MagicString)]) != MagicString {
		return nil, ErrInvalidMagic
	}
	h := len(MagicString)
	if v := binary.LittleEndian.Uint16(blob[h : h+2]); v != VersionV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVer, v)
	}
	if flags := binary.LittleEndian.Uint16(blob[h+2 : h+4]); flags&FlagRandomAccess == 0 {
		return nil, ErrMissingRandomFlag
	}

	tocOffset := binary.LittleEndian.Uint64(blob[h+4 : h+12])
	tocCount := binary.LittleEndian.Uint32(blob[h+12 : h+16])
	if tocOffset > uint64(len(blob)) {
		return nil, ErrInvalidTOC
	}
	if end := tocOffset + uint64(tocCount)*uint64(tocEntSize); end > uint64(len(blob)) {
		return nil, ErrInvalidTOC
	}

	entries := make([]tocEntry, 0, tocCount)
	ptr := int(tocOffset)
	for i := 0; i < int(tocCount); i++ {
		entries = append(entries, tocEntry{
			Kind:   EntryKind(blob[ptr]),
			Offset: binary.LittleEndian.Uint64(blob[ptr+1 : ptr+9]),
			Length: binary.LittleEndian.Uint32(blob[ptr+9 : ptr+13]),
			CRC32:  binary.LittleEndian.Uint32(blob[ptr+13 : ptr+17]),
		})
		ptr += tocEntSize
	}
	if err := validateEntryRanges(entries, len(blob)); err != nil {
		return nil, err
	}

	note := &Note{}
	var text string
	var styles []styleEntry
	for _, e := range entries {
		payload := blob[int(e.Offset) : int(e.Offset)+int(e.Length)]
		if crc32.ChecksumIEEE(payload) != e.CRC32 {
			return nil, fmt.Errorf("%w: %s entry", ErrChecksum, e.Kind)
		}
		switch e.Kind {
		case EntryKindMeta:
			if err := decodeMeta(payload, note); err != nil {
				return nil, err
			}
		case EntryKindText:
			if !utf8.Valid(payload) {
				return nil, errors.New("notedoc: content is not valid UTF-8")
			}
			text = string(payload)
		case EntryKindStyle:
			var err error
			if styles, err = decodeStyleTable(payload); err != nil {
				return nil, err
			}
		case EntryKindPreferences:
			note.Preferences = append([]byte(nil), payload...)
		default:
			// Unknown kinds stay skippable through the TOC.
		}
	}

	doc, err := assembleRuns(text, styles)
	if err != nil {
		return nil, err
	}
	note.Content = doc
	return note, nil
}

func validateEntryRanges(entries []tocEntry, fileLen int) error {
	type rng struct{ start, end uint64 }
	ranges := make([]rng, 0, len(entries))
	for _, e := range entries {
		end := e.Offset + uint64(e.Length)
		if e.Offset > uint64(fileLen) || end > uint64(fileLen) {
			return ErrInvalidEntryRange
		}
		ranges = append(ranges, rng{start: e.Offset, end: end})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	for i := 1; i < len(ranges); i++ {
		if ranges[i].start < ranges[i-1].end {
			return ErrOverlappingEntries
		}
	}
	return nil
}

func encodeMeta(note *Note) []byte {
	out := make([]byte, 0, 16+len(note.Theme))
	out = appendI64(out, note.SavedUnix)
	flags := uint8(0)
	if note.FocusMode {
		flags |= noteFlagFocusMode
	}
	out = append(out, flags)
	return appendString(out, note.Theme)
}

func decodeMeta(b []byte, note *Note) error {
	if len(b) < 9 {
		return errors.New("notedoc: malformed meta entry")
	}
	note.SavedUnix = int64(binary.LittleEndian.Uint64(b[:8]))
	note.FocusMode = b[8]&noteFlagFocusMode != 0
	theme, _, ok := readString(b[9:])
	if !ok {
		return errors.New("notedoc: malformed meta theme")
	}
	note.Theme = theme
	return nil
}

// styleEntry is one row of the style table: a run length in characters and
// the style covering it.
type styleEntry struct {
	Len   uint32
	Style Style
}

const (
	styleFlagBold      = uint8(1 << 0)
	styleFlagItalic    = uint8(1 << 1)
	styleFlagUnderline = uint8(1 << 2)
)

func encodeStyleTable(runs []Run) []byte {
	out := make([]byte, 0, 4+len(runs)*16)
	out = appendU32(out, uint32(len(runs)))
	for _, r := range runs {
		out = appendU32(out, uint32(r.Len()))
		flags := uint8(0)
		if r.Style.Bold {
			flags |= styleFlagBold
		}
		if r.Style.Italic {
			flags |= styleFlagItalic
		}
		if r.Style.Underline {
			flags |= styleFlagUnderline
		}
		out = append(out, flags)
		out = appendU16(out, uint16(r.Style.FontSize))
		out = appendString(out, r.Style.FontFamily)
		out = appendString(out, r.Style.Color)
	}
	return out
}

func decodeStyleTable(b []byte) ([]styleEntry, error) {
	if len(b) < 4 {
		return nil, errors.New("notedoc: malformed style table")
	}
	count := int(binary.LittleEndian.Uint32(b[:4]))
	b = b[4:]
	out := make([]styleEntry, 0, min(count, len(b)/7))
	for i := 0; i < count; i++ {
		if len(b) < 7 {
			return nil, fmt.Errorf("notedoc: malformed style entry %d", i)
		}
		e := styleEntry{Len: binary.LittleEndian.Uint32(b[:4])}
		flags := b[4]
		e.Style.Bold = flags&styleFlagBold != 0
		e.Style.Italic = flags&styleFlagItalic != 0
		e.Style.Underline = flags&styleFlagUnderline != 0
		e.Style.FontSize = int(binary.LittleEndian.Uint16(b[5:7]))
		var ok bool
		if e.Style.FontFamily, b, ok = readString(b[7:]); !ok {
			return nil, fmt.Errorf("notedoc: malformed font family in style entry %d", i)
		}
		if e.Style.Color, b, ok = readString(b); !ok {
			return nil, fmt.Errorf("notedoc: malformed color in style entry %d", i)
		}
		out = append(out, e)
	}
	return out, nil
}

func assembleRuns(text string, styles []styleEntry) (*Document, error) {
	if len(styles) == 0 {
		return PlainDocument(text), nil
	}
	runs := make([]Run, 0, len(styles))
	rest := text
	for i, e := range styles {
		head, tail := splitRunes(rest, int(e.Len))
		if utf8.RuneCountInString(head) != int(e.Len) {
			return nil, fmt.Errorf("notedoc: style entry %d overruns content", i)
		}
		runs = append(runs, Run{Text: head, Style: e.Style})
		rest = tail
	}
	if rest != "" {
		return nil, fmt.Errorf("notedoc: %d characters not covered by the style table", utf8.RuneCountInString(rest))
	}
	return NewDocument(runs...), nil
}

func appendString(dst []byte, s string) []byte {
	dst = appendU32(dst, uint32(len(s)))
	return append(dst, s...)
}

func readString(src []byte) (string, []byte, bool) {
	if len(src) < 4 {
		return "", nil, false
	}
	ln := int(binary.LittleEndian.Uint32(src[:4]))
	src = src[4:]
	if ln < 0 || len(src) < ln {
		return "", nil, false
	}
	return string(src[:ln]), src[ln:], true
}

func appendU16(dst []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, v)
}

func appendU32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

func appendI64(dst []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(v))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
