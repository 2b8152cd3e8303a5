package notedoc

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	sealedMagic     = "RETRONOTE_SEALED"
	sealedVersionV1 = uint16(1)
	kdfIterations   = 200000
	keySize         = 32
)

type sealFlags uint16

const (
	sealCompressed sealFlags = 1 << iota
	sealEncrypted
)

// sealedHeader is the fixed little-endian prefix of a sealed note file.
type sealedHeader struct {
	Magic      [len(sealedMagic)]byte
	Version    uint16
	Flags      sealFlags
	Salt       [16]byte
	Nonce      [12]byte
	PayloadLen uint64
}

var sealedHeaderSize = binary.Size(sealedHeader{})

var (
	ErrPasswordRequired  = errors.New("notedoc: password required")
	ErrInvalidPassword   = errors.New("notedoc: invalid password")
	ErrInvalidSecureFile = errors.New("notedoc: invalid secure file")
)

type EncryptionOptions struct {
	Enabled  bool
	Password string
}

type SaveOptions struct {
	Compression bool
	Encryption  EncryptionOptions
}

type LoadOptions struct {
	Password string
}

type EnvelopeInfo struct {
	Wrapped     bool
	Compressed  bool
	Encrypted   bool
	EnvelopeVer uint16
}

func InspectEnvelope(path string) (EnvelopeInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return inspectEnvelopeBytes(b)
}

func wrapEnvelope(blob []byte, opts SaveOptions) ([]byte, error) {
	if opts.Encryption.Enabled && blank(opts.Encryption.Password) {
		return nil, ErrPasswordRequired
	}
	var err error
	if opts.Compression {
		if blob, err = compressBytes(blob); err != nil {
			return nil, err
		}
	}
	if opts.Compression || opts.Encryption.Enabled {
		return encodeSecureEnvelope(blob, opts)
	}
	return blob, nil
}

func isSecureEnvelope(b []byte) bool {
	return bytes.HasPrefix(b, []byte(sealedMagic))
}

func readSealedHeader(b []byte) (sealedHeader, error) {
	var h sealedHeader
	if len(b) < sealedHeaderSize {
		return h, ErrInvalidSecureFile
	}
	if err := binary.Read(bytes.NewReader(b[:sealedHeaderSize]), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidSecureFile, err)
	}
	if h.Version != sealedVersionV1 {
		return h, fmt.Errorf("%w: secure envelope version %d", ErrUnsupportedVer, h.Version)
	}
	return h, nil
}

func inspectEnvelopeBytes(b []byte) (EnvelopeInfo, error) {
	if !isSecureEnvelope(b) {
		return EnvelopeInfo{}, nil
	}
	h, err := readSealedHeader(b)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return EnvelopeInfo{
		Wrapped:     true,
		Compressed:  h.Flags&sealCompressed != 0,
		Encrypted:   h.Flags&sealEncrypted != 0,
		EnvelopeVer: h.Version,
	}, nil
}

func sealer(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encodeSecureEnvelope(payload []byte, opts SaveOptions) ([]byte, error) {
	h := sealedHeader{Version: sealedVersionV1}
	copy(h.Magic[:], sealedMagic)
	if opts.Compression {
		h.Flags |= sealCompressed
	}
	if opts.Encryption.Enabled {
		h.Flags |= sealEncrypted
		if _, err := io.ReadFull(rand.Reader, h.Salt[:]); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(rand.Reader, h.Nonce[:]); err != nil {
			return nil, err
		}
		gcm, err := sealer(opts.Encryption.Password, h.Salt[:])
		if err != nil {
			return nil, err
		}
		payload = gcm.Seal(nil, h.Nonce[:], payload, nil)
	}
	h.PayloadLen = uint64(len(payload))

	var buf bytes.Buffer
	buf.Grow(sealedHeaderSize + len(payload))
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

func decodeSecureEnvelope(b []byte, opts LoadOptions) ([]byte, error) {
	if !isSecureEnvelope(b) {
		return nil, ErrInvalidSecureFile
	}
	h, err := readSealedHeader(b)
	if err != nil {
		return nil, err
	}
	payload := b[sealedHeaderSize:]
	if uint64(len(payload)) != h.PayloadLen {
		return nil, ErrInvalidSecureFile
	}
	payload = bytes.Clone(payload)

	if h.Flags&sealEncrypted != 0 {
		if blank(opts.Password) {
			return nil, ErrPasswordRequired
		}
		gcm, err := sealer(opts.Password, h.Salt[:])
		if err != nil {
			return nil, err
		}
		if payload, err = gcm.Open(nil, h.Nonce[:], payload, nil); err != nil {
			return nil, ErrInvalidPassword
		}
	}
	if h.Flags&sealCompressed != 0 {
		if payload, err = decompressBytes(payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSecureFile, err)
		}
	}
	return payload, nil
}

func compressBytes(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(in); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressBytes(in []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
