package wire

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	digest "github.com/opencontainers/go-digest"

	pfxperrors "github.com/alxayo/pfxp/internal/errors"
)

const (
	tagOfferFilename      uint8 = 1
	tagOfferFileSize      uint8 = 2
	tagOfferChunkSize     uint8 = 3
	tagOfferTotalChunks   uint8 = 4
	tagOfferHashAlgorithm uint8 = 5
	tagOfferHashDigest    uint8 = 6
)

// Offer describes the file the sender proposes to transfer.
type Offer struct {
	Filename      string
	FileSize      uint64
	ChunkSize     uint16
	TotalChunks   uint32
	HashAlgorithm string
	HashDigest    []byte
}

// Digest returns the offer's hash_digest as a canonical, comparable
// digest.Digest value (e.g. "sha256:<hex>"), used for logging and
// equality checks rather than as a wire encoding — the wire always
// carries the 32 raw bytes.
func (o Offer) Digest() (digest.Digest, error) {
	if o.HashAlgorithm != "sha256" {
		return "", fmt.Errorf("unsupported hash algorithm %q", o.HashAlgorithm)
	}
	return digest.NewDigestFromEncoded(digest.SHA256, hex.EncodeToString(o.HashDigest)), nil
}

// TotalChunksFor computes total_chunks = ceil(file_size / chunk_size), with
// the boundary case total_chunks == 0 iff file_size == 0.
func TotalChunksFor(fileSize uint64, chunkSize uint16) uint32 {
	if fileSize == 0 {
		return 0
	}
	cs := uint64(chunkSize)
	return uint32((fileSize + cs - 1) / cs)
}

// NormalizeFilename reduces an arbitrary filename to its trailing path
// component and rejects anything that could escape the destination
// directory: absolute paths, ".." segments, and backslash separators
// (treated as a path separator regardless of host platform).
func NormalizeFilename(name string) (string, error) {
	if strings.ContainsRune(name, '\\') {
		return "", fmt.Errorf("filename %q contains a backslash separator", name)
	}
	if path.IsAbs(name) {
		return "", fmt.Errorf("filename %q is an absolute path", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", fmt.Errorf("filename %q contains a parent-directory segment", name)
		}
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("filename %q has no usable trailing component", name)
	}
	return base, nil
}

// BuildOfferPayload serializes an Offer into its TLV payload.
func BuildOfferPayload(o Offer) ([]byte, error) {
	var fileSize [8]byte
	binary.BigEndian.PutUint64(fileSize[:], o.FileSize)
	var chunkSize [2]byte
	binary.BigEndian.PutUint16(chunkSize[:], o.ChunkSize)
	var totalChunks [4]byte
	binary.BigEndian.PutUint32(totalChunks[:], o.TotalChunks)

	return EncodeTLVs([]TLV{
		{Tag: tagOfferFilename, Value: []byte(o.Filename)},
		{Tag: tagOfferFileSize, Value: fileSize[:]},
		{Tag: tagOfferChunkSize, Value: chunkSize[:]},
		{Tag: tagOfferTotalChunks, Value: totalChunks[:]},
		{Tag: tagOfferHashAlgorithm, Value: []byte(o.HashAlgorithm)},
		{Tag: tagOfferHashDigest, Value: o.HashDigest},
	})
}

// ParseOfferPayload reconstructs an Offer from a decoded TLV payload. All
// six tags are required. The filename is normalized per NormalizeFilename.
func ParseOfferPayload(payload []byte) (Offer, error) {
	fields, err := DecodeTLVs(payload)
	if err != nil {
		return Offer{}, err
	}

	filenameRaw, err := requireTag(fields, tagOfferFilename, "decode.offer.filename")
	if err != nil {
		return Offer{}, err
	}
	filename, err := NormalizeFilename(string(filenameRaw))
	if err != nil {
		return Offer{}, pfxperrors.NewPayloadError("decode.offer.filename", err)
	}

	fileSizeRaw, err := requireTag(fields, tagOfferFileSize, "decode.offer.file_size")
	if err != nil {
		return Offer{}, err
	}
	if len(fileSizeRaw) != 8 {
		return Offer{}, pfxperrors.NewPayloadError("decode.offer.file_size", fmt.Errorf("expected 8 bytes, got %d", len(fileSizeRaw)))
	}

	chunkSizeRaw, err := requireTag(fields, tagOfferChunkSize, "decode.offer.chunk_size")
	if err != nil {
		return Offer{}, err
	}
	if len(chunkSizeRaw) != 2 {
		return Offer{}, pfxperrors.NewPayloadError("decode.offer.chunk_size", fmt.Errorf("expected 2 bytes, got %d", len(chunkSizeRaw)))
	}

	totalChunksRaw, err := requireTag(fields, tagOfferTotalChunks, "decode.offer.total_chunks")
	if err != nil {
		return Offer{}, err
	}
	if len(totalChunksRaw) != 4 {
		return Offer{}, pfxperrors.NewPayloadError("decode.offer.total_chunks", fmt.Errorf("expected 4 bytes, got %d", len(totalChunksRaw)))
	}

	hashAlgorithmRaw, err := requireTag(fields, tagOfferHashAlgorithm, "decode.offer.hash_algorithm")
	if err != nil {
		return Offer{}, err
	}

	hashDigestRaw, err := requireTag(fields, tagOfferHashDigest, "decode.offer.hash_digest")
	if err != nil {
		return Offer{}, err
	}

	o := Offer{
		Filename:      filename,
		FileSize:      binary.BigEndian.Uint64(fileSizeRaw),
		ChunkSize:     binary.BigEndian.Uint16(chunkSizeRaw),
		TotalChunks:   binary.BigEndian.Uint32(totalChunksRaw),
		HashAlgorithm: string(hashAlgorithmRaw),
		HashDigest:    append([]byte(nil), hashDigestRaw...),
	}

	if want := TotalChunksFor(o.FileSize, o.ChunkSize); o.TotalChunks != want {
		return Offer{}, pfxperrors.NewPayloadError("decode.offer.total_chunks", fmt.Errorf("total_chunks %d does not match ceil(file_size/chunk_size) = %d", o.TotalChunks, want))
	}

	return o, nil
}
