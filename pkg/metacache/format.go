package metacache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/leddt/bwtui/pkg/vaultentry"
)

// Magic identifies a bwtui metadata cache file: "BWTUIMC1".
var Magic = [8]byte{'B', 'W', 'T', 'U', 'I', 'M', 'C', '1'}

// FormatVersion is the current on-disk layout version. A file whose
// version does not match exactly is treated as corrupt, per spec.md
// §4.2's "recoverable by deletion and re-sync" invariant.
const FormatVersion = 2

// Document is the persisted form of the metadata cache: version, the
// account that produced the entries, a creation timestamp, and the
// ordered list of entry metadata. It is self-contained — nothing it
// holds refers to any other file on disk.
type Document struct {
	Version   int
	AccountID string
	CreatedAt time.Time
	Entries   []vaultentry.Metadata
}

// wireEntry is the JSON-encodable shape of vaultentry.Metadata used
// inside the binary envelope; the outer framing (magic, version,
// length, body checksum) is fixed-width binary so a corrupt length
// field or body is caught before ever invoking the JSON decoder.
type wireEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        int      `json:"kind"`
	Username    string   `json:"username,omitempty"`
	URIs        []string `json:"uris,omitempty"`
	FolderID    string   `json:"folder_id,omitempty"`
	Favorite    bool     `json:"favorite,omitempty"`
	Revision    int64    `json:"revision"`
	HasPassword bool     `json:"has_password,omitempty"`
	HasTOTP     bool     `json:"has_totp,omitempty"`
}

type wireDocument struct {
	AccountID string      `json:"account_id"`
	CreatedAt int64       `json:"created_at"`
	Entries   []wireEntry `json:"entries"`
}

// Encode writes the binary envelope: magic, version (uint32 BE), body
// length (uint32 BE), the JSON body, then the body's CRC-32 (IEEE,
// uint32 BE).
func Encode(w io.Writer, doc *Document) error {
	body, err := json.Marshal(toWire(doc))
	if err != nil {
		return fmt.Errorf("metacache: marshal body: %w", err)
	}

	if _, err := w.Write(Magic[:]); err != nil {
		return fmt.Errorf("metacache: write magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("metacache: write version: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(body))); err != nil {
		return fmt.Errorf("metacache: write length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("metacache: write body: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, crc32.ChecksumIEEE(body)); err != nil {
		return fmt.Errorf("metacache: write checksum: %w", err)
	}
	return nil
}

// ErrCorrupt is returned by Decode for any structural failure: bad
// magic, unsupported version, truncated body, checksum mismatch, or
// invalid JSON.
var ErrCorrupt = fmt.Errorf("metacache: cache file is corrupt")

// maxBodyLen is a sanity bound against a corrupted length field causing
// an enormous allocation.
const maxBodyLen = 64 * 1024 * 1024

// Decode reads and validates the binary envelope produced by Encode.
func Decode(r io.Reader) (*Document, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, ErrCorrupt
	}
	if magic != Magic {
		return nil, ErrCorrupt
	}

	var version, length uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, ErrCorrupt
	}
	if version != FormatVersion {
		return nil, ErrCorrupt
	}
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, ErrCorrupt
	}
	if length > maxBodyLen {
		return nil, ErrCorrupt
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, ErrCorrupt
	}
	var sum uint32
	if err := binary.Read(r, binary.BigEndian, &sum); err != nil || sum != crc32.ChecksumIEEE(body) {
		return nil, ErrCorrupt
	}

	var wd wireDocument
	if err := json.Unmarshal(body, &wd); err != nil {
		return nil, ErrCorrupt
	}

	return fromWire(&wd), nil
}

func toWire(doc *Document) *wireDocument {
	wd := &wireDocument{
		AccountID: doc.AccountID,
		CreatedAt: doc.CreatedAt.Unix(),
		Entries:   make([]wireEntry, 0, len(doc.Entries)),
	}
	for _, e := range doc.Entries {
		wd.Entries = append(wd.Entries, wireEntry{
			ID:          e.ID,
			Name:        e.Name,
			Kind:        int(e.Kind),
			Username:    e.Username,
			URIs:        e.URIs,
			FolderID:    e.FolderID,
			Favorite:    e.Favorite,
			Revision:    e.Revision.Unix(),
			HasPassword: e.HasPassword,
			HasTOTP:     e.HasTOTP,
		})
	}
	return wd
}

func fromWire(wd *wireDocument) *Document {
	doc := &Document{
		AccountID: wd.AccountID,
		CreatedAt: time.Unix(wd.CreatedAt, 0).UTC(),
		Version:   FormatVersion,
		Entries:   make([]vaultentry.Metadata, 0, len(wd.Entries)),
	}
	for _, e := range wd.Entries {
		doc.Entries = append(doc.Entries, vaultentry.Metadata{
			ID:          e.ID,
			Name:        e.Name,
			Kind:        vaultentry.Kind(e.Kind),
			Username:    e.Username,
			URIs:        e.URIs,
			FolderID:    e.FolderID,
			Favorite:    e.Favorite,
			Revision:    time.Unix(e.Revision, 0).UTC(),
			HasPassword: e.HasPassword,
			HasTOTP:     e.HasTOTP,
		})
	}
	return doc
}
