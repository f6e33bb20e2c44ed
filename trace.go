package asx

import (
	"encoding/binary"
	"io"
)

// traceMagic identifies the binary trace export format.
const traceMagic uint32 = 0x41535874 // "ASXt"

const traceFormatVersion uint32 = 1

// traceHeaderSize is the fixed 24-byte header: magic(4) + version(4) +
// event_count(8) + digest(8).
const traceHeaderSize = 24

// traceRecordSize is the fixed 24-byte per-event record: seq(8) + time(8) +
// kind(4) + subject_slot(4).
const traceRecordSize = 24

const defaultTraceCapacity = 4096

// TraceRecord is one trace ring entry. Subject is the bare slot index of
// the handle involved (not the full 64-bit Handle), which is sufficient to
// reconstruct scheduling order during replay since slot assignment is
// itself deterministic from the same starting state.
type TraceRecord struct {
	Seq     uint64
	Time    LogicalTime
	Kind    TraceEventKind
	Subject uint32
}

// traceRing is the trace ring plus its running digest, kept strictly
// incremental: the digest is folded in at Push time and never re-derived
// from ring contents, so it remains meaningful even after old records have
// been overwritten (spec.md §4.9).
type traceRing struct {
	ring   *fixedRing[TraceRecord]
	digest uint64
}

func newTraceRing(capacity int) *traceRing {
	return &traceRing{
		ring:   newFixedRing[TraceRecord](capacity),
		digest: digestOffsetBasis,
	}
}

// Push records one trace event and folds it into the running digest.
func (t *traceRing) Push(now LogicalTime, kind TraceEventKind, subject uint32) uint64 {
	seq := t.ring.Total()
	rec := TraceRecord{Seq: seq, Time: now, Kind: kind, Subject: subject}
	t.ring.Push(rec)
	t.digest = digestMixU64(t.digest, rec.Seq)
	t.digest = digestMixU64(t.digest, uint64(rec.Time))
	t.digest = digestMixU64(t.digest, uint64(rec.Kind)<<32|uint64(rec.Subject))
	return seq
}

// Digest returns the current running digest over every record ever pushed,
// including ones since overwritten.
func (t *traceRing) Digest() uint64 { return t.digest }

// EventCount returns the total number of events ever pushed.
func (t *traceRing) EventCount() uint64 { return t.ring.Total() }

// Export writes the binary trace format: a 24-byte header followed by one
// 24-byte record per currently-readable entry (oldest first). All
// multi-byte fields are little-endian (spec.md §4.9/§6).
func (t *traceRing) Export(w io.Writer) error {
	var hdr [traceHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], traceMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], traceFormatVersion)
	binary.LittleEndian.PutUint64(hdr[8:16], t.ring.Total())
	binary.LittleEndian.PutUint64(hdr[16:24], t.digest)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	var buf [traceRecordSize]byte
	var werr error
	t.ring.Each(func(_ uint64, rec TraceRecord) bool {
		binary.LittleEndian.PutUint64(buf[0:8], rec.Seq)
		binary.LittleEndian.PutUint64(buf[8:16], uint64(rec.Time))
		binary.LittleEndian.PutUint32(buf[16:20], uint32(rec.Kind))
		binary.LittleEndian.PutUint32(buf[20:24], rec.Subject)
		if _, werr = w.Write(buf[:]); werr != nil {
			return false
		}
		return true
	})
	return werr
}

// ImportedTrace is the parsed result of TraceImport: the header fields plus
// every record read, for use as a replay reference (see replay.go).
type ImportedTrace struct {
	EventCount uint64
	Digest     uint64
	Records    []TraceRecord
}

// TraceImport parses a binary trace previously written by Export. It
// returns StatusInvalidArgument for a bad magic/version and
// StatusBufferTooSmall for a truncated stream.
func TraceImport(r io.Reader) (ImportedTrace, Status) {
	var hdr [traceHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return ImportedTrace{}, StatusBufferTooSmall
	}
	magic := binary.LittleEndian.Uint32(hdr[0:4])
	version := binary.LittleEndian.Uint32(hdr[4:8])
	if magic != traceMagic || version != traceFormatVersion {
		return ImportedTrace{}, StatusInvalidArgument
	}
	eventCount := binary.LittleEndian.Uint64(hdr[8:16])
	digest := binary.LittleEndian.Uint64(hdr[16:24])

	out := ImportedTrace{EventCount: eventCount, Digest: digest}
	var buf [traceRecordSize]byte
	for {
		_, err := io.ReadFull(r, buf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return ImportedTrace{}, StatusBufferTooSmall
		}
		out.Records = append(out.Records, TraceRecord{
			Seq:     binary.LittleEndian.Uint64(buf[0:8]),
			Time:    LogicalTime(binary.LittleEndian.Uint64(buf[8:16])),
			Kind:    TraceEventKind(binary.LittleEndian.Uint32(buf[16:20])),
			Subject: binary.LittleEndian.Uint32(buf[20:24]),
		})
	}
	return out, StatusOK
}
