package asx

import (
	"strconv"

	"github.com/joeycumines/go-utilpkg/jsonenc"
)

// Snapshot is a deterministic point-in-time JSON rendering of a Runtime's
// observable state: every region and task's handle, state, and (for
// regions) poisoned flag. Field order is fixed by construction, not by a
// generic reflective marshaller, so two runtimes that reached the same
// state via different wall-clock timing still produce byte-identical
// snapshots (spec.md §4.10's determinism requirement).
type Snapshot struct {
	JSON   []byte
	Digest uint64
}

// Snapshot renders rt's current state. Grounded on jsonenc's
// allocation-conscious Append* helpers (the same package the teacher's
// logiface-stumpy backend uses for its own JSON writer), used here directly
// rather than through a generic encoding/json pass, so field order is
// exactly what this function writes.
func (rt *Runtime) Snapshot() Snapshot {
	buf := make([]byte, 0, 4096)
	buf = append(buf, '{')

	buf = jsonenc.AppendString(buf, "clock")
	buf = append(buf, ':')
	buf = strconv.AppendUint(buf, uint64(rt.logicalNow()), 10)

	buf = append(buf, ',')
	buf = jsonenc.AppendString(buf, "regions")
	buf = append(buf, ':', '[')
	first := true
	for i := range rt.regions.slots {
		s := &rt.regions.slots[i]
		if !s.inUse {
			continue
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = append(buf, '{')
		buf = jsonenc.AppendString(buf, "handle")
		buf = append(buf, ':')
		buf = strconv.AppendUint(buf, uint64(rt.regions.handle(i)), 10)
		buf = append(buf, ',')
		buf = jsonenc.AppendString(buf, "state")
		buf = append(buf, ':')
		buf = jsonenc.AppendString(buf, s.state.String())
		buf = append(buf, ',')
		buf = jsonenc.AppendString(buf, "poisoned")
		buf = append(buf, ':')
		buf = strconv.AppendBool(buf, s.poisoned)
		buf = append(buf, ',')
		buf = jsonenc.AppendString(buf, "task_count")
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(s.taskCount), 10)
		buf = append(buf, ',')
		buf = jsonenc.AppendString(buf, "obligation_count")
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(s.obligCount), 10)
		buf = append(buf, '}')
	}
	buf = append(buf, ']')

	buf = append(buf, ',')
	buf = jsonenc.AppendString(buf, "tasks")
	buf = append(buf, ':', '[')
	first = true
	for i := 0; i < rt.tasks.next; i++ {
		s := &rt.tasks.slots[i]
		if !s.inUse {
			continue
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = append(buf, '{')
		buf = jsonenc.AppendString(buf, "handle")
		buf = append(buf, ':')
		buf = strconv.AppendUint(buf, uint64(rt.tasks.handle(i)), 10)
		buf = append(buf, ',')
		buf = jsonenc.AppendString(buf, "state")
		buf = append(buf, ':')
		buf = jsonenc.AppendString(buf, s.state.String())
		if taskIsTerminal(s.state) {
			buf = append(buf, ',')
			buf = jsonenc.AppendString(buf, "outcome")
			buf = append(buf, ':')
			buf = jsonenc.AppendString(buf, s.outcome.String())
		}
		buf = append(buf, '}')
	}
	buf = append(buf, ']')

	buf = append(buf, ',')
	buf = jsonenc.AppendString(buf, "trace_digest")
	buf = append(buf, ':')
	buf = strconv.AppendUint(buf, rt.trace.Digest(), 10)

	buf = append(buf, '}')

	digest := digestOffsetBasis
	digest = digestMixBytes(digest, buf)

	return Snapshot{JSON: buf, Digest: digest}
}
