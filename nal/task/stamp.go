package task

// MaxStampLength bounds how many origin ids a derived stamp may track.
// A merge that would exceed it is rejected and the derivation dropped,
// keeping evidential lineage exact rather than silently truncated.
const MaxStampLength = 8

// Stamp is the evidential base of a task: the sorted set of input serial
// ids its evidence traces back to. Two premises may combine only if their
// stamps are disjoint (no circular self-support).
type Stamp struct {
	Evidence []uint64
}

// NewStamp creates the stamp of a fresh input task with a single origin id.
func NewStamp(id uint64) Stamp {
	return Stamp{Evidence: []uint64{id}}
}

// Overlaps reports whether the two evidential bases share any origin id.
// Both sides are sorted, so this is a linear merge scan.
func (s Stamp) Overlaps(o Stamp) bool {
	i, j := 0, 0
	for i < len(s.Evidence) && j < len(o.Evidence) {
		switch {
		case s.Evidence[i] == o.Evidence[j]:
			return true
		case s.Evidence[i] < o.Evidence[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// Merge unions two disjoint stamps. ok is false when the union would
// exceed MaxStampLength or the stamps overlap; the caller must drop the
// derivation in either case.
func (s Stamp) Merge(o Stamp) (merged Stamp, ok bool) {
	if len(s.Evidence)+len(o.Evidence) > MaxStampLength {
		return Stamp{}, false
	}
	out := make([]uint64, 0, len(s.Evidence)+len(o.Evidence))
	i, j := 0, 0
	for i < len(s.Evidence) && j < len(o.Evidence) {
		switch {
		case s.Evidence[i] == o.Evidence[j]:
			return Stamp{}, false
		case s.Evidence[i] < o.Evidence[j]:
			out = append(out, s.Evidence[i])
			i++
		default:
			out = append(out, o.Evidence[j])
			j++
		}
	}
	out = append(out, s.Evidence[i:]...)
	out = append(out, o.Evidence[j:]...)
	return Stamp{Evidence: out}, true
}

// Equal reports whether two stamps track the identical evidence set.
func (s Stamp) Equal(o Stamp) bool {
	if len(s.Evidence) != len(o.Evidence) {
		return false
	}
	for i := range s.Evidence {
		if s.Evidence[i] != o.Evidence[i] {
			return false
		}
	}
	return true
}
