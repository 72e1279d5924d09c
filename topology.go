package cute

import (
	"slices"

	"github.com/go-lynx/cute/beans"
)

// Scanner produces the descriptors of the components living in namespaces.
// *factory.Registry implements it.
type Scanner interface {
	Scan(namespaces ...string) ([]beans.Descriptor, error)
}

// SortDescriptors returns ds in instantiation order. Descriptors with an
// explicit order come first, in ascending order; descriptors without one keep
// their scan order.
func SortDescriptors(ds []beans.Descriptor) []beans.Descriptor {
	out := slices.Clone(ds)
	slices.SortStableFunc(out, compareOrder)
	return out
}

func compareOrder(a, b beans.Descriptor) int {
	switch {
	case a.TypeID == b.TypeID:
		return 0
	case a.HasOrder() && !b.HasOrder():
		return -1
	case !a.HasOrder() && b.HasOrder():
		return 1
	case !a.HasOrder() && !b.HasOrder():
		return 0
	}
	switch {
	case *a.Order < *b.Order:
		return -1
	case *a.Order > *b.Order:
		return 1
	default:
		return 0
	}
}

// JoinScanners scans every scanner in turn. A type identity seen in an
// earlier scanner hides later registrations of the same type; the first
// scan failure aborts the join.
func JoinScanners(scanners ...Scanner) Scanner {
	return joined(scanners)
}

type joined []Scanner

func (j joined) Scan(namespaces ...string) ([]beans.Descriptor, error) {
	var out []beans.Descriptor
	seen := make(map[string]bool)
	for _, s := range j {
		if s == nil {
			continue
		}
		ds, err := s.Scan(namespaces...)
		if err != nil {
			return nil, err
		}
		for _, d := range ds {
			if seen[d.TypeID] {
				continue
			}
			seen[d.TypeID] = true
			out = append(out, d)
		}
	}
	return out, nil
}

// Unfiltered wraps s so that it scans everything it holds whatever
// namespaces the caller restricts the scan to.
func Unfiltered(s Scanner) Scanner {
	if s == nil {
		return nil
	}
	return unfiltered{s}
}

type unfiltered struct{ s Scanner }

func (u unfiltered) Scan(...string) ([]beans.Descriptor, error) {
	return u.s.Scan()
}
