package cute

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lynx/cute/beans"
)

func descriptor(id string, order ...int) beans.Descriptor {
	d := beans.Descriptor{TypeID: "example.com/app." + id}
	if len(order) > 0 {
		d.Order = beans.OrderOf(order[0])
	}
	return d
}

func typeIDs(ds []beans.Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = beans.SimpleName(d.TypeID)
	}
	return out
}

func TestSortDescriptors(t *testing.T) {
	in := []beans.Descriptor{
		descriptor("A"),
		descriptor("B", 5),
		descriptor("C"),
		descriptor("D", 1),
		descriptor("E", 5),
	}
	out := SortDescriptors(in)
	assert.Equal(t, []string{"D", "B", "E", "A", "C"}, typeIDs(out))
	// input untouched
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, typeIDs(in))
}

func TestCompareOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b beans.Descriptor
		want int
	}{
		{"same type", descriptor("A", 1), descriptor("A", 9), 0},
		{"ordered before unordered", descriptor("A", 100), descriptor("B"), -1},
		{"unordered after ordered", descriptor("A"), descriptor("B", -100), 1},
		{"both unordered", descriptor("A"), descriptor("B"), 0},
		{"ascending", descriptor("A", 1), descriptor("B", 2), -1},
		{"descending", descriptor("A", 3), descriptor("B", 2), 1},
		{"equal order", descriptor("A", 2), descriptor("B", 2), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareOrder(tt.a, tt.b))
		})
	}
}

func TestSortDescriptors_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := rng.Intn(20)
		in := make([]beans.Descriptor, n)
		scanPos := make(map[string]int, n)
		for i := range in {
			id := fmt.Sprintf("C%d", i)
			if rng.Intn(2) == 0 {
				in[i] = descriptor(id, rng.Intn(5)-2)
			} else {
				in[i] = descriptor(id)
			}
			scanPos[in[i].TypeID] = i
		}

		out := SortDescriptors(in)
		require.Len(t, out, n)
		for i := 0; i+1 < len(out); i++ {
			a, b := out[i], out[i+1]
			if b.HasOrder() {
				require.True(t, a.HasOrder(), "round %d: unordered %s before ordered %s", round, a.TypeID, b.TypeID)
				require.LessOrEqual(t, *a.Order, *b.Order)
			}
			sameRank := !a.HasOrder() && !b.HasOrder() || a.HasOrder() && b.HasOrder() && *a.Order == *b.Order
			if sameRank {
				require.Less(t, scanPos[a.TypeID], scanPos[b.TypeID], "round %d: scan order not preserved", round)
			}
		}
	}
}

func TestSortDescriptors_StableForAllPermutations(t *testing.T) {
	base := []beans.Descriptor{descriptor("X"), descriptor("Y"), descriptor("R", 1), descriptor("Z")}
	permute(base, 0, func(p []beans.Descriptor) {
		var want []string
		for _, d := range p {
			if !d.HasOrder() {
				want = append(want, beans.SimpleName(d.TypeID))
			}
		}
		got := typeIDs(SortDescriptors(p))
		assert.Equal(t, "R", got[0])
		assert.Equal(t, want, got[1:])
	})
}

func permute(ds []beans.Descriptor, k int, visit func([]beans.Descriptor)) {
	if k == len(ds) {
		visit(append([]beans.Descriptor(nil), ds...))
		return
	}
	for i := k; i < len(ds); i++ {
		ds[k], ds[i] = ds[i], ds[k]
		permute(ds, k+1, visit)
		ds[k], ds[i] = ds[i], ds[k]
	}
}

type stubScanner struct {
	ds  []beans.Descriptor
	err error
}

func (s stubScanner) Scan(...string) ([]beans.Descriptor, error) { return s.ds, s.err }

func TestJoinScanners(t *testing.T) {
	first := stubScanner{ds: []beans.Descriptor{descriptor("A", 1), descriptor("B")}}
	second := stubScanner{ds: []beans.Descriptor{descriptor("A"), descriptor("C")}}

	ds, err := JoinScanners(first, nil, second).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, typeIDs(ds))
	assert.True(t, ds[0].HasOrder())

	_, err = JoinScanners(first, stubScanner{err: assert.AnError}).Scan()
	assert.ErrorIs(t, err, assert.AnError)
}

type recordingScanner struct{ got *[]string }

func (s recordingScanner) Scan(namespaces ...string) ([]beans.Descriptor, error) {
	*s.got = append([]string(nil), namespaces...)
	return []beans.Descriptor{descriptor("A")}, nil
}

func TestUnfiltered(t *testing.T) {
	got := []string{"unset"}
	ds, err := JoinScanners(Unfiltered(recordingScanner{got: &got})).Scan("example.com/billing")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{"A"}, typeIDs(ds))
	assert.Nil(t, Unfiltered(nil))
}
