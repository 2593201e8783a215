package query

import "testing"

func TestAutoFuzziness(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0}, {1, 0}, {2, 0},
		{3, 1}, {5, 1},
		{6, 2}, {20, 2},
	}
	for _, tt := range tests {
		if got := AutoFuzziness(tt.n); got != tt.want {
			t.Errorf("AutoFuzziness(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestIsMatchAll(t *testing.T) {
	q := Query{}
	if !q.IsMatchAll() {
		t.Error("nil Match should be match-all")
	}
	q.Match = &MultiMatch{Terms: []Term{{Text: "ocean", Fuzziness: 1}}}
	if q.IsMatchAll() {
		t.Error("non-nil Match reported match-all")
	}
}
