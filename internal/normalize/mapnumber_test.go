package normalize

import "testing"

func TestMapNumber(t *testing.T) {
	cases := []struct {
		in     string
		want   int
		wantOk bool
	}{
		{"Will Team A win Map 2 vs Team B?", 2, true},
		{"Will Team A win Game 3?", 3, true},
		{"Over 2.5 maps in the series", 0, false},
		{"Will it go over 3 maps?", 0, false},
		{"No map reference here", 0, false},
		{"MAP 5 decider", 5, true},
	}
	for _, c := range cases {
		n, ok := MapNumber(c.in)
		if ok != c.wantOk || (ok && n != c.want) {
			t.Errorf("MapNumber(%q) = (%d,%v), want (%d,%v)", c.in, n, ok, c.want, c.wantOk)
		}
	}
}
