package normalize

import "testing"

func TestTeam(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Cloud9 2", "cloud9"},
		{"Cloud9", "cloud9"},
		{"Team Liquid", "liquid"},
		{"G2 Esports", "g2"},
		{"FC", "fc"}, // stopword filter would empty this; falls back to pre-filter tokens
		{"The Boston Celtics", "bostonceltics"},
		{"M80", "m80"},
	}
	for _, c := range cases {
		if got := Team(c.in); got != c.want {
			t.Errorf("Team(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTeamIdempotent(t *testing.T) {
	inputs := []string{"Cloud9 2", "G2 Esports", "The Boston Celtics", "drx", "T1"}
	for _, in := range inputs {
		once := Team(in)
		twice := Team(once)
		if once != twice {
			t.Errorf("Team not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
