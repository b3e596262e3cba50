package analyze

import "testing"

func TestSeverityAtLeast(t *testing.T) {
	cases := []struct {
		s, min Severity
		want   bool
	}{
		{SeverityLow, SeverityLow, true},
		{SeverityLow, SeverityMedium, false},
		{SeverityHigh, SeverityMedium, true},
		{SeverityCritical, SeverityCritical, true},
		{SeverityMedium, SeverityCritical, false},
	}
	for _, c := range cases {
		if got := c.s.AtLeast(c.min); got != c.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", c.s, c.min, got, c.want)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want Severity
	}{
		{"low", SeverityLow},
		{"MEDIUM", SeverityMedium},
		{"High", SeverityHigh},
		{"critical", SeverityCritical},
		{"", SeverityLow},
		{"bogus", SeverityLow},
	}
	for _, c := range cases {
		if got := ParseSeverity(c.in); got != c.want {
			t.Errorf("ParseSeverity(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}
