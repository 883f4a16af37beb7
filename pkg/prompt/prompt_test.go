package prompt

import "testing"

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"y": true, "Yes": true, "1": true, "n": false, "no": false, "False": false} {
		got, err := ParseBool(in)
		if err != nil {
			t.Errorf("ParseBool(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseBool(%q) = %t, want %t", in, got, want)
		}
	}
	if _, err := ParseBool("maybe"); err == nil {
		t.Error("ParseBool accepted maybe")
	}
}
