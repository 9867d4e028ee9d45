package naming

import "testing"

func TestNormalizeGenre(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hip-hop", "Hip Hop"},
		{"EDM", "Electronic"},
		{"  progressive   rock ", "Progressive Rock"},
		{"jazz", "Jazz"},
		{"", Generic},
		{"Unknown", Generic},
		{"other", Generic},
		{"xx", Generic},
		{"r&b", "R&B"},
		{"Drum and Bass", "Drum & Bass"},
		{"post-punk", "Post-punk"},
	}
	for _, tt := range tests {
		if got := NormalizeGenre(tt.in); got != tt.want {
			t.Errorf("NormalizeGenre(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeGenre_Idempotent(t *testing.T) {
	inputs := []string{"hip-hop", "EDM", "indie rock", "", "lo-fi", "K-POP", "singer-songwriter", "Ümlaut metal", "idm", "Music"}
	for in := range canonicalGenres {
		inputs = append(inputs, in)
	}
	for _, in := range inputs {
		once := NormalizeGenre(in)
		if twice := NormalizeGenre(once); twice != once {
			t.Errorf("NormalizeGenre(NormalizeGenre(%q)) = %q, want %q", in, twice, once)
		}
	}
}
