package track

import "testing"

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name       string
		full       string
		wantArtist string
		wantTitle  string
	}{
		{"dash with official suffix", "AURORA - Runaway (Official Audio)", "AURORA", "Runaway"},
		{"bracketed official suffix", "AURORA - Runaway [Official Video]", "AURORA", "Runaway"},
		{"song by artist", "Bohemian Rhapsody by Queen", "Queen", "Bohemian Rhapsody"},
		{"pipe separator", "Adele | Someone Like You", "Adele", "Someone Like You"},
		{"colon separator", "Sia: Chandelier", "Sia", "Chandelier"},
		{"hd suffix stripped", "Toto - Africa HD", "Toto", "Africa"},
		{"no separator", "Believer", "", "Believer"},
		{"featuring stays on title side", "Uptown Funk feat. Bruno Mars - Mark", "Mark", "Uptown Funk feat. Bruno Mars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, title := SplitTitle(tt.full)
			if artist != tt.wantArtist || title != tt.wantTitle {
				t.Fatalf("SplitTitle(%q) = %q, %q; want %q, %q",
					tt.full, artist, title, tt.wantArtist, tt.wantTitle)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{9, "0:09"},
		{65, "1:05"},
		{200, "3:20"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
