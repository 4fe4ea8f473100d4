package gitsource

import (
	"path/filepath"
	"testing"

	"github.com/conorfennell/recall/internal/logger"
)

func TestLocalPath(t *testing.T) {
	m := NewMirror("repos", logger.Nop())

	cases := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "https url",
			url:  "https://github.com/acme/decks.git",
			want: filepath.Join("repos", "github.com", "acme", "decks"),
		},
		{
			name: "https url without suffix",
			url:  "https://gitlab.com/team/cards",
			want: filepath.Join("repos", "gitlab.com", "team", "cards"),
		},
		{
			name: "scp-like address",
			url:  "git@github.com:acme/decks.git",
			want: filepath.Join("repos", "github.com", "acme", "decks"),
		},
		{
			name:    "unparseable",
			url:     "decks/go",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := m.LocalPath(tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("LocalPath(%q) expected an error, got %q", tc.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LocalPath(%q) returned error: %v", tc.url, err)
			}
			if got != tc.want {
				t.Errorf("LocalPath(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}
