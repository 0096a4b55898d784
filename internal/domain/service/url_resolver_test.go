package service

import (
	"reflect"
	"testing"

	"github.com/wolfitem/news-enricher/internal/domain/model"
)

func TestResolveURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  string
		base string
		want string
		ok   bool
	}{
		{name: "absolute", ref: "https://cdn.ex.com/a.jpg", base: "https://ex.com/post", want: "https://cdn.ex.com/a.jpg", ok: true},
		{name: "root relative", ref: "/img/x.png", base: "https://ex.com/a", want: "https://ex.com/img/x.png", ok: true},
		{name: "path relative", ref: "x.png", base: "https://ex.com/news/story", want: "https://ex.com/news/x.png", ok: true},
		{name: "protocol relative", ref: "//cdn.ex.com/y.jpg", base: "https://ex.com/a", want: "https://cdn.ex.com/y.jpg", ok: true},
		{name: "surrounding whitespace", ref: "  /z.gif ", base: "http://ex.com/", want: "http://ex.com/z.gif", ok: true},
		{name: "empty", ref: "", base: "https://ex.com/", ok: false},
		{name: "blank", ref: "   ", base: "https://ex.com/", ok: false},
		{name: "data uri", ref: "data:image/png;base64,AAAA", base: "https://ex.com/", ok: false},
		{name: "data uri upper case", ref: " DATA:image/gif;base64,R0lG", base: "https://ex.com/", ok: false},
		{name: "relative without base", ref: "/a.jpg", base: "", ok: false},
		{name: "unparsable", ref: "http://[::1", base: "https://ex.com/", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ResolveURL(tt.ref, tt.base)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ResolveURL(%q, %q) = %q, %v, want %q, %v", tt.ref, tt.base, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolveURLAbsoluteIsFixedPoint(t *testing.T) {
	t.Parallel()

	for _, u := range []string{
		"https://ex.com/img/x.png",
		"http://ex.com/a?b=c&d=e",
		"https://cdn.ex.com:8443/path/to/pic.webp",
	} {
		for _, base := range []string{"", "https://other.org/x/y", "http://ex.com/"} {
			got, ok := ResolveURL(u, base)
			if !ok || got != u {
				t.Errorf("ResolveURL(%q, %q) = %q, %v, want the input back", u, base, got, ok)
			}
		}
	}
}

func TestSrcset(t *testing.T) {
	t.Parallel()

	base := "https://ex.com/post"

	got, ok := SelectBestFromSrcset("a.jpg 100w, b.jpg 300w, c.jpg 50w", base)
	if !ok || got != "https://ex.com/b.jpg" {
		t.Errorf("SelectBestFromSrcset() = %q, %v, want https://ex.com/b.jpg", got, ok)
	}

	got, ok = SelectBestFromSrcset("first.jpg 2x, second.jpg 1.5x", base)
	if !ok || got != "https://ex.com/first.jpg" {
		t.Errorf("density descriptors: got %q, %v, want the first candidate", got, ok)
	}

	got, ok = SelectBestFromSrcset("small.jpg 300w, big.jpg 300w", base)
	if !ok || got != "https://ex.com/small.jpg" {
		t.Errorf("equal widths: got %q, want declaration order kept", got)
	}

	if got, ok := SelectBestFromSrcset(" , ", base); ok {
		t.Errorf("empty srcset returned %q", got)
	}

	got, ok = SelectBestFromSrcset("data:image/gif 900w, real.jpg 10w", base)
	if !ok || got != "https://ex.com/real.jpg" {
		t.Errorf("data candidate not dropped: got %q, %v", got, ok)
	}

	got, ok = SelectBestFromSrcset("data:image/png;base64,AAA 10w, /d.jpg 5w", base)
	if !ok || got != "https://ex.com/d.jpg" {
		t.Errorf("data payload split at its comma: got %q, %v, want https://ex.com/d.jpg", got, ok)
	}

	if got := ParseSrcset("data:image/png;base64,AAAA 900w", base); len(got) != 0 {
		t.Errorf("data candidate produced %+v", got)
	}

	want := []model.ImageCandidate{
		{Href: "https://ex.com/a.jpg", Width: 100},
		{Href: "https://ex.com/b.jpg", Width: 0},
		{Href: "https://ex.com/c.jpg", Width: 640},
	}
	if got := ParseSrcset("a.jpg 100w, b.jpg, c.jpg 640w", base); !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSrcset() = %+v, want %+v", got, want)
	}
}
