package handlers

import (
	"testing"

	"github.com/gu-collab/gucollab/internal/models"
)

func TestParseLinks(t *testing.T) {
	got, err := parseLinks(`[{"url":"https://example.com","name":"Example"},{"url":"  ","name":"blank"}]`)
	if err != nil {
		t.Fatalf("parseLinks: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("links = %d, want 1 (blank URL skipped)", len(got))
	}
	if got[0].Type != models.AttachmentLink {
		t.Errorf("type = %q, want %q", got[0].Type, models.AttachmentLink)
	}
	if got[0].URL != "https://example.com" {
		t.Errorf("url = %q", got[0].URL)
	}
}

func TestParseLinksEmpty(t *testing.T) {
	got, err := parseLinks("")
	if err != nil {
		t.Fatalf("parseLinks: %v", err)
	}
	if got != nil {
		t.Fatalf("links = %v, want nil", got)
	}
}

func TestParseLinksMalformed(t *testing.T) {
	if _, err := parseLinks("{not json"); err == nil {
		t.Fatal("malformed links accepted")
	}
}

func TestAttachmentKind(t *testing.T) {
	cases := []struct {
		ext  string
		want string
		ok   bool
	}{
		{".jpg", models.AttachmentImage, true},
		{".png", models.AttachmentImage, true},
		{".webp", models.AttachmentImage, true},
		{".pdf", models.AttachmentPDF, true},
		{".exe", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := attachmentKind(c.ext)
		if got != c.want || ok != c.ok {
			t.Errorf("attachmentKind(%q) = (%q, %v), want (%q, %v)", c.ext, got, ok, c.want, c.ok)
		}
	}
}

func TestParseDeadlineField(t *testing.T) {
	if got, err := parseDeadlineField(""); err != nil || got != nil {
		t.Fatalf("empty deadline = (%v, %v), want (nil, nil)", got, err)
	}

	got, err := parseDeadlineField("2026-09-15")
	if err != nil {
		t.Fatalf("date-only deadline: %v", err)
	}
	if got == nil || got.Year() != 2026 || got.Month() != 9 || got.Day() != 15 {
		t.Fatalf("parsed deadline = %v", got)
	}

	if _, err := parseDeadlineField("next tuesday"); err == nil {
		t.Fatal("nonsense deadline accepted")
	}
}
