package caselaw

import "testing"

func TestHTMLToText_Paragraphs(t *testing.T) {
	in := `<html><head><title>ignored</title></head><body>
	<p>First   paragraph
	continues.</p>
	<blockquote>Quoted <a href="/x">holding</a>.</blockquote>
	<style>.x{}</style>
	</body></html>`

	got := HTMLToText(in)

	expected := "First paragraph\ncontinues.\n\nQuoted holding."
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestOpinionText_PrefersPlainText(t *testing.T) {
	op := Opinion{PlainText: "  plain  ", HTML: "<p>html</p>"}
	if got := opinionText(op); got != "plain" {
		t.Errorf("expected 'plain', got %q", got)
	}
}

func TestOpinionText_Empty(t *testing.T) {
	if got := opinionText(Opinion{}); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}
