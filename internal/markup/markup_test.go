package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"retronote/pkg/notedoc"
)

func TestRenderOneSpanPerRun(t *testing.T) {
	doc := notedoc.NewDocument(
		notedoc.Run{Text: "plain "},
		notedoc.Run{Text: "a<b>", Style: notedoc.Style{Bold: true, FontSize: 18, Color: "#ff0000"}},
		notedoc.Run{Text: "\nnext", Style: notedoc.Style{Italic: true, Underline: true, FontFamily: "Courier New"}},
	)
	got := Render(doc)
	want := `<span>plain </span>` +
		`<span style="font-weight: bold; font-size: 18px; color: #ff0000">a&lt;b&gt;</span>` +
		`<span style="font-style: italic; text-decoration: underline; font-family: Courier New"><br>next</span>`
	if got != want {
		t.Fatalf("Render mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestParseRenderRoundTrip(t *testing.T) {
	doc := notedoc.NewDocument(
		notedoc.Run{Text: "Hello "},
		notedoc.Run{Text: "bold & \"quoted\"", Style: notedoc.Style{Bold: true}},
		notedoc.Run{Text: "\n", Style: notedoc.Style{Bold: true, FontSize: 22}},
		notedoc.Run{Text: "colored", Style: notedoc.Style{Color: "#12ab34", FontFamily: "Georgia", Underline: true}},
		notedoc.Run{Text: "ünïcödé", Style: notedoc.Style{Italic: true}},
	)
	parsed, err := Parse(Render(doc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if diff := cmp.Diff(doc.Runs(), parsed.Runs()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripQuotesUnusualValues(t *testing.T) {
	doc := notedoc.NewDocument(
		notedoc.Run{Text: "semi", Style: notedoc.Style{FontFamily: `Foo;Bar "Pro"`}},
		notedoc.Run{Text: "slash", Style: notedoc.Style{FontFamily: `Back\Slash`, Bold: true}},
		notedoc.Run{Text: "plain", Style: notedoc.Style{FontFamily: "Georgia, serif"}},
	)
	out := Render(doc)
	if !strings.Contains(out, "font-family: Georgia, serif") {
		t.Fatalf("plain family should stay bare:\n%s", out)
	}
	parsed, err := Parse(out)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if diff := cmp.Diff(doc.Runs(), parsed.Runs()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseQuotedDeclarations(t *testing.T) {
	doc, err := Parse(`<span style="font-family: 'A;B'; font-weight: bold">x</span>`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []notedoc.Run{{Text: "x", Style: notedoc.Style{Bold: true, FontFamily: "A;B"}}}
	if diff := cmp.Diff(want, doc.Runs()); diff != "" {
		t.Fatalf("quoted declaration mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLegacyFontSize(t *testing.T) {
	src := `<span style="font-size: 20px">a<font size="14">b</font><font size="3">c</font></span>` +
		`<font size="22" color="red">d</font>`
	doc, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	want := []notedoc.Run{
		{Text: "a", Style: notedoc.Style{FontSize: 20}},
		{Text: "b", Style: notedoc.Style{FontSize: 14}},
		{Text: "c", Style: notedoc.Style{FontSize: 20}},
		{Text: "d", Style: notedoc.Style{FontSize: 22, Color: "#ff0000"}},
	}
	if diff := cmp.Diff(want, doc.Runs()); diff != "" {
		t.Fatalf("legacy import mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSemanticTagsAndBlocks(t *testing.T) {
	src := `<div>one <b>two</b></div><div><i>three</i><br></div><hr><p style="color: rgb(0, 128, 255)">four</p>` +
		`<script>alert(1)</script>`
	doc, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	wantText := "one two\nthree\n" + HorizontalRule + "\nfour"
	if got := doc.Text(); got != wantText {
		t.Fatalf("text = %q, want %q", got, wantText)
	}
	st := doc.StyleBefore(doc.Len())
	if st.Color != "#0080ff" {
		t.Fatalf("rgb color not normalized: %v", st)
	}
	if err := doc.Check(); err != nil {
		t.Fatalf("parsed document not canonical: %v", err)
	}
}

func TestParseCSSOverridesNesting(t *testing.T) {
	doc, err := Parse(`<b>x<span style="font-weight: normal; font-style: oblique">y</span></b>`)
	if err != nil {
		t.Fatal(err)
	}
	want := []notedoc.Run{
		{Text: "x", Style: notedoc.Style{Bold: true}},
		{Text: "y", Style: notedoc.Style{Italic: true}},
	}
	if diff := cmp.Diff(want, doc.Runs()); diff != "" {
		t.Fatalf("nesting mismatch (-want +got):\n%s", diff)
	}
}

func TestPageWrapsRender(t *testing.T) {
	doc := notedoc.PlainDocument("hi")
	page := Page(doc, PageOptions{Title: "a<b", FontSize: "16", Color: "#e0e0ff"})
	for _, want := range []string{"<title>a&lt;b</title>", "font-size: 16px", "<span>hi</span>"} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q:\n%s", want, page)
		}
	}
}

func TestParseExportedPage(t *testing.T) {
	doc := notedoc.NewDocument(
		notedoc.Run{Text: "one\n", Style: notedoc.Style{Bold: true}},
		notedoc.Run{Text: "two"},
	)
	back, err := Parse(Page(doc, PageOptions{FontFamily: "Georgia"}))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if got := back.Text(); got != "one\ntwo" {
		t.Fatalf("text = %q, want %q", got, "one\ntwo")
	}
	if diff := cmp.Diff(doc.Runs(), back.Runs()); diff != "" {
		t.Fatalf("page round trip mismatch (-want +got):\n%s", diff)
	}
}
