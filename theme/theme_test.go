package theme_test

import (
	"math"
	"strings"
	"testing"

	"github.com/foliohq/folio/layout"
	"github.com/foliohq/folio/theme"
)

func mustLoad(t *testing.T, src string) *theme.Theme {
	t.Helper()
	th, err := theme.LoadString(src)
	if err != nil {
		t.Fatalf("load theme: %v", err)
	}
	return th
}

func TestResolveStyles(t *testing.T) {
	th := mustLoad(t, sampleTheme)

	body := th.Style("Body")
	if body.FontSize != 12 {
		t.Fatalf("expected Body size 12pt, got %v", body.FontSize)
	}
	if body.Color != (layout.Color{R: 0x22, G: 0x33, B: 0x44}) {
		t.Fatalf("expected Body color ink, got %+v", body.Color)
	}
	if body.FontFamily != "Body" {
		t.Fatalf("expected Body font family, got %s", body.FontFamily)
	}

	q := th.Style("Question")
	if q.FontSize != 16 {
		t.Fatalf("expected Question to override size, got %v", q.FontSize)
	}
	if q.Color != (layout.Color{R: 0x0F, G: 0x62, B: 0xFE}) {
		t.Fatalf("expected Question accent color, got %+v", q.Color)
	}
	if q.FontFamily != "Body" {
		t.Fatalf("expected Question to inherit Body font, got %s", q.FontFamily)
	}
}

func TestDefaultsPropagate(t *testing.T) {
	th := mustLoad(t, sampleTheme)
	if th.LineHeight != 1.3 {
		t.Fatalf("expected line-height default 1.3, got %v", th.LineHeight)
	}
	if got := th.Style("Body").LineHeight; got != 1.3 {
		t.Fatalf("expected Body to pick up default line-height, got %v", got)
	}
	if th.RuleTheme != layout.RuleThemeRough {
		t.Fatalf("expected rough rule theme, got %s", th.RuleTheme)
	}
}

func TestStyleFallback(t *testing.T) {
	th := mustLoad(t, sampleTheme)
	got := th.Style("Nonexistent")
	if got.FontSize != 12 {
		t.Fatalf("expected fallback to Body, got %+v", got)
	}

	empty := mustLoad(t, "theme Empty v1 {\n}\n")
	s := empty.Style("Anything")
	if s.FontSize <= 0 || math.IsNaN(s.FontSize) {
		t.Fatalf("expected usable fallback style, got %+v", s)
	}
}

func TestExtendsCycleDetected(t *testing.T) {
	src := `
theme Broken v1 {
  style A extends B {
    size: 12pt
  }
  style B extends A {
    size: 14pt
  }
}
`
	_, err := theme.LoadString(src)
	if err == nil || !strings.Contains(err.Error(), "循环") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestExtendsUnknownParent(t *testing.T) {
	src := `
theme Broken v1 {
  style A extends Missing {
    size: 12pt
  }
}
`
	if _, err := theme.LoadString(src); err == nil {
		t.Fatal("expected error for missing parent")
	}
}

func TestMillimeterSizes(t *testing.T) {
	src := `
theme Metric v1 {
  style Body {
    size: 5mm
  }
}
`
	th := mustLoad(t, src)
	got := th.Style("Body").FontSize
	want := 5 * layout.MmToPt
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected 5mm = %vpt, got %v", want, got)
	}
}

func TestSixDigitColorLexes(t *testing.T) {
	src := `
theme Colors v1 {
  color ink #223344

  style Body {
    size: 12pt
    color: ink
  }

  style Inline {
    size: 12pt
    color: #A1B2C3
  }
}
`
	th := mustLoad(t, src)
	if got := th.Colors["ink"]; got != (layout.Color{R: 0x22, G: 0x33, B: 0x44}) {
		t.Fatalf("named 6-digit color wrong: %+v", got)
	}
	if got := th.Style("Body").Color; got != (layout.Color{R: 0x22, G: 0x33, B: 0x44}) {
		t.Fatalf("style color reference wrong: %+v", got)
	}
	if got := th.Style("Inline").Color; got != (layout.Color{R: 0xA1, G: 0xB2, B: 0xC3}) {
		t.Fatalf("inline 6-digit color wrong: %+v", got)
	}
}

func TestAlignAndInlineColor(t *testing.T) {
	src := `
theme Aligned v1 {
  style Answer {
    size: 14pt
    align: right
    color: #abc
  }
}
`
	th := mustLoad(t, src)
	s := th.Style("Answer")
	if s.Align != layout.AlignRight {
		t.Fatalf("expected right align, got %q", s.Align)
	}
	if s.Color != (layout.Color{R: 0xAA, G: 0xBB, B: 0xCC}) {
		t.Fatalf("expected #abc expansion, got %+v", s.Color)
	}
}

func TestFontForStyle(t *testing.T) {
	th := mustLoad(t, sampleTheme)
	f, ok := th.FontFor(th.Style("Question"))
	if !ok {
		t.Fatal("expected font for Question")
	}
	if f.Src != "fonts/Inter-Regular.ttf" {
		t.Fatalf("unexpected font src %q", f.Src)
	}
}
