package layout

import (
	"math"
	"strings"
	"testing"
)

var breakStyle = TextStyle{FontFamily: "Body", FontSize: 10}

// 字号 10 时每个 rune 宽 5，空格也是 5。
func TestGreedyPacking(t *testing.T) {
	lines := breakLines("aa bb cc dd", breakStyle, 28, fixedMetrics{})
	// aa(10)+空格(5)+bb(10)=25 ≤ 28；再加 cc 超出 → 换行。
	if len(lines) != 2 {
		t.Fatalf("应折成 2 行: %#v", lines)
	}
	if lines[0].text() != "aa bb" || lines[1].text() != "cc dd" {
		t.Fatalf("折行内容不符: %q / %q", lines[0].text(), lines[1].text())
	}
	if !eq(lines[0].width, 25) {
		t.Fatalf("行宽应为词宽+词间距: got %g", lines[0].width)
	}
}

func TestOversizeWordGetsOwnLine(t *testing.T) {
	lines := breakLines("aa Incomprehensibilities bb", breakStyle, 30, fixedMetrics{})
	if len(lines) != 3 {
		t.Fatalf("超宽词应独占一行: %#v", lines)
	}
	if lines[1].text() != "Incomprehensibilities" {
		t.Fatalf("超宽词行不符: %q", lines[1].text())
	}
	if lines[1].width <= 30 {
		t.Fatalf("超宽词行宽应超出可用宽度: %g", lines[1].width)
	}
}

func TestEmptyInputYieldsOneLine(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n  "} {
		lines := breakLines(in, breakStyle, 100, fixedMetrics{})
		if len(lines) != 1 || lines[0].text() != "" {
			t.Fatalf("输入 %q 应恰好产出一行空行: %#v", in, lines)
		}
	}
}

// TestZeroAdvanceMetricsTerminates 度量全部返回 0 时折行仍须在有限步内结束。
func TestZeroAdvanceMetricsTerminates(t *testing.T) {
	words := strings.Repeat("w ", 5000)
	lines := breakLines(words, breakStyle, 100, zeroMetrics{})
	// 零宽词全部装进一行也是合法结果，关键是不能死循环。
	if len(lines) == 0 {
		t.Fatalf("不应产出空结果")
	}
}

// TestLineIterationCounterResets 单行词数上限按行计数：跨多行的长词流
// 不会被整体截断，所有词都落到某一行里。
func TestLineIterationCounterResets(t *testing.T) {
	const total = 4096
	var b strings.Builder
	for i := 0; i < total; i++ {
		b.WriteString("ww ")
	}
	// 宽度 21 每行装 2 个词（10+5+10=25 超出，10 ≤ 21）。
	lines := breakLines(b.String(), breakStyle, 21, fixedMetrics{})
	kept := 0
	for _, l := range lines {
		kept += len(l.words)
	}
	if kept != total {
		t.Fatalf("跨行折行不应丢词: 保留 %d / %d", kept, total)
	}
}

func TestWordCapBoundsInput(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxWordsPerField+100; i++ {
		b.WriteString("x ")
	}
	lines := breakLines(b.String(), breakStyle, 1, fixedMetrics{})
	if len(lines) > maxWordsPerField {
		t.Fatalf("词数上限未生效: %d 行", len(lines))
	}
}

type zeroMetrics struct{}

func (zeroMetrics) Measure(string, TextStyle) float64 { return 0 }
func (zeroMetrics) LineMetrics(s TextStyle) LineMetrics {
	return LineMetrics{Ascent: s.FontSize * 0.8, Pitch: s.FontSize * 1.2}
}

func TestMeasureWordInterceptsNonFinite(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -3} {
		if got := measureWord(constMetrics{w: bad}, "x", breakStyle); got != 0 {
			t.Fatalf("非法宽度 %v 应拦截为 0, got %g", bad, got)
		}
	}
	if got := measureWord(constMetrics{w: 7}, "x", breakStyle); got != 7 {
		t.Fatalf("合法宽度不应被改写: %g", got)
	}
}

type constMetrics struct{ w float64 }

func (m constMetrics) Measure(string, TextStyle) float64 { return m.w }
func (constMetrics) LineMetrics(s TextStyle) LineMetrics {
	return LineMetrics{Ascent: s.FontSize * 0.8, Pitch: s.FontSize * 1.2}
}
