package layout

import "math"

// Metrics 是引擎消费的字形度量能力。编辑器与无头导出器各自提供一份实现；
// 两份实现对相同 (text, style) 必须返回相同结果，这是两端几何一致的前提。
type Metrics interface {
	// Measure 返回 text 以 style 渲染时的前进宽度。
	Measure(text string, style TextStyle) float64
	// LineMetrics 返回 style 的垂直度量。
	LineMetrics(style TextStyle) LineMetrics
}

// LineMetrics 描述一种样式的垂直度量。
type LineMetrics struct {
	// Ascent 是基线到字形顶部的距离。
	Ascent float64
	// Pitch 是相邻两条基线的自然间距（行高倍数为 1 时）。
	Pitch float64
}

// measureWord 返回单词宽度。度量提供方被视为不可信：
// 非有限或负的宽度按 0 处理，该词不参与宽度累计，但仍保留在行文本中，
// 与既有文档的排版行为保持一致。
func measureWord(m Metrics, text string, style TextStyle) float64 {
	w := m.Measure(text, style)
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}

// lineMetricsFor 返回经过兜底的垂直度量。提供方返回非有限或非正值时，
// 退回按字号近似：Ascent = 0.8*size，Pitch = 1.2*size。
func lineMetricsFor(m Metrics, style TextStyle) LineMetrics {
	lm := m.LineMetrics(style)
	if math.IsNaN(lm.Ascent) || math.IsInf(lm.Ascent, 0) || lm.Ascent <= 0 {
		lm.Ascent = style.FontSize * 0.8
	}
	if math.IsNaN(lm.Pitch) || math.IsInf(lm.Pitch, 0) || lm.Pitch <= 0 {
		lm.Pitch = style.FontSize * 1.2
	}
	return lm
}
