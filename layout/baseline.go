package layout

import "math"

// 该文件集中基线与间距的数学：block 模式的区域基线、inline 模式的
// 共享行基线，以及行内对齐偏移。

// inlineMinGap 是 inline 模式下问题与答案之间的最小间距。
// 该值与随字号缩放的规则一起沿袭自既有文档格式，改动会破坏已生成文档的几何。
const inlineMinGap = 10.0

// sharedBaselineSizeDiv 是共享行基线修正项的除数。
// 经验常数，仅为与既有文档的输出保持逐位一致而保留；来源未有推导，勿简化。
const sharedBaselineSizeDiv = 7.0

// regionBaselines 计算一个独立区域内 count 行的基线序列：
// 首行基线位于 top + ascent，此后每行前进 pitch * 行高倍数。
func regionBaselines(count int, top float64, lm LineMetrics, style TextStyle) []float64 {
	advance := lm.Pitch * style.lineHeight()
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		out[i] = top + lm.Ascent + float64(i)*advance
	}
	return out
}

// inlineGap 返回 inline 模式下问题尾行与答案起点之间的间距：
// max(10, 问题字号的一半)。
func inlineGap(q TextStyle) float64 {
	return math.Max(inlineMinGap, q.FontSize*0.5)
}

// sharedBaseline 计算 inline 模式下问答共享行的基线。
// ascentOffset 把度量提供方的真实 ascent 与公式中 0.8*字号 的近似对齐：
// 当两者一致时整条公式退化为既有文档使用的原始形式。
func sharedBaseline(padding float64, qLineCount int, combined float64, qlm LineMetrics, q, a TextStyle) float64 {
	maxSize := math.Max(q.FontSize, a.FontSize)
	ascentOffset := qlm.Ascent - q.FontSize*0.8
	return padding + float64(qLineCount-1)*combined + ascentOffset +
		maxSize*0.8 - (q.FontSize-a.FontSize)/sharedBaselineSizeDiv
}

// alignOffset 返回一行在区域内的水平偏移。区域宽度不足时靠左。
func alignOffset(regionWidth, lineWidth float64, align Align) float64 {
	if regionWidth <= lineWidth {
		return 0
	}
	switch align {
	case AlignCenter:
		return (regionWidth - lineWidth) / 2
	case AlignRight:
		return regionWidth - lineWidth
	default:
		return 0
	}
}

// descentOf 估计一行文本基线以下的高度，用于 ContentHeight。
func descentOf(lm LineMetrics, style TextStyle) float64 {
	d := lm.Pitch - lm.Ascent
	if d <= 0 {
		d = style.FontSize * 0.2
	}
	return d
}
