package layout

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Layout 是引擎对外的唯一入口：对一个问答块做纯函数式排版。
// 相同的 (block, cfg, m) 输入永远得到相同的 Result。引擎不持有任何状态，
// 可被任意多个调用方并发调用；所有中间数据都是本地短生命周期对象。
//
// 配置越界（非正的外框、非有限的 padding 等）返回 *InvalidConfigError；
// 内容高于外框不是错误，通过 Result.Overflow 报告。
func Layout(block ContentBlock, cfg Config, m Metrics) (*Result, error) {
	if m == nil {
		return nil, invalidConfig("metrics", "不能为空")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := validateStyle("questionStyle", block.QuestionStyle); err != nil {
		return nil, err
	}
	if err := validateStyle("answerStyle", block.AnswerStyle); err != nil {
		return nil, err
	}

	// Run 通过指针引用其所属样式；这里固定一份本地拷贝，
	// 调用方之后改动 block 不会影响已经产出的结果。
	qs := block.QuestionStyle
	as := block.AnswerStyle

	var lines []visualLine
	switch cfg.Mode {
	case ModeInline:
		lines = layoutInline(block, cfg, m, &qs, &as)
	case ModeBlock, "":
		lines = layoutBlock(block, cfg, m, &qs, &as)
	default:
		return nil, invalidConfig("mode", fmt.Sprintf("未知取值 %q", cfg.Mode))
	}

	return assemble(lines, cfg), nil
}

func validateConfig(cfg Config) error {
	switch {
	case !isFinite(cfg.BoxWidth) || cfg.BoxWidth <= 0:
		return invalidConfig("boxWidth", "必须为有限正数")
	case !isFinite(cfg.BoxHeight) || cfg.BoxHeight <= 0:
		return invalidConfig("boxHeight", "必须为有限正数")
	case !isFinite(cfg.Padding) || cfg.Padding < 0:
		return invalidConfig("padding", "必须为有限非负数")
	}
	return nil
}

func validateStyle(field string, s TextStyle) error {
	if !isFinite(s.FontSize) || s.FontSize <= 0 {
		return invalidConfig(field+".fontSize", "必须为有限正数")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// visualLine 是装配前的一个视觉行：一条基线加上落在其上的 1~2 个 Run。
type visualLine struct {
	baseline float64
	fontSize float64
	descent  float64
	runs     []PositionedRun
}

// lineFor 把一条折行结果放到区域 [regionX, regionX+regionW) 的指定基线上。
func lineFor(l brokenLine, style *TextStyle, lm LineMetrics, regionX, regionW, baseline float64) visualLine {
	run := PositionedRun{
		Text:      l.text(),
		X:         regionX + alignOffset(regionW, l.width, style.Align),
		BaselineY: baseline,
		Width:     l.width,
		Style:     style,
	}
	return visualLine{
		baseline: baseline,
		fontSize: style.FontSize,
		descent:  descentOf(lm, *style),
		runs:     []PositionedRun{run},
	}
}

// layoutRegion 对一个独立区域做折行与基线排布，并返回区域占用的高度。
func layoutRegion(text string, style *TextStyle, lm LineMetrics, regionX, regionW, top float64, m Metrics) ([]visualLine, float64) {
	broken := breakLines(text, *style, regionW, m)
	bases := regionBaselines(len(broken), top, lm, *style)
	out := make([]visualLine, 0, len(broken))
	for i := range broken {
		out = append(out, lineFor(broken[i], style, lm, regionX, regionW, bases[i]))
	}
	height := float64(len(broken)) * lm.Pitch * style.lineHeight()
	return out, height
}

// layoutBlock 处理问题与答案各占独立区域的模式：
// left/right 两个区域并排且同顶；top/bottom 上下堆叠，后排区域在前排之下。
func layoutBlock(block ContentBlock, cfg Config, m Metrics, qs, as *TextStyle) []visualLine {
	availW := cfg.BoxWidth - 2*cfg.Padding
	frac := cfg.QuestionFraction
	if frac <= 0 || frac >= 1 {
		frac = 0.5
	}
	qlm := lineMetricsFor(m, *qs)
	alm := lineMetricsFor(m, *as)
	qw := availW * frac
	aw := availW - qw

	var lines []visualLine
	switch cfg.QuestionPosition {
	case QuestionRight:
		al, _ := layoutRegion(block.AnswerText, as, alm, cfg.Padding, aw, cfg.Padding, m)
		ql, _ := layoutRegion(block.QuestionText, qs, qlm, cfg.Padding+aw, qw, cfg.Padding, m)
		lines = append(al, ql...)
	case QuestionTop:
		ql, qh := layoutRegion(block.QuestionText, qs, qlm, cfg.Padding, availW, cfg.Padding, m)
		al, _ := layoutRegion(block.AnswerText, as, alm, cfg.Padding, availW, cfg.Padding+qh, m)
		lines = append(ql, al...)
	case QuestionBottom:
		al, ah := layoutRegion(block.AnswerText, as, alm, cfg.Padding, availW, cfg.Padding, m)
		ql, _ := layoutRegion(block.QuestionText, qs, qlm, cfg.Padding, availW, cfg.Padding+ah, m)
		lines = append(al, ql...)
	default: // left
		ql, _ := layoutRegion(block.QuestionText, qs, qlm, cfg.Padding, qw, cfg.Padding, m)
		al, _ := layoutRegion(block.AnswerText, as, alm, cfg.Padding+qw, aw, cfg.Padding, m)
		lines = append(ql, al...)
	}
	return lines
}

// layoutInline 先完整排布问题，再尝试把答案的开头装进问题的最后一行。
// 装得下的条件：gap + 首个答案词宽 <= 该行剩余宽度，gap 见 inlineGap。
func layoutInline(block ContentBlock, cfg Config, m Metrics, qs, as *TextStyle) []visualLine {
	availW := cfg.BoxWidth - 2*cfg.Padding
	qlm := lineMetricsFor(m, *qs)
	alm := lineMetricsFor(m, *as)
	qAdv := qlm.Pitch * qs.lineHeight()
	aAdv := alm.Pitch * as.lineHeight()
	combined := math.Max(qAdv, aAdv)

	qLines := breakLines(block.QuestionText, *qs, availW, m)
	n := len(qLines)

	var lines []visualLine
	for i := 0; i < n-1; i++ {
		b := cfg.Padding + qlm.Ascent + float64(i)*combined
		lines = append(lines, lineFor(qLines[i], qs, qlm, cfg.Padding, availW, b))
	}

	last := qLines[n-1]
	aWords := strings.Fields(block.AnswerText)
	gap := inlineGap(*qs)

	// 共享行：从答案词流头部尽量多装，装不下的词回落到下方整宽行。
	var sharedWords []string
	sharedWidth := 0.0
	if len(aWords) > 0 {
		first := measureWord(m, aWords[0], *as)
		if gap+first <= availW-last.width {
			spaceW := measureWord(m, " ", *as)
			sharedWords = append(sharedWords, aWords[0])
			sharedWidth = first
			k := 1
			for ; k < len(aWords); k++ {
				w := measureWord(m, aWords[k], *as)
				if last.width+gap+sharedWidth+spaceW+w > availW {
					break
				}
				sharedWords = append(sharedWords, aWords[k])
				sharedWidth += spaceW + w
			}
			aWords = aWords[k:]
		}
	}

	var lastBase float64
	if len(sharedWords) > 0 {
		lastBase = sharedBaseline(cfg.Padding, n, combined, qlm, *qs, *as)
		// 共享行整体（问题尾行 + gap + 答案起始）按答案样式的对齐方式定位。
		total := last.width + gap + sharedWidth
		startX := cfg.Padding + alignOffset(availW, total, as.Align)
		vl := visualLine{
			baseline: lastBase,
			fontSize: math.Max(qs.FontSize, as.FontSize),
			descent:  math.Max(descentOf(qlm, *qs), descentOf(alm, *as)),
		}
		vl.runs = append(vl.runs,
			PositionedRun{Text: last.text(), X: startX, BaselineY: lastBase, Width: last.width, Style: qs},
			PositionedRun{Text: strings.Join(sharedWords, " "), X: startX + last.width + gap, BaselineY: lastBase, Width: sharedWidth, Style: as},
		)
		lines = append(lines, vl)
	} else {
		lastBase = cfg.Padding + qlm.Ascent + float64(n-1)*combined
		lines = append(lines, lineFor(last, qs, qlm, cfg.Padding, availW, lastBase))
	}

	rest := strings.Join(aWords, " ")
	if rest != "" || (len(sharedWords) == 0 && strings.TrimSpace(block.AnswerText) == "") {
		// 答案的后续行（或整个答案装不下时的全部行）按答案自身的步长推进。
		aLines := breakLines(rest, *as, availW, m)
		base := lastBase
		for i := range aLines {
			base += aAdv
			lines = append(lines, lineFor(aLines[i], as, alm, cfg.Padding, availW, base))
		}
	}
	return lines
}

// assemble 把视觉行装配为最终结果：Run 按 (基线, X) 排序，
// 合并相同基线的行得到横线行，并计算内容高度与溢出信号。
func assemble(lines []visualLine, cfg Config) *Result {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].baseline < lines[j].baseline })

	res := &Result{Runs: []PositionedRun{}, Rules: []RuleLine{}}
	var rows []ruleRow
	bottom := 0.0
	for _, vl := range lines {
		runs := vl.runs
		sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })
		res.Runs = append(res.Runs, runs...)

		if len(rows) > 0 && rows[len(rows)-1].baseline == vl.baseline {
			if vl.fontSize > rows[len(rows)-1].fontSize {
				rows[len(rows)-1].fontSize = vl.fontSize
			}
		} else {
			rows = append(rows, ruleRow{baseline: vl.baseline, fontSize: vl.fontSize})
		}
		if b := vl.baseline + vl.descent; b > bottom {
			bottom = b
		}
	}

	res.ContentHeight = bottom
	res.Overflow = bottom > cfg.BoxHeight-cfg.Padding
	res.Rules = buildRules(rows, cfg)
	return res
}
