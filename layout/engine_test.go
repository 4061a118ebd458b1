package layout

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

// fixedMetrics 是测试用的确定性度量：每个 rune 宽 0.5*字号，
// ascent = 0.8*字号，pitch = 1.2*字号。与真实字体无关，但两次调用结果必然一致。
type fixedMetrics struct{}

func (fixedMetrics) Measure(text string, style TextStyle) float64 {
	return float64(utf8.RuneCountInString(text)) * style.FontSize * 0.5
}

func (fixedMetrics) LineMetrics(style TextStyle) LineMetrics {
	return LineMetrics{Ascent: style.FontSize * 0.8, Pitch: style.FontSize * 1.2}
}

// nanMetrics 对指定的词返回 NaN 宽度，模拟失灵的度量提供方。
type nanMetrics struct{ bad string }

func (m nanMetrics) Measure(text string, style TextStyle) float64 {
	if text == m.bad {
		return math.NaN()
	}
	return fixedMetrics{}.Measure(text, style)
}

func (nanMetrics) LineMetrics(style TextStyle) LineMetrics {
	return fixedMetrics{}.LineMetrics(TextStyle{FontSize: 16})
}

func qaBlock() ContentBlock {
	return ContentBlock{
		QuestionText:  "What is your favorite color?",
		QuestionStyle: TextStyle{FontFamily: "Body", FontSize: 16},
		AnswerText:    "Blue",
		AnswerStyle:   TextStyle{FontFamily: "Body", FontSize: 14},
	}
}

// TestBlockSideBySide 对应场景：300×150 外框、questionPosition=left、
// 比例 0.4 时，问题在 120 宽区域内折成 2 行，答案占剩余 180 宽且与问题同顶。
func TestBlockSideBySide(t *testing.T) {
	cfg := Config{
		BoxWidth: 300, BoxHeight: 150, Mode: ModeBlock,
		QuestionPosition: QuestionLeft, QuestionFraction: 0.4,
	}
	res, err := Layout(qaBlock(), cfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}

	var qRuns, aRuns []PositionedRun
	for _, r := range res.Runs {
		if r.Style.FontSize == 16 {
			qRuns = append(qRuns, r)
		} else {
			aRuns = append(aRuns, r)
		}
	}
	if len(qRuns) != 2 {
		t.Fatalf("问题应折成 2 行, got %d: %#v", len(qRuns), qRuns)
	}
	if qRuns[0].Text != "What is your" || qRuns[1].Text != "favorite color?" {
		t.Fatalf("折行内容不符: %q / %q", qRuns[0].Text, qRuns[1].Text)
	}
	if len(aRuns) != 1 || aRuns[0].Text != "Blue" {
		t.Fatalf("答案应为单行 Blue: %#v", aRuns)
	}
	if !eq(aRuns[0].X, 120) {
		t.Fatalf("答案区域应从 120 开始: got %g", aRuns[0].X)
	}
	// 两个区域同顶：各自首行基线 = 顶部 + 各自 ascent。
	if !eq(qRuns[0].BaselineY, 16*0.8) || !eq(aRuns[0].BaselineY, 14*0.8) {
		t.Fatalf("首行基线不符: q=%g a=%g", qRuns[0].BaselineY, aRuns[0].BaselineY)
	}
}

// TestInlineSharedLine 对应场景：同样内容改为 inline 模式时，
// 问题尾行与 Blue 共享一行（gap=10），总行数少于 block 模式。
func TestInlineSharedLine(t *testing.T) {
	blockCfg := Config{BoxWidth: 300, BoxHeight: 150, Mode: ModeBlock, QuestionPosition: QuestionLeft, QuestionFraction: 0.4}
	inlineCfg := Config{BoxWidth: 300, BoxHeight: 150, Mode: ModeInline}

	blockRes, err := Layout(qaBlock(), blockCfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("block 布局失败: %v", err)
	}
	inlineRes, err := Layout(qaBlock(), inlineCfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("inline 布局失败: %v", err)
	}

	if len(inlineRes.Runs) != 2 {
		t.Fatalf("inline 应产出共享行两个 Run: %#v", inlineRes.Runs)
	}
	q, a := inlineRes.Runs[0], inlineRes.Runs[1]
	if q.BaselineY != a.BaselineY {
		t.Fatalf("共享行基线不一致: %g vs %g", q.BaselineY, a.BaselineY)
	}
	// gap 定律：max(10, 16*0.5) = 10。
	gap := a.X - (q.X + q.Width)
	if !eq(gap, 10) {
		t.Fatalf("共享行 gap 应为 10: got %g", gap)
	}
	if !(countRows(inlineRes) < countRows(blockRes)) {
		t.Fatalf("inline 行数应少于 block: %d vs %d", countRows(inlineRes), countRows(blockRes))
	}
}

// TestInlineAnswerDoesNotFit 验证装不下时答案从下一行开始。
func TestInlineAnswerDoesNotFit(t *testing.T) {
	b := qaBlock()
	b.AnswerText = "cornflower"
	cfg := Config{BoxWidth: 240, BoxHeight: 200, Mode: ModeInline}
	// 问题整行宽 224，剩余 16 < gap(10)+70，答案必须另起一行。
	res, err := Layout(b, cfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	last := res.Runs[len(res.Runs)-1]
	if last.Text != "cornflower" {
		t.Fatalf("答案应在末行: %#v", res.Runs)
	}
	prev := res.Runs[len(res.Runs)-2]
	if !(last.BaselineY > prev.BaselineY) {
		t.Fatalf("答案应位于问题下方: %g <= %g", last.BaselineY, prev.BaselineY)
	}
}

// TestOverflowWordOwnLine 对应场景：单词宽于外框时独占一行，不做词内拆分。
func TestOverflowWordOwnLine(t *testing.T) {
	b := ContentBlock{
		QuestionText:  "Pneumonoultramicroscopic",
		QuestionStyle: TextStyle{FontSize: 16},
		AnswerStyle:   TextStyle{FontSize: 14},
	}
	cfg := Config{BoxWidth: 50, BoxHeight: 100, Mode: ModeInline}
	res, err := Layout(b, cfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	if res.Runs[0].Text != "Pneumonoultramicroscopic" {
		t.Fatalf("超宽词应整体保留: %#v", res.Runs)
	}
	if res.Overflow {
		t.Fatalf("单行内容不应报告纵向溢出")
	}
}

// TestRuleCount 对应场景：开启横线、3 个视觉行时恰好 3 条横线，
// 且每条都紧贴其行基线下方。
func TestRuleCount(t *testing.T) {
	cfg := Config{
		BoxWidth: 200, BoxHeight: 200, Mode: ModeBlock,
		QuestionPosition: QuestionTop,
		Rules:            RuleConfig{Enabled: true},
	}
	res, err := Layout(qaBlock(), cfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	rows := countRows(res)
	if rows != 3 {
		t.Fatalf("应产出 3 个视觉行, got %d", rows)
	}
	if len(res.Rules) != rows {
		t.Fatalf("横线数应等于视觉行数: %d vs %d", len(res.Rules), rows)
	}
	ri := 0
	seen := math.Inf(-1)
	for _, r := range res.Runs {
		if r.BaselineY == seen {
			continue
		}
		seen = r.BaselineY
		rule := res.Rules[ri]
		if !(rule.Y > r.BaselineY) {
			t.Fatalf("横线 %d 应在基线下方: %g <= %g", ri, rule.Y, r.BaselineY)
		}
		if !eq(rule.X1, cfg.Padding) || !eq(rule.X2, cfg.BoxWidth-cfg.Padding) {
			t.Fatalf("横线跨度不符: %#v", rule)
		}
		ri++
	}
}

// TestOverflowSignal 对应场景：外框过矮时 Overflow=true，Runs 不被截断。
func TestOverflowSignal(t *testing.T) {
	cfg := Config{BoxWidth: 300, BoxHeight: 20, Mode: ModeBlock, QuestionPosition: QuestionTop}
	res, err := Layout(qaBlock(), cfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("溢出不应是错误: %v", err)
	}
	if !res.Overflow {
		t.Fatalf("应报告溢出: contentHeight=%g", res.ContentHeight)
	}
	joined := ""
	for _, r := range res.Runs {
		joined += r.Text + " "
	}
	for _, w := range strings.Fields("What is your favorite color? Blue") {
		if !strings.Contains(joined, w) {
			t.Fatalf("溢出时内容被截断, 缺少 %q", w)
		}
	}
}

// TestDeterminism 两次相同输入必须得到逐位一致的结果。
func TestDeterminism(t *testing.T) {
	cfg := Config{BoxWidth: 300, BoxHeight: 150, Mode: ModeInline, Rules: RuleConfig{Enabled: true, Theme: RuleThemeRough}}
	a, err := Layout(qaBlock(), cfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	b, err := Layout(qaBlock(), cfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("两次布局结果不一致 (-first +second):\n%s", diff)
	}
}

// TestMonotonicBaselines 基线必须单调不减，行内从左到右。
func TestMonotonicBaselines(t *testing.T) {
	for _, mode := range []Mode{ModeBlock, ModeInline} {
		cfg := Config{BoxWidth: 160, BoxHeight: 400, Mode: mode, QuestionPosition: QuestionLeft}
		b := qaBlock()
		b.AnswerText = "a deep and calming shade of cornflower blue mixed with grey"
		res, err := Layout(b, cfg, fixedMetrics{})
		if err != nil {
			t.Fatalf("布局失败: %v", err)
		}
		for i := 1; i < len(res.Runs); i++ {
			prev, cur := res.Runs[i-1], res.Runs[i]
			if cur.BaselineY < prev.BaselineY {
				t.Fatalf("[%s] 基线非单调: runs[%d]=%g < runs[%d]=%g", mode, i, cur.BaselineY, i-1, prev.BaselineY)
			}
			if cur.BaselineY == prev.BaselineY && cur.X < prev.X {
				t.Fatalf("[%s] 同行内顺序错误: %g < %g", mode, cur.X, prev.X)
			}
		}
	}
}

// TestNoOverflowPerLine 每行实测宽度不超过可用宽度，唯一例外是单个超宽词。
func TestNoOverflowPerLine(t *testing.T) {
	b := qaBlock()
	b.QuestionText = "one two three four five six seven Incomprehensibilities eight nine"
	for _, width := range []float64{60, 90, 120, 200, 340} {
		cfg := Config{BoxWidth: width, BoxHeight: 800, Padding: 5, Mode: ModeInline}
		res, err := Layout(b, cfg, fixedMetrics{})
		if err != nil {
			t.Fatalf("布局失败: %v", err)
		}
		avail := width - 2*cfg.Padding
		for _, r := range res.Runs {
			if r.Width > avail+1e-9 && strings.Contains(r.Text, " ") {
				t.Fatalf("宽度 %g: 多词行超宽 %q (%g > %g)", width, r.Text, r.Width, avail)
			}
		}
	}
}

// TestEmptyFieldsOccupyOneLine 只含空白的字段仍占一行垂直空间。
func TestEmptyFieldsOccupyOneLine(t *testing.T) {
	b := ContentBlock{
		QuestionText:  "   ",
		QuestionStyle: TextStyle{FontSize: 16},
		AnswerText:    "",
		AnswerStyle:   TextStyle{FontSize: 14},
	}
	cfg := Config{BoxWidth: 200, BoxHeight: 100, Mode: ModeBlock, QuestionPosition: QuestionTop}
	res, err := Layout(b, cfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	if countRows(res) != 2 {
		t.Fatalf("问答各占一行空行, got %d 行", countRows(res))
	}
	if res.ContentHeight <= 0 {
		t.Fatalf("空内容仍应有高度: %g", res.ContentHeight)
	}
}

// TestSharedLineAlignment 共享行整体按答案样式的对齐方式定位。
func TestSharedLineAlignment(t *testing.T) {
	b := qaBlock()
	b.AnswerStyle.Align = AlignRight
	cfg := Config{BoxWidth: 300, BoxHeight: 150, Mode: ModeInline}
	res, err := Layout(b, cfg, fixedMetrics{})
	if err != nil {
		t.Fatalf("布局失败: %v", err)
	}
	a := res.Runs[len(res.Runs)-1]
	if !eq(a.X+a.Width, 300) {
		t.Fatalf("右对齐共享行应贴齐右缘: %g+%g != 300", a.X, a.Width)
	}
}

// TestNonFiniteWordWidth 度量返回 NaN 的词按零宽处理，内容不丢失。
func TestNonFiniteWordWidth(t *testing.T) {
	b := qaBlock()
	cfg := Config{BoxWidth: 300, BoxHeight: 150, Mode: ModeBlock, QuestionPosition: QuestionTop}
	res, err := Layout(b, cfg, nanMetrics{bad: "favorite"})
	if err != nil {
		t.Fatalf("失灵的度量不应让布局失败: %v", err)
	}
	joined := ""
	for _, r := range res.Runs {
		joined += r.Text + " "
		if math.IsNaN(r.Width) || math.IsNaN(r.X) || math.IsNaN(r.BaselineY) {
			t.Fatalf("几何中出现 NaN: %#v", r)
		}
	}
	if !strings.Contains(joined, "favorite") {
		t.Fatalf("零宽词不应从内容中消失: %q", joined)
	}
}

// TestInvalidConfig 配置越界必须返回 *InvalidConfigError。
func TestInvalidConfig(t *testing.T) {
	cases := []Config{
		{BoxWidth: 0, BoxHeight: 100},
		{BoxWidth: 100, BoxHeight: -5},
		{BoxWidth: 100, BoxHeight: 100, Padding: math.NaN()},
		{BoxWidth: math.Inf(1), BoxHeight: 100},
	}
	for i, cfg := range cases {
		_, err := Layout(qaBlock(), cfg, fixedMetrics{})
		var ice *InvalidConfigError
		if !errors.As(err, &ice) {
			t.Fatalf("用例 %d 应返回 InvalidConfigError, got %v", i, err)
		}
	}
	b := qaBlock()
	b.QuestionStyle.FontSize = 0
	_, err := Layout(b, Config{BoxWidth: 100, BoxHeight: 100}, fixedMetrics{})
	var ice *InvalidConfigError
	if !errors.As(err, &ice) {
		t.Fatalf("非法字号应返回 InvalidConfigError, got %v", err)
	}
}

// TestResultJSONShapeStable 关闭横线时 rules 仍序列化为 []，不随配置在
// [] 与 null 之间摆动。
func TestResultJSONShapeStable(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		cfg := Config{
			BoxWidth: 300, BoxHeight: 150, Mode: ModeBlock,
			Rules: RuleConfig{Enabled: enabled},
		}
		res, err := Layout(qaBlock(), cfg, fixedMetrics{})
		if err != nil {
			t.Fatalf("布局失败: %v", err)
		}
		data, err := json.Marshal(res)
		if err != nil {
			t.Fatalf("序列化失败: %v", err)
		}
		if strings.Contains(string(data), `"rules":null`) {
			t.Fatalf("enabled=%v 时 rules 序列化为 null: %s", enabled, data)
		}
	}
}

// countRows 统计结果中互不相同的基线行数。
func countRows(res *Result) int {
	rows := 0
	seen := math.Inf(-1)
	for _, r := range res.Runs {
		if r.BaselineY != seen {
			rows++
			seen = r.BaselineY
		}
	}
	return rows
}

func eq(a, b float64) bool { return math.Abs(a-b) < 1e-6 }
