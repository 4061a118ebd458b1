package layout

// 该文件定义问答块布局引擎的输入模型与输出几何，供编辑器与导出渲染器共用。
// 所有长度单位与度量提供方（Metrics）保持一致，本仓库约定为 pt。

// Align 表示文本的水平对齐方式。
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Mode 表示问答块的排版模式。
type Mode string

const (
	// ModeBlock 问题与答案各占独立区域（并排或上下堆叠）。
	ModeBlock Mode = "block"
	// ModeInline 答案可以与问题的最后一行共享同一视觉行。
	ModeInline Mode = "inline"
)

// QuestionPosition 表示 block 模式下问题区域相对答案区域的位置。
type QuestionPosition string

const (
	QuestionLeft   QuestionPosition = "left"
	QuestionRight  QuestionPosition = "right"
	QuestionTop    QuestionPosition = "top"
	QuestionBottom QuestionPosition = "bottom"
)

// RuleTheme 表示装饰横线的主题。
type RuleTheme string

const (
	// RuleThemeDefault 输出笔直的横线。
	RuleThemeDefault RuleTheme = "default"
	// RuleThemeRough 横线带有由 Seed 决定的手绘抖动（抖动本身由绘制层实现）。
	RuleThemeRough RuleTheme = "rough"
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// DefaultLineHeight 是行高倍数缺省值，可被主题覆盖。
const DefaultLineHeight = 1.2

// TextStyle 描述一段文本的样式。创建后不可变，由 ContentBlock 持有。
type TextStyle struct {
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	Color      Color   `json:"color"`
	// LineHeight 为行高倍数；<=0 时按 DefaultLineHeight 处理。
	LineHeight float64 `json:"lineHeight,omitempty"`
	Align      Align   `json:"align,omitempty"`
}

// lineHeight 返回生效的行高倍数。
func (s TextStyle) lineHeight() float64 {
	if s.LineHeight > 0 {
		return s.LineHeight
	}
	return DefaultLineHeight
}

// ContentBlock 是一个问答块的内容。文本为纯文本：
// 任何富文本标记都应在进入引擎之前由调用方拍平（见 book.Flatten）。
type ContentBlock struct {
	QuestionText  string    `json:"questionText"`
	QuestionStyle TextStyle `json:"questionStyle"`
	AnswerText    string    `json:"answerText"`
	AnswerStyle   TextStyle `json:"answerStyle"`
}

// RuleConfig 控制装饰横线的输出。
type RuleConfig struct {
	Enabled bool      `json:"enabled"`
	Theme   RuleTheme `json:"theme,omitempty"`
}

// Config 描述问答块的外框与排版参数。ContentBlock 与 Config
// 会作为页面元素的一部分持久化；布局结果永远是临时派生的。
type Config struct {
	BoxWidth  float64 `json:"boxWidth"`
	BoxHeight float64 `json:"boxHeight"`
	Padding   float64 `json:"padding"`
	Mode      Mode    `json:"mode"`
	// QuestionPosition 仅 block 模式使用，缺省为 left。
	QuestionPosition QuestionPosition `json:"questionPosition,omitempty"`
	// QuestionFraction 是 block 模式下问题区域占内容宽度的比例 (0,1)，
	// 取值越界时按 0.5 处理。
	QuestionFraction float64    `json:"questionFraction,omitempty"`
	Rules            RuleConfig `json:"ruledLines"`
}

// PositionedRun 是排版后的一段同样式文本。仅作为输出，创建后不再修改。
type PositionedRun struct {
	Text      string     `json:"text"`
	X         float64    `json:"x"`
	BaselineY float64    `json:"baselineY"`
	Width     float64    `json:"width"`
	Style     *TextStyle `json:"-"`
}

// RuleLine 是一条装饰横线。仅作为输出。
// Seed 在 rough 主题下为该行的确定性抖动种子，绘制层据此生成可复现的手绘效果。
type RuleLine struct {
	X1   float64 `json:"x1"`
	X2   float64 `json:"x2"`
	Y    float64 `json:"y"`
	Seed uint32  `json:"seed,omitempty"`
}

// Result 保存一个问答块的完整布局几何。
// Runs 按 BaselineY 升序、同一行内从左到右排列；任何 Run 的文本都不含换行。
type Result struct {
	Runs          []PositionedRun `json:"runs"`
	Rules         []RuleLine      `json:"rules"`
	ContentHeight float64         `json:"contentHeight"`
	// Overflow 表示内容高度超出外框，属于信号而非错误，由调用方决定裁剪或提示。
	Overflow bool `json:"overflow"`
}
