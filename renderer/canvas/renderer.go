package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/foliohq/folio/binding"
	"github.com/foliohq/folio/book"
	"github.com/foliohq/folio/layout"
	"github.com/foliohq/folio/renderer"
	"github.com/foliohq/folio/theme"
)

const (
	ruleStrokePt = 0.6  // 横线笔宽，pt
	wobbleAmpPt  = 0.45 // rough 主题的抖动幅度，pt
)

// ruleColor 是装饰横线的固定颜色（淡灰），不随文字样式变化。
var ruleColor = layout.Color{R: 150, G: 150, B: 155}

// Renderer 基于 github.com/tdewolff/canvas 绘制页面并输出 PDF。
// 同一个实例可跨多次 Render 复用，字体族按需加载并缓存。
type Renderer struct {
	baseDir string

	fontMu   sync.Mutex
	families map[string]*canvas.FontFamily
	fallback *canvas.FontFamily
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer 创建一个以 baseDir 为资源根目录的渲染器，
// 主题里的字体路径与图片 src 都相对该目录解析。
func NewRenderer(baseDir string) *Renderer {
	return &Renderer{
		baseDir:  baseDir,
		families: map[string]*canvas.FontFamily{},
	}
}

// Render 将整本书导出为 PDF。data 是问答文本里 ${path} 占位符的绑定数据。
// 布局引擎给出的几何原样落到页面上；Overflow 只是信号，这里不做裁剪。
func (r *Renderer) Render(b *book.Book, th *theme.Theme, data any) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("渲染的书为空")
	}
	if th == nil {
		return nil, fmt.Errorf("渲染缺少主题")
	}
	if len(b.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	m := &themeMetrics{r: r, th: th}

	var buf bytes.Buffer
	writer := pdf.New(&buf, toMm(b.Pages[0].Width), toMm(b.Pages[0].Height), nil)
	writer.SetInfo(b.Title, "", "", "", "folio")
	for i, page := range b.Pages {
		if i > 0 {
			writer.NewPage(toMm(page.Width), toMm(page.Height))
		}
		c := canvas.New(toMm(page.Width), toMm(page.Height))
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 与布局一致，左上角为原点

		if err := r.drawPage(ctx, page, th, m, data); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", page.Index, err)
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// LayoutElement 对单个问答元素跑一次布局，使用与导出完全相同的度量来源。
// 编辑器预览接口走这里，保证预览与 PDF 的几何一致。
func (r *Renderer) LayoutElement(el *book.QAElement, frame book.Frame, th *theme.Theme, data any) (*layout.Result, error) {
	if el == nil {
		return nil, fmt.Errorf("问答元素为空")
	}
	if th == nil {
		return nil, fmt.Errorf("缺少主题")
	}
	m := &themeMetrics{r: r, th: th}
	block, cfg := qaInputs(el, frame, th, data)
	return layout.Layout(block, cfg, m)
}

func (r *Renderer) drawPage(ctx *canvas.Context, page book.Page, th *theme.Theme, m layout.Metrics, data any) error {
	for _, el := range page.Elements {
		var err error
		switch el.Kind {
		case book.KindQA:
			err = r.drawQA(ctx, el, th, m, data)
		case book.KindText:
			err = r.drawText(ctx, el, th, m, data)
		case book.KindImage:
			err = r.drawImage(ctx, el)
		default:
			err = fmt.Errorf("未知元素类型 %q", el.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// qaInputs 把存储态的问答元素换算为布局引擎的输入：
// 富文本拍平、占位符展开、样式名解析为具体样式。
func qaInputs(el *book.QAElement, frame book.Frame, th *theme.Theme, data any) (layout.ContentBlock, layout.Config) {
	block := layout.ContentBlock{
		QuestionText:  binding.Interpolate(book.Flatten(el.Question), data),
		QuestionStyle: th.Style(el.QuestionStyle),
		AnswerText:    binding.Interpolate(book.Flatten(el.Answer), data),
		AnswerStyle:   th.Style(el.AnswerStyle),
	}
	cfg := el.Layout
	if cfg.BoxWidth <= 0 {
		cfg.BoxWidth = frame.W
	}
	if cfg.BoxHeight <= 0 {
		cfg.BoxHeight = frame.H
	}
	if cfg.Rules.Enabled && cfg.Rules.Theme == "" {
		cfg.Rules.Theme = th.RuleTheme
	}
	return block, cfg
}

func (r *Renderer) drawQA(ctx *canvas.Context, el book.Element, th *theme.Theme, m layout.Metrics, data any) error {
	block, cfg := qaInputs(el.QA, el.Frame, th, data)
	res, err := layout.Layout(block, cfg, m)
	if err != nil {
		return err
	}
	// 背景横线先画，文字叠在上面
	for _, rule := range res.Rules {
		r.drawRule(ctx, el.Frame, rule, cfg.Rules.Theme)
	}
	return r.drawRuns(ctx, el.Frame, res.Runs, th)
}

// drawText 复用布局引擎排普通文本：作为只有问题区域的 block 块。
func (r *Renderer) drawText(ctx *canvas.Context, el book.Element, th *theme.Theme, m layout.Metrics, data any) error {
	style := th.Style(el.Text.Style)
	if el.Text.Align != "" {
		style.Align = el.Text.Align
	}
	block := layout.ContentBlock{
		QuestionText:  binding.Interpolate(book.Flatten(el.Text.Text), data),
		QuestionStyle: style,
		AnswerStyle:   style,
	}
	cfg := layout.Config{
		BoxWidth:         el.Frame.W,
		BoxHeight:        el.Frame.H,
		Mode:             layout.ModeBlock,
		QuestionPosition: layout.QuestionTop,
	}
	res, err := layout.Layout(block, cfg, m)
	if err != nil {
		return err
	}
	return r.drawRuns(ctx, el.Frame, res.Runs, th)
}

func (r *Renderer) drawRuns(ctx *canvas.Context, frame book.Frame, runs []layout.PositionedRun, th *theme.Theme) error {
	for _, run := range runs {
		if run.Text == "" || run.Style == nil {
			continue
		}
		face, err := r.face(th, *run.Style)
		if err != nil {
			return err
		}
		line := canvas.NewTextLine(face, run.Text, canvas.Left)
		// run.BaselineY 已经是基线，直接落点
		ctx.DrawText(toMm(frame.X+run.X), toMm(frame.Y+run.BaselineY), line)
	}
	return nil
}

// drawRule 画一条装饰横线。rough 主题用 RuleLine.Seed 做可复现的端点
// 与中点抖动，两次导出逐像素一致。
func (r *Renderer) drawRule(ctx *canvas.Context, frame book.Frame, rule layout.RuleLine, ruleTheme layout.RuleTheme) {
	ctx.SetStrokeColor(rgba(ruleColor))
	ctx.SetStrokeWidth(toMm(ruleStrokePt))
	ctx.SetFillColor(color.RGBA{})

	x1 := toMm(frame.X + rule.X1)
	x2 := toMm(frame.X + rule.X2)
	y := toMm(frame.Y + rule.Y)

	p := &canvas.Path{}
	if ruleTheme == layout.RuleThemeRough && rule.Seed != 0 {
		next := jitter(rule.Seed)
		amp := toMm(wobbleAmpPt)
		p.MoveTo(0, next()*amp)
		p.QuadTo((x2-x1)/2, next()*amp, x2-x1, next()*amp)
	} else {
		p.MoveTo(0, 0)
		p.LineTo(x2-x1, 0)
	}
	ctx.DrawPath(x1, y, p)
}

func (r *Renderer) drawImage(ctx *canvas.Context, el book.Element) error {
	src := el.Image.Src
	if src == "" {
		return nil
	}
	if r.baseDir == "" && !filepath.IsAbs(src) {
		return fmt.Errorf("未指定资源目录时不允许使用相对图片路径：%s", src)
	}
	path := src
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	img, _, err := image.Decode(file)
	file.Close()
	if err != nil {
		return fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}

	// 按外框宽度缩放；dpmm = 像素宽 / 目标毫米宽
	widthMm := toMm(el.Frame.W)
	if widthMm <= 0 {
		widthMm = toMm(float64(img.Bounds().Dx()))
	}
	dpmm := float64(img.Bounds().Dx()) / widthMm
	if dpmm <= 0 {
		dpmm = 1
	}
	ctx.DrawImage(toMm(el.Frame.X), toMm(el.Frame.Y), img, canvas.DPMM(dpmm))
	return nil
}

// themeMetrics 把 canvas 的字体度量适配成布局引擎的度量接口。
// canvas 返回毫米，布局引擎全程用 pt，在这里做唯一一次换算。
type themeMetrics struct {
	r  *Renderer
	th *theme.Theme
}

var _ layout.Metrics = (*themeMetrics)(nil)

func (m *themeMetrics) Measure(text string, style layout.TextStyle) float64 {
	face, err := m.r.face(m.th, style)
	if err != nil {
		return 0
	}
	return face.TextWidth(text) * layout.MmToPt
}

func (m *themeMetrics) LineMetrics(style layout.TextStyle) layout.LineMetrics {
	face, err := m.r.face(m.th, style)
	if err != nil {
		// 字体不可用时退回约定度量，布局仍然确定
		return layout.LineMetrics{
			Ascent: style.FontSize * 0.8,
			Pitch:  style.FontSize * layout.DefaultLineHeight,
		}
	}
	fm := face.Metrics()
	return layout.LineMetrics{
		Ascent: fm.Ascent * layout.MmToPt,
		Pitch:  fm.LineHeight * layout.MmToPt,
	}
}

// face 取文本样式对应的字体面。字号传 pt，canvas 的面接受 pt。
func (r *Renderer) face(th *theme.Theme, style layout.TextStyle) (*canvas.FontFace, error) {
	family, fstyle, err := r.ensureFamily(th, style.FontFamily)
	if err != nil {
		return nil, err
	}
	return family.Face(style.FontSize, rgba(style.Color), fstyle, canvas.FontNormal), nil
}

func (r *Renderer) ensureFamily(th *theme.Theme, name string) (*canvas.FontFamily, canvas.FontStyle, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	font, ok := th.Fonts[name]
	fstyle := parseFontStyle(font.Style)
	if fam, cached := r.families[name]; cached {
		return fam, fstyle, nil
	}

	if ok && font.Src != "" {
		path := font.Src
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err == nil {
			fam := canvas.NewFontFamily(name)
			if err := fam.LoadFont(data, 0, fstyle); err == nil {
				r.families[name] = fam
				return fam, fstyle, nil
			}
		}
	}

	fam, err := r.systemFallback()
	if err != nil {
		return nil, canvas.FontRegular, fmt.Errorf("字体 %s 加载失败且无系统回退: %w", name, err)
	}
	r.families[name] = fam
	return fam, canvas.FontRegular, nil
}

// systemFallback 加载一个系统自带的常规字体，主题缺字体时兜底。
func (r *Renderer) systemFallback() (*canvas.FontFamily, error) {
	if r.fallback != nil {
		return r.fallback, nil
	}
	fam := canvas.NewFontFamily("folio-fallback")
	var err error
	for _, name := range []string{"DejaVu Sans", "Liberation Sans", "Arial", "serif"} {
		if err = fam.LoadSystemFont(name, canvas.FontRegular); err == nil {
			r.fallback = fam
			return fam, nil
		}
	}
	return nil, err
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "semibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

// jitter 返回基于 xorshift32 的确定性偏移序列，取值 [-0.5, 0.5]。
func jitter(seed uint32) func() float64 {
	s := seed
	return func() float64 {
		s ^= s << 13
		s ^= s >> 17
		s ^= s << 5
		return float64(s%1000)/999.0 - 0.5
	}
}

func rgba(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toMm 将 pt 换算为毫米，canvas 的页面坐标使用毫米。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
