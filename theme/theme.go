package theme

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/foliohq/folio/layout"
)

// 主题文件声明字体、颜色与具名样式（支持 extends 继承），
// 并给出横线主题与全局缺省。解析结果是渲染期把样式名解析为
// layout.TextStyle 的唯一来源。

// Font 描述一个字体面。Src 为相对主题目录的路径，Style 为字重/斜体描述。
type Font struct {
	Name  string
	Src   string
	Style string
}

// Theme 是解析并完成继承展开后的主题。
type Theme struct {
	Name       string
	Fonts      map[string]Font
	Colors     map[string]layout.Color
	Styles     map[string]layout.TextStyle
	FontOf     map[string]string // 样式名 → 字体名
	RuleTheme  layout.RuleTheme
	LineHeight float64 // 全局缺省行高倍数
}

// Load 解析并解析主题文件。
func Load(r io.Reader) (*Theme, error) {
	file, err := ParseFile(r)
	if err != nil {
		return nil, fmt.Errorf("解析主题失败: %w", err)
	}
	return Resolve(file)
}

// LoadString 从字符串加载主题。
func LoadString(input string) (*Theme, error) {
	file, err := ParseString(input)
	if err != nil {
		return nil, fmt.Errorf("解析主题失败: %w", err)
	}
	return Resolve(file)
}

// Resolve 把 AST 展开为可用的主题：收集资源、展开样式继承并检测循环。
func Resolve(file *File) (*Theme, error) {
	t := &Theme{
		Name:       file.Name,
		Fonts:      map[string]Font{},
		Colors:     map[string]layout.Color{},
		Styles:     map[string]layout.TextStyle{},
		FontOf:     map[string]string{},
		RuleTheme:  layout.RuleThemeDefault,
		LineHeight: layout.DefaultLineHeight,
	}

	rawStyles := map[string]*StyleDecl{}
	for _, d := range file.Decls {
		switch {
		case d.Font != nil:
			f := Font{Name: d.Font.Name}
			for _, e := range entries(d.Font.Block) {
				switch e.Key {
				case "src":
					f.Src = e.Value.Text()
				case "style":
					f.Style = e.Value.Text()
				}
			}
			t.Fonts[f.Name] = f
		case d.Color != nil:
			c, err := parseColor(d.Color.Value)
			if err != nil {
				return nil, fmt.Errorf("颜色 %s: %w", d.Color.Name, err)
			}
			t.Colors[d.Color.Name] = c
		case d.Style != nil:
			if _, dup := rawStyles[d.Style.Name]; dup {
				return nil, fmt.Errorf("样式 %s 重复定义", d.Style.Name)
			}
			rawStyles[d.Style.Name] = d.Style
		case d.Rules != nil:
			for _, e := range entries(d.Rules.Block) {
				if e.Key == "theme" && e.Value.Text() == string(layout.RuleThemeRough) {
					t.RuleTheme = layout.RuleThemeRough
				}
			}
		case d.Defaults != nil:
			for _, e := range entries(d.Defaults.Block) {
				if e.Key == "line-height" {
					if f, ok := parseFactor(e.Value.Text()); ok {
						t.LineHeight = f
					}
				}
			}
		}
	}

	if err := t.resolveStyles(rawStyles); err != nil {
		return nil, err
	}
	return t, nil
}

// resolveStyles 展开样式继承链（DFS + 访问标记做循环检测），
// 与资源样式的解析方式保持一致。
func (t *Theme) resolveStyles(raw map[string]*StyleDecl) error {
	visiting := map[string]bool{}

	var dfs func(name string) (layout.TextStyle, string, error)
	dfs = func(name string) (layout.TextStyle, string, error) {
		if s, ok := t.Styles[name]; ok {
			return s, t.FontOf[name], nil
		}
		decl, ok := raw[name]
		if !ok {
			return layout.TextStyle{}, "", fmt.Errorf("样式 %s 未定义", name)
		}
		if visiting[name] {
			return layout.TextStyle{}, "", fmt.Errorf("样式继承存在循环: %s", name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		style := layout.TextStyle{LineHeight: t.LineHeight}
		fontName := ""
		if decl.Extends != "" {
			parent, pf, err := dfs(decl.Extends)
			if err != nil {
				return layout.TextStyle{}, "", err
			}
			style = parent
			fontName = pf
		}
		for _, e := range entries(decl.Block) {
			val := e.Value.Text()
			switch e.Key {
			case "font":
				fontName = val
			case "size":
				if pt, ok := parseSizePt(val); ok {
					style.FontSize = pt
				}
			case "color":
				if c, ok := t.Colors[val]; ok {
					style.Color = c
				} else if c, err := parseColor(val); err == nil {
					style.Color = c
				}
			case "line-height":
				if f, ok := parseFactor(val); ok {
					style.LineHeight = f
				}
			case "align":
				switch layout.Align(val) {
				case layout.AlignLeft, layout.AlignCenter, layout.AlignRight:
					style.Align = layout.Align(val)
				}
			}
		}
		if fontName == "" {
			fontName = "Body"
		}
		style.FontFamily = fontName
		t.Styles[name] = style
		t.FontOf[name] = fontName
		return style, fontName, nil
	}

	for name := range raw {
		if _, _, err := dfs(name); err != nil {
			return err
		}
	}
	return nil
}

// Style 按名字查找样式；找不到时回退到 Body，再不行给一个可用的兜底。
func (t *Theme) Style(name string) layout.TextStyle {
	if s, ok := t.Styles[name]; ok {
		return s
	}
	if s, ok := t.Styles["Body"]; ok {
		return s
	}
	return layout.TextStyle{
		FontFamily: "Body",
		FontSize:   12,
		Color:      layout.Color{R: 30, G: 30, B: 30},
		LineHeight: t.LineHeight,
	}
}

// FontFor 返回样式对应的字体面。
func (t *Theme) FontFor(style layout.TextStyle) (Font, bool) {
	f, ok := t.Fonts[style.FontFamily]
	return f, ok
}

func entries(b *Block) []*Entry {
	if b == nil {
		return nil
	}
	return b.Entries
}

// parseSizePt 解析字号；裸数字与 pt 后缀按 pt，mm 后缀换算为 pt。
func parseSizePt(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	switch {
	case strings.HasSuffix(v, "pt"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "pt"), 64)
		return f, err == nil && f > 0
	case strings.HasSuffix(v, "mm"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "mm"), 64)
		return f * layout.MmToPt, err == nil && f > 0
	default:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil && f > 0
	}
}

// parseFactor 解析行高倍数（1.3x 或裸数字）。
func parseFactor(v string) (float64, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "x")
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil && f > 0
}

func parseColor(value string) (layout.Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		return layout.Color{
			R: mustHex(strings.Repeat(string(value[0]), 2)),
			G: mustHex(strings.Repeat(string(value[1]), 2)),
			B: mustHex(strings.Repeat(string(value[2]), 2)),
		}, nil
	case 6:
		return layout.Color{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
		}, nil
	default:
		return layout.Color{}, fmt.Errorf("颜色值 #%s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}
