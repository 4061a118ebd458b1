package book

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/foliohq/folio/layout"
)

// 该文件定义书籍文档模型。整棵文档树以 JSON 形式持久化（store 的 jsonb 列），
// 编辑器与导出器共享同一份存储态；布局结果永远不入库。

// ElementKind 是页面元素的类型。
type ElementKind string

const (
	KindQA    ElementKind = "qa"
	KindText  ElementKind = "text"
	KindImage ElementKind = "image"
)

// Frame 是元素在页面上的外框，单位 pt，原点在页面左上角。
type Frame struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// QAElement 是问答块的存储态：文本允许携带富文本标记（导出前会被拍平），
// 样式以主题样式名引用，排版参数直接嵌入引擎的持久化形式。
type QAElement struct {
	Question      string        `json:"question"`
	Answer        string        `json:"answer"`
	QuestionStyle string        `json:"questionStyle"`
	AnswerStyle   string        `json:"answerStyle"`
	Layout        layout.Config `json:"layout"`
}

// TextElement 是普通文本元素。
type TextElement struct {
	Text  string       `json:"text"`
	Style string       `json:"style"`
	Align layout.Align `json:"align,omitempty"`
}

// ImageElement 指向一张已上传的图片。
type ImageElement struct {
	Src     string  `json:"src"`
	Fit     string  `json:"fit,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}

// Element 是页面上的一个元素，Kind 决定哪个载荷字段非空。
type Element struct {
	Kind  ElementKind   `json:"kind"`
	Frame Frame         `json:"frame"`
	QA    *QAElement    `json:"qa,omitempty"`
	Text  *TextElement  `json:"text,omitempty"`
	Image *ImageElement `json:"image,omitempty"`
}

// Page 是书中的一页，尺寸单位 pt。
type Page struct {
	ID       string    `json:"id"`
	Index    int       `json:"index"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Elements []Element `json:"elements"`
}

// Book 是一本可协作编辑的书。
type Book struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"ownerId"`
	Title     string    `json:"title"`
	Theme     string    `json:"theme,omitempty"`
	Pages     []Page    `json:"pages"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Decode 从存储态 JSON 还原一本书。
func Decode(data []byte) (*Book, error) {
	var b Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("解析书籍文档失败: %w", err)
	}
	return &b, nil
}

// Encode 输出存储态 JSON。
func (b *Book) Encode() ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("序列化书籍文档失败: %w", err)
	}
	return data, nil
}

// Validate 做入库前的轻量校验：页序号连续、元素载荷与 Kind 匹配。
func (b *Book) Validate() error {
	for i, p := range b.Pages {
		if p.Index != i {
			return fmt.Errorf("第 %d 页的序号为 %d, 页序必须连续", i, p.Index)
		}
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("第 %d 页尺寸非法: %gx%g", i, p.Width, p.Height)
		}
		for j, el := range p.Elements {
			switch el.Kind {
			case KindQA:
				if el.QA == nil {
					return fmt.Errorf("页 %d 元素 %d 缺少 qa 载荷", i, j)
				}
			case KindText:
				if el.Text == nil {
					return fmt.Errorf("页 %d 元素 %d 缺少 text 载荷", i, j)
				}
			case KindImage:
				if el.Image == nil {
					return fmt.Errorf("页 %d 元素 %d 缺少 image 载荷", i, j)
				}
			default:
				return fmt.Errorf("页 %d 元素 %d 类型未知: %q", i, j, el.Kind)
			}
		}
	}
	return nil
}
