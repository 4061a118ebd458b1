package book

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/foliohq/folio/layout"
)

func TestFlatten(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"<p>first</p><p>second</p>", "first second"},
		{"a &amp; b &lt;c&gt;", "a & b <c>"},
		{"  too   many\n\nspaces ", "too many spaces"},
		{"<span style=\"color:#f00\">red</span>", "red"},
		{"&nbsp;&nbsp;x", "x"},
		{"", ""},
		{"<br/>", ""},
	}
	for _, c := range cases {
		if got := Flatten(c.in); got != c.want {
			t.Fatalf("Flatten(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func sampleBook() *Book {
	return &Book{
		ID:      7,
		OwnerID: 3,
		Title:   "驯鹿访谈录",
		Theme:   "notebook",
		Pages: []Page{
			{
				ID: "p1", Index: 0, Width: 595, Height: 842,
				Elements: []Element{
					{
						Kind:  KindQA,
						Frame: Frame{X: 40, Y: 60, W: 300, H: 150},
						QA: &QAElement{
							Question:      "<b>What is your favorite color?</b>",
							Answer:        "Blue",
							QuestionStyle: "Question",
							AnswerStyle:   "Answer",
							Layout: layout.Config{
								BoxWidth: 300, BoxHeight: 150, Padding: 8,
								Mode:  layout.ModeInline,
								Rules: layout.RuleConfig{Enabled: true, Theme: layout.RuleThemeRough},
							},
						},
					},
					{Kind: KindText, Frame: Frame{X: 40, Y: 260, W: 400, H: 40}, Text: &TextElement{Text: "第一章", Style: "Title"}},
					{Kind: KindImage, Frame: Frame{X: 40, Y: 320, W: 200, H: 120}, Image: &ImageElement{Src: "uploads/cover.png", Opacity: 1}},
				},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b := sampleBook()
	data, err := b.Encode()
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	if diff := cmp.Diff(b, got); diff != "" {
		t.Fatalf("文档经存储往返后发生变化 (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	b := sampleBook()
	if err := b.Validate(); err != nil {
		t.Fatalf("合法文档不应校验失败: %v", err)
	}

	bad := sampleBook()
	bad.Pages[0].Elements[0].QA = nil
	if err := bad.Validate(); err == nil {
		t.Fatalf("缺少载荷应校验失败")
	}

	bad = sampleBook()
	bad.Pages[0].Index = 5
	if err := bad.Validate(); err == nil {
		t.Fatalf("页序不连续应校验失败")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Fatalf("非法 JSON 应报错")
	}
}
