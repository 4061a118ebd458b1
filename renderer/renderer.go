package renderer

import (
	"github.com/foliohq/folio/book"
	"github.com/foliohq/folio/theme"
)

// Renderer 将一本书连同主题与绑定数据导出为最终文件（例如 PDF 字节切片）。
// 像素级的几何全部来自布局引擎，渲染器只负责把 Run 与横线画到页面上。
type Renderer interface {
	Render(b *book.Book, th *theme.Theme, data any) ([]byte, error)
}
