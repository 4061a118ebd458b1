package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/foliohq/folio/book"
	"github.com/foliohq/folio/collab"
	"github.com/foliohq/folio/layout"
	"github.com/foliohq/folio/renderer"
	canvasrenderer "github.com/foliohq/folio/renderer/canvas"
	"github.com/foliohq/folio/store"
	"github.com/foliohq/folio/theme"
	"github.com/foliohq/folio/web"
)

func main() {
	serve := flag.Bool("serve", false, "以服务方式运行 HTTP API")
	addr := flag.String("addr", envOr("FOLIO_ADDR", ":8080"), "HTTP 监听地址")
	input := flag.String("in", "examples/demo.book.json", "书籍 JSON 文件路径")
	themePath := flag.String("theme", "examples/default.theme", "主题文件路径")
	output := flag.String("out", "output/book.pdf", "PDF 输出路径")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到占位符的 JSON 数据")
	flag.Parse()

	if *serve {
		if err := runServer(*addr); err != nil {
			log.Fatalf("[ERROR] 服务退出: %v", err)
		}
		return
	}

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	var r renderer.Renderer = canvasrenderer.NewRenderer(filepath.Dir(*input))
	if err := export(*input, *themePath, *output, *debug, inputData, r); err != nil {
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", *output)
}

// export 串联解码、布局与渲染。
func export(inputPath, themePath, outputPath, debugPath string, data any, r renderer.Renderer) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("无法读取书籍文件 %s: %w", inputPath, err)
	}
	b, err := book.Decode(raw)
	if err != nil {
		return fmt.Errorf("解码书籍失败: %w", err)
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("书籍校验失败: %w", err)
	}

	themeFile, err := os.Open(themePath)
	if err != nil {
		return fmt.Errorf("无法打开主题文件 %s: %w", themePath, err)
	}
	th, err := theme.Load(themeFile)
	themeFile.Close()
	if err != nil {
		return err
	}

	if debugPath != "" {
		if err := writeDebug(r, b, th, data, debugPath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	pdfBytes, err := r.Render(b, th, data)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

// writeDebug 输出第一个问答元素的布局几何，便于对比不同度量来源的结果。
func writeDebug(r renderer.Renderer, b *book.Book, th *theme.Theme, data any, debugPath string) error {
	cr, ok := r.(*canvasrenderer.Renderer)
	if !ok {
		return fmt.Errorf("当前 renderer 不支持布局调试输出")
	}
	for _, page := range b.Pages {
		for _, el := range page.Elements {
			if el.Kind != book.KindQA {
				continue
			}
			res, err := cr.LayoutElement(el.QA, el.Frame, th, data)
			if err != nil {
				return fmt.Errorf("布局计算失败: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
				return fmt.Errorf("创建调试目录失败: %w", err)
			}
			if err := layout.WriteDebugJSON(res, debugPath); err != nil {
				return fmt.Errorf("输出调试 JSON 失败: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("书中没有问答元素，无法输出布局调试")
}

// runServer 初始化存储、协作客户端与渲染器并启动 HTTP API。
func runServer(addr string) error {
	st := store.NewStore(&store.Conf{
		Host: envOr("FOLIO_PG_HOST", "localhost"),
		Port: envInt("FOLIO_PG_PORT", 5432),
		User: envOr("FOLIO_PG_USER", "folio"),
		PW:   os.Getenv("FOLIO_PG_PW"),
		DB:   envOr("FOLIO_PG_DB", "folio"),
		DSN:  os.Getenv("FOLIO_PG_DSN"),
	})
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	cc := collab.NewClient(&collab.Conf{
		Host: envOr("FOLIO_REDIS_HOST", "localhost"),
		Port: envInt("FOLIO_REDIS_PORT", 6379),
		PW:   os.Getenv("FOLIO_REDIS_PW"),
		DB:   envInt("FOLIO_REDIS_DB", 0),
	})
	if err := cc.Init(); err != nil {
		return err
	}
	defer cc.Close()

	secret := os.Getenv("FOLIO_SECRET")
	if secret == "" {
		return fmt.Errorf("必须设置 FOLIO_SECRET")
	}

	assetDir := envOr("FOLIO_ASSET_DIR", "assets")
	svc := &web.Service{
		Store:     st,
		Collab:    cc,
		Renderer:  canvasrenderer.NewRenderer(assetDir),
		Auth:      &web.Auth{Secret: []byte(secret), Issuer: "folio"},
		ThemeDir:  envOr("FOLIO_THEME_DIR", filepath.Join(assetDir, "themes")),
		UploadDir: envOr("FOLIO_UPLOAD_DIR", filepath.Join(assetDir, "uploads")),
	}
	if err := os.MkdirAll(svc.UploadDir, 0o755); err != nil {
		return fmt.Errorf("创建上传目录失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return svc.ListenAndServe(ctx, addr)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
