package label

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultRenderTimeout = 30 * time.Second

// Target куда отдать готовую этикетку.
type Target struct {
	Printer  string
	SaveOnly bool
}

type Renderer interface {
	Render(ctx context.Context, req Request, target Target) (string, error)
}

type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error { return e.Cause }

const (
	ErrCodeTemplate      = "TEMPLATE"
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeStorage       = "STORAGE_FAILED"
	ErrCodePrint         = "PRINT_FAILED"
)

type ChromeConfig struct {
	TemplatePath string
	OutputDir    string
	Timeout      time.Duration
	NoSandbox    bool
	Log          *slog.Logger
}

// ChromeRenderer печатает HTML этикетки в PDF через headless Chrome
// и отправляет файл на принтер командой lp.
type ChromeRenderer struct {
	cfg         ChromeConfig
	log         *slog.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	print       func(ctx context.Context, printer, path string) error
	now         func() time.Time
}

func NewChromeRenderer(cfg ChromeConfig) *ChromeRenderer {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeRenderer{
		cfg:         cfg,
		log:         log,
		allocCtx:    allocCtx,
		allocCancel: cancel,
		print:       lp,
		now:         time.Now,
	}
}

// Render шаблон перечитывается на каждую этикетку, правки применяются без перезапуска.
func (r *ChromeRenderer) Render(ctx context.Context, req Request, target Target) (string, error) {
	tmpl, err := LoadTemplate(r.cfg.TemplatePath)
	if err != nil {
		return "", &RenderError{Code: ErrCodeTemplate, Message: "load template", Cause: err}
	}
	html, err := HTML(tmpl, req)
	if err != nil {
		return "", &RenderError{Code: ErrCodeTemplate, Message: "build label", Cause: err}
	}

	pdf, err := r.PrintHTML(ctx, html, tmpl.Width, tmpl.Height)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", &RenderError{Code: ErrCodeStorage, Message: "create output dir", Cause: err}
	}
	path := filepath.Join(r.cfg.OutputDir, FileName(req.Fields[PhBarcode], r.now()))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", &RenderError{Code: ErrCodeStorage, Message: "write pdf", Cause: err}
	}

	if target.SaveOnly {
		r.log.Info("label saved", "path", path)
		return path, nil
	}
	if err := r.print(ctx, target.Printer, path); err != nil {
		return path, &RenderError{Code: ErrCodePrint, Message: "send to printer", Cause: err}
	}
	r.log.Info("label printed", "path", path, "printer", target.Printer)
	return path, nil
}

// PrintHTML готовая HTML-страница в PDF заданного формата (в пунктах).
// Длинный документ Chrome сам разбивает на страницы.
func (r *ChromeRenderer) PrintHTML(ctx context.Context, html string, widthPt, heightPt float64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx)
	defer browserCancel()

	// Отмена запроса должна гасить и вкладку браузера.
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	var data []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(widthPt / 72).
				WithPaperHeight(heightPt / 72).
				WithMarginTop(0).
				WithMarginRight(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				Do(ctx)
			if err != nil {
				return err
			}
			data = out
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &RenderError{Code: ErrCodeRenderTimeout, Message: fmt.Sprintf("label rendering timed out after %v", r.cfg.Timeout), Cause: err}
		}
		r.log.Error("chromedp rendering failed", "err", err)
		return nil, &RenderError{Code: ErrCodeRenderFailed, Message: "chromedp execution failed", Cause: err}
	}
	if len(data) == 0 {
		return nil, &RenderError{Code: ErrCodeRenderFailed, Message: "generated PDF is empty"}
	}
	return data, nil
}

func (r *ChromeRenderer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}

// FileName label_<barcode>_<YYYYMMDD_HHMMSS>.pdf; символы, недопустимые в имени файла, заменяются.
func FileName(barcode string, ts time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, barcode)
	return fmt.Sprintf("label_%s_%s.pdf", safe, ts.Format("20060102_150405"))
}

func lp(ctx context.Context, printer, path string) error {
	args := []string{path}
	if printer != "" {
		args = []string{"-d", printer, path}
	}
	out, err := exec.CommandContext(ctx, "lp", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("lp: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
