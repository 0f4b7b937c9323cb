package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	pageannotator "github.com/menta2k/page-annotator"
	"github.com/menta2k/page-annotator/internal/config"
	"github.com/menta2k/page-annotator/internal/utils"
	"github.com/menta2k/page-annotator/pkg/caption"
	"github.com/menta2k/page-annotator/pkg/chrome"
	"github.com/menta2k/page-annotator/pkg/client"
	"github.com/menta2k/page-annotator/pkg/graphics"
	"github.com/menta2k/page-annotator/pkg/llamacpp"
	"github.com/menta2k/page-annotator/pkg/ollama"
	"github.com/menta2k/page-annotator/pkg/processing"
	"github.com/menta2k/page-annotator/pkg/types"
)

// listFlag collects repeated string flags
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var pageURL, in, outDir, configPath, ext string
	var quality int
	var lossless, doCaption, headless, dumpConfig bool
	var selectors, rects listFlag
	var fontSize float64

	flag.StringVar(&pageURL, "url", "", "page to capture with Chrome")
	flag.StringVar(&in, "in", "", "existing screenshot path or URL (offline mode, use with -rect)")
	flag.Var(&selectors, "selector", "CSS selector of an element to cut out (repeatable)")
	flag.Var(&rects, "rect", "element box in screenshot pixels as left,top,right,bottom (repeatable, offline mode)")
	flag.StringVar(&outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&configPath, "config", "", "config file (default "+config.GetConfigPath()+" if it exists)")
	flag.StringVar(&ext, "ext", "", "output format: png|jpg|webp")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP output lossless mode")
	flag.BoolVar(&doCaption, "caption", false, "label elements using a vision model")
	flag.BoolVar(&headless, "headless", true, "run Chrome headless")
	flag.Float64Var(&fontSize, "fontsize", 0, "label font size in pixels")
	flag.BoolVar(&dumpConfig, "dump-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	// Flags override the config file
	if outDir != "" {
		cfg.Output.OutputDir = outDir
	}
	if ext != "" {
		cfg.Output.Format = strings.ToLower(ext)
	}
	if quality != 0 {
		cfg.Output.Quality = quality
	}
	if lossless {
		cfg.Output.Lossless = true
	}
	if doCaption {
		cfg.Caption.Enabled = true
	}
	if fontSize > 0 {
		cfg.Annotation.FontSize = fontSize
	}
	cfg.Browser.Headless = cfg.Browser.Headless && headless

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if dumpConfig {
		js, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(js))
		return
	}

	if (pageURL == "") == (in == "") {
		log.Fatalf("usage: %s (-url page_url -selector css [-selector css ...] | -in screenshot.png -rect l,t,r,b [-rect ...]) [-out outdir] [-ext png|jpg|webp] [-caption]", filepath.Base(os.Args[0]))
	}

	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		log.Fatal(err)
	}

	annotator, err := graphics.NewWithConfig(graphics.Config{
		FontPath: cfg.Annotation.FontPath,
		Padding:  cfg.Annotation.TextPadding,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if cfg.Browser.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Browser.Timeout.Duration)
		defer cancel()
	}

	processor := processing.NewProcessor()

	var shot *pageannotator.Snapshot
	var snap *pageannotator.Snapshotter
	if pageURL != "" {
		browser, err := chrome.New(context.Background(), chrome.Options{
			Headless:     cfg.Browser.Headless,
			WindowWidth:  cfg.Browser.WindowWidth,
			WindowHeight: cfg.Browser.WindowHeight,
			UserAgent:    cfg.Browser.UserAgent,
			ExecPath:     cfg.Browser.ExecPath,
			StartTimeout: 30 * time.Second,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer browser.Close()

		snap = pageannotator.NewWithAnnotator(browser, annotator)
		shot, err = snap.Capture(ctx, pageURL, selectors)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("captured %s: %dx%d px, device pixel ratio %.2f",
			pageURL, shot.Page.Bounds().Dx(), shot.Page.Bounds().Dy(), shot.PixelRatio)
	} else {
		snap = pageannotator.NewWithAnnotator(nil, annotator)
		shot, err = offlineSnapshot(processor, in, rects)
		if err != nil {
			log.Fatal(err)
		}
	}

	if cfg.Caption.Enabled {
		visionClient, err := newVisionClient(cfg.Caption)
		if err != nil {
			log.Fatal(err)
		}
		snap.SetCaptioner(caption.New(visionClient, cfg.Caption.Model))
		if err := snap.Caption(ctx, shot); err != nil {
			log.Printf("captioning stopped: %v", err)
		}
	}

	format := cfg.Output.Format
	prefix := cfg.Output.Prefix

	// Element screenshots
	for i, el := range shot.Elements {
		if el.Err != nil {
			log.Printf("skip %s: %v", el.Selector, el.Err)
			continue
		}
		path := utils.GenerateOutputFilename(cfg.Output.OutputDir, prefix, i+1, el.Selector, format)
		save(processor, el.Image, path, cfg.Output)
		if el.Caption != "" {
			log.Printf("%s: %q", el.Selector, el.Caption)
		}
	}

	// Page with bounding boxes and labels
	annotated, err := snap.Annotate(shot, pageannotator.Style{
		BoxColor:    cfg.Annotation.BoxColor,
		TextColor:   cfg.Annotation.TextColor,
		StrokeWidth: cfg.Annotation.StrokeWidth,
		FontSize:    cfg.Annotation.FontSize,
	})
	if err != nil {
		log.Fatal(err)
	}
	save(processor, annotated, filepath.Join(cfg.Output.OutputDir, fmt.Sprintf("%s000_annotated.%s", prefix, format)), cfg.Output)

	// Machine readable summary
	summary := filepath.Join(cfg.Output.OutputDir, prefix+"elements.json")
	if err := writeSummary(summary, shot); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", summary)
}

// writeSummary stores the snapshot, including per-element errors, as JSON
func writeSummary(path string, shot *pageannotator.Snapshot) error {
	js, err := json.MarshalIndent(shot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, js, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default(), nil
		}
	}
	return config.LoadFromFile(path)
}

func newVisionClient(cfg config.CaptionConfig) (client.VisionClient, error) {
	switch cfg.Backend {
	case "ollama":
		return ollama.NewClient(cfg.URL)
	case "llamacpp":
		return llamacpp.NewClient(cfg.URL)
	default:
		return nil, fmt.Errorf("unknown caption backend: %s (use 'ollama' or 'llamacpp')", cfg.Backend)
	}
}

// offlineSnapshot builds a snapshot from a stored screenshot and boxes given
// in screenshot pixels.
func offlineSnapshot(processor *processing.Processor, source string, rects []string) (*pageannotator.Snapshot, error) {
	page, err := processor.LoadImageSmart(source)
	if err != nil {
		return nil, err
	}

	shot := &pageannotator.Snapshot{URL: source, Page: page, PixelRatio: graphics.DefaultDevicePixelRatio}
	for _, arg := range rects {
		el := pageannotator.Element{Selector: arg}
		el.BBox, el.Err = parseRect(arg)
		if el.Err == nil {
			el.Image, el.Err = graphics.TakeElementScreenshot(page, el.BBox)
		}
		shot.Elements = append(shot.Elements, el)
	}
	return shot, nil
}

func parseRect(arg string) (types.Rectangle, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 4 {
		return types.Rectangle{}, fmt.Errorf("invalid rect %q: expected left,top,right,bottom", arg)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return types.Rectangle{}, fmt.Errorf("invalid rect %q: %w", arg, err)
		}
		v[i] = n
	}
	return types.Rect(v[0], v[1], v[2], v[3]), nil
}

func save(processor *processing.Processor, img image.Image, path string, out config.OutputConfig) {
	if out.Format == "jpg" || out.Format == "jpeg" {
		// JPEG has no alpha; flatten onto white like a browser would
		bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), types.White)
		img = imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
	}
	if err := processor.SaveImage(img, path, out.Format, out.Quality, out.Lossless); err != nil {
		log.Printf("save %s failed: %v", path, err)
		return
	}
	if info, err := os.Stat(path); err == nil {
		log.Printf("wrote %s (%s)", path, utils.FormatFileSize(info.Size()))
	} else {
		log.Printf("wrote %s", path)
	}
}
