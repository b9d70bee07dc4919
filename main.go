package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	"recompress/config"
	"recompress/convert"
	"recompress/engine"
	"recompress/estimate"
	"recompress/probe"
	"recompress/tui"
	"recompress/video"
)

func main() {
	presetFlag := flag.String("preset", "", "Named preset to apply, e.g. movie-balanced (see -list-presets)")
	presetFile := flag.String("presets", "", "YAML file with preset overrides")
	listPresets := flag.Bool("list-presets", false, "List all available presets and exit")
	analyzeOnly := flag.Bool("analyze", false, "Print metadata and recommendations, do not convert")
	codecFlag := flag.String("codec", "", "Convert without the picker using this codec: h264, h265, vp9, av1")
	outDir := flag.String("out", ".", "Output directory")
	noTUI := flag.Bool("no-tui", false, "Plain text output instead of the interactive UI")
	logLevel := flag.String("log-level", "warn", "Log level: trace, debug, info, warn, error")

	flag.Usage = func() {
		fmt.Println("Usage: recompress [options] <input-file>")
		fmt.Println()
		fmt.Println("Analyzes a video and recommends compression settings, then converts it.")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  recompress movie.mp4                          # Interactive analyze + convert")
		fmt.Println("  recompress -analyze movie.mp4                 # Just print recommendations")
		fmt.Println("  recompress -codec=av1 -no-tui movie.mp4       # Convert straight to AV1")
		fmt.Println("  recompress -preset=anime-quality show.mkv     # Apply a named preset")
	}
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "recompress",
		Level:  hclog.LevelFromString(*logLevel),
		Output: os.Stderr,
	})

	catalog := config.Catalog()
	if *presetFile != "" {
		var err error
		catalog, err = config.LoadOverlay(*presetFile)
		if err != nil {
			fatal("load presets: %v", err)
		}
	}
	if *listPresets {
		printPresets(catalog)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	file, err := statFile(args[0])
	if err != nil {
		fatal("%v", err)
	}

	var preset *config.Preset
	if *presetFlag != "" {
		p, ok := config.ByID(catalog, *presetFlag)
		if !ok {
			fatal("unknown preset %q; run -list-presets", *presetFlag)
		}
		preset = &p
	}

	eng, err := engine.Default()
	if err != nil {
		fatal("%v", err)
	}
	defer eng.Close()

	prober := probe.NewChain(eng, logger)
	capability := convert.NewHostCapability(logger)
	router := convert.NewRouter(
		capability,
		convert.NewHardwarePath(capability, prober, logger),
		convert.NewSoftwarePath(eng, logger),
		logger,
	)

	if *analyzeOnly {
		if err := runAnalyze(prober, file, preset); err != nil {
			fatal("%v", err)
		}
		return
	}

	if *codecFlag != "" || *noTUI {
		if err := runPlain(prober, router, file, preset, *codecFlag, *outDir); err != nil {
			fatal("%v", err)
		}
		return
	}

	model := tui.NewModel(file, prober, router, preset, *outDir)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fatal("%v", err)
	}
}

func statFile(path string) (video.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return video.File{}, fmt.Errorf("input file not found: %s", path)
	}
	return video.File{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
		MIME: mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}

func runAnalyze(prober *probe.Chain, file video.File, preset *config.Preset) error {
	meta, err := prober.Probe(context.Background(), file)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %dx%d @ %.3g fps, %s, %s, %s\n",
		meta.Filename, meta.Width, meta.Height, meta.Framerate,
		estimate.FormatDuration(meta.Duration),
		estimate.FormatBitrate(meta.Bitrate),
		estimate.FormatSize(float64(meta.FileSize)))
	fmt.Println()

	for i, rec := range estimate.RecommendWithPreset(meta, preset) {
		fmt.Printf("%d. %-8s save %5.1f%%  -> %-10s  ~%s encode\n",
			i+1, rec.CodecName, rec.EstimatedSavingsPercent,
			estimate.FormatSize(rec.EstimatedSize),
			estimate.FormatDuration(rec.EstimatedTime))
		fmt.Printf("   %s\n", rec.Command)
	}
	return nil
}

// runPlain converts without the interactive picker: the preset wins when
// given, then the requested codec, then the sweep's best recommendation.
func runPlain(prober *probe.Chain, router *convert.Router, file video.File, preset *config.Preset, codecName, outDir string) error {
	ctx := context.Background()
	meta, err := prober.Probe(ctx, file)
	if err != nil {
		return err
	}

	recs := estimate.RecommendWithPreset(meta, preset)
	rec := recs[0]
	if preset == nil && codecName != "" {
		found := false
		for _, r := range recs {
			if string(r.Codec) == strings.ToLower(codecName) {
				rec = r
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown codec %q; choose h264, h265, vp9 or av1", codecName)
		}
	}

	fmt.Fprintf(os.Stderr, "converting %s to %s (estimated savings %.1f%%)\n",
		file.Name, rec.CodecName, rec.EstimatedSavingsPercent)

	var lastPct float64 = -1
	result, err := router.Convert(ctx, file, convert.FromRecommendation(rec), func(p video.Progress) {
		if p.Progress-lastPct >= 5 || p.Progress == 100 {
			lastPct = p.Progress
			fmt.Fprintf(os.Stderr, "  %5.1f%%  %s\n", p.Progress, p.Message)
		}
	})
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
	outPath := filepath.Join(outDir, base+"_recompressed"+rec.Codec.OutputExt())
	if err := os.WriteFile(outPath, result.Data, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %s (%s, %.1f%% of original)\n",
		outPath, estimate.FormatSize(float64(len(result.Data))),
		float64(len(result.Data))/float64(file.Size)*100)
	return nil
}

func printPresets(catalog []config.Preset) {
	fmt.Println("Available presets:")
	fmt.Println()
	for _, cat := range config.Categories() {
		fmt.Printf("%s:\n", config.CategoryName(cat))
		for _, p := range config.ByCategory(catalog, cat) {
			desc := p.Description
			if desc == "" {
				desc = p.Name
			}
			fmt.Printf("  %-18s %s\n", p.ID, desc)
		}
		fmt.Println()
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
