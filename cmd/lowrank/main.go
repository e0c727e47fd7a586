package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/yyyoichi/httpcache-go"

	"github.com/yyyoichi/lowrank"
	"github.com/yyyoichi/lowrank/internal/quality"
	"github.com/yyyoichi/lowrank/internal/report"
)

type config struct {
	src      string
	rank     int
	out      string
	maxDim   int
	sweep    int
	chart    string
	dbPath   string
	cacheDir string
}

func main() {
	var cfg config
	flag.StringVar(&cfg.src, "src", "", "image file path or http(s) URL")
	flag.IntVar(&cfg.rank, "k", 0, "rank to render (default: 10% of the maximum rank)")
	flag.StringVar(&cfg.out, "out", "lowrank.png", "output PNG path")
	flag.IntVar(&cfg.maxDim, "max", lowrank.DefaultMaxDim, "maximum image side after resizing (0 keeps the size)")
	flag.IntVar(&cfg.sweep, "sweep", 0, "number of evenly spaced ranks to measure")
	flag.StringVar(&cfg.chart, "chart", "", "write an HTML chart of the sweep to this path")
	flag.StringVar(&cfg.dbPath, "db", "", "append sweep samples to this SQLite database")
	flag.StringVar(&cfg.cacheDir, "cache", filepath.Join(os.TempDir(), "lowrank_http_cache"), "HTTP cache directory for URL sources")
	verbose := flag.Bool("v", false, "log scheduler events to stderr")
	flag.Parse()

	if cfg.src == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		lowrank.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config) error {
	src, err := load(ctx, cfg.src, cfg.cacheDir)
	if err != nil {
		return err
	}
	img := lowrank.Prepare(src, cfg.maxDim)
	pixels, w, h := lowrank.Pixels(img)
	log.Printf("Loaded %s (%dx%d, working size %dx%d)", cfg.src, src.Bounds().Dx(), src.Bounds().Dy(), w, h)

	s, err := lowrank.New()
	if err != nil {
		return err
	}
	done, err := s.SubmitImage(ctx, pixels, w, h)
	if err != nil {
		return err
	}
	if err := <-done; err != nil {
		return err
	}

	if cfg.sweep > 0 {
		if err := sweep(ctx, s, cfg, pixels); err != nil {
			return err
		}
	}

	if cfg.rank > 0 {
		if err := s.SetRank(cfg.rank); err != nil {
			return err
		}
	} else if err := s.SetRank(s.State().Rank); err != nil {
		return err
	}
	frame, ok := s.Tick()
	if !ok {
		return fmt.Errorf("no frame rendered")
	}
	if err := writePNG(cfg.out, frame.Image()); err != nil {
		return err
	}
	log.Printf("Wrote %s: k=%d/%d, savings %.1f%%, MAE %.3f",
		cfg.out, frame.Rank, s.State().MaxRank, frame.Savings*100, quality.MeanAbsError(pixels, frame.Pixels))
	return nil
}

func sweep(ctx context.Context, s *lowrank.Scheduler, cfg config, original []uint8) error {
	var samples []report.Sample
	for _, k := range sweepRanks(s.State().MaxRank, cfg.sweep) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.SetRank(k); err != nil {
			return err
		}
		frame, ok := s.Tick()
		if !ok {
			return fmt.Errorf("no frame rendered for k=%d", k)
		}
		sm := report.Sample{
			Source:  cfg.src,
			Width:   frame.Width,
			Height:  frame.Height,
			Rank:    frame.Rank,
			Savings: frame.Savings,
			MAE:     quality.MeanAbsError(original, frame.Pixels),
			PSNR:    quality.PSNR(original, frame.Pixels),
		}
		log.Printf("k=%4d savings=%7.2f%% MAE=%7.3f PSNR=%6.2f dB", sm.Rank, sm.Savings*100, sm.MAE, sm.PSNR)
		samples = append(samples, sm)
	}

	if cfg.dbPath != "" {
		store, err := report.Open(cfg.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Insert(ctx, samples); err != nil {
			return err
		}
		log.Printf("Stored %d samples in %s", len(samples), cfg.dbPath)
	}

	if cfg.chart != "" {
		f, err := os.Create(cfg.chart)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.RenderChart(f, filepath.Base(cfg.src), samples); err != nil {
			return err
		}
		log.Printf("Generated: %s", cfg.chart)
	}
	return nil
}

// sweepRanks returns up to n distinct ranks spread evenly over [1, maxRank].
func sweepRanks(maxRank, n int) []int {
	if maxRank < 1 || n < 1 {
		return nil
	}
	if n == 1 || maxRank == 1 {
		return []int{maxRank}
	}
	var ranks []int
	for i := range n {
		k := 1 + (i*(maxRank-1)+(n-1)/2)/(n-1)
		if len(ranks) > 0 && ranks[len(ranks)-1] == k {
			continue
		}
		ranks = append(ranks, k)
	}
	return ranks
}

func load(ctx context.Context, src, cacheDir string) (image.Image, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return img, nil
	}

	client := &httpcache.Client{
		Client:  http.DefaultClient,
		Cache:   httpcache.NewStorageCache(cacheDir),
		Handler: httpcache.NewDefaultHandler(),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", src, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
