package poppler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/pdfnarrate/internal/procexec"
)

const DefaultWorkers = 4

// Adapter rasterizes PDFs with pdftoppm, one process per page, bounded by
// workers.
type Adapter struct {
	pdftoppm string
	pdfinfo  string
	workers  int
}

func New(pdftoppmPath, pdfinfoPath string, workers int) *Adapter {
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	if pdfinfoPath == "" {
		pdfinfoPath = "pdfinfo"
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Adapter{pdftoppm: pdftoppmPath, pdfinfo: pdfinfoPath, workers: workers}
}

// PageFile is the image name for a 1-based page index.
func PageFile(index int) string {
	return fmt.Sprintf("page_%03d.png", index)
}

func (a *Adapter) PageCount(ctx context.Context, pdfPath string) (int, error) {
	out, err := procexec.Run(ctx, "read pdf info", a.pdfinfo, pdfPath)
	if err != nil {
		return 0, err
	}
	return parsePageCount(out)
}

func (a *Adapter) Render(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid dpi %d", dpi)
	}
	n, err := a.PageCount(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.New("pdf has no pages")
	}
	if err := removeStale(outDir); err != nil {
		return nil, err
	}

	paths := make([]string, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := 1; i <= n; i++ {
		g.Go(func() error {
			out := filepath.Join(outDir, PageFile(i))
			prefix := strings.TrimSuffix(out, filepath.Ext(out))
			page := strconv.Itoa(i)
			if _, err := procexec.Run(gctx, "render page "+page, a.pdftoppm,
				"-f", page,
				"-l", page,
				"-r", strconv.Itoa(dpi),
				"-png",
				"-singlefile",
				pdfPath,
				prefix,
			); err != nil {
				return err
			}
			if err := procexec.RequireArtifact(out); err != nil {
				return fmt.Errorf("render page %d: %w", i, err)
			}
			paths[i-1] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func parsePageCount(info []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(info))
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("parse page count %q: %w", val, err)
		}
		if n < 0 {
			return 0, fmt.Errorf("negative page count %d", n)
		}
		return n, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, errors.New("pdfinfo: page count not reported")
}

// removeStale deletes page images left by an earlier run so the directory
// only ever holds the current document's pages.
func removeStale(outDir string) error {
	matches, err := filepath.Glob(filepath.Join(outDir, "page_*.png"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale page image: %w", err)
		}
	}
	return nil
}
