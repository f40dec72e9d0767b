// Command promo-prewarm builds the promo code bloom prefilter.
//
// It streams the storefront's code-dump files (plain text or gzip, one code
// per line), normalizes and length-filters the codes, and writes a bloom
// filter binary that cart-server loads at startup. A bloom filter has no
// false negatives, so the validator can reject definitely-unknown codes
// locally without calling the promo service.
package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/freshmart/cart-engine/internal/domain/promo"
)

const (
	progressEvery = 10_000_000
	minCodeLen    = 3
	maxCodeLen    = 32
)

func main() {
	var (
		out      string
		capacity uint64
		fpr      float64
	)

	flag.StringVar(&out, "out", "promo-prefilter.bin", "output path for the bloom filter binary")
	flag.Uint64Var(&capacity, "capacity", 10_000_000, "expected number of distinct codes")
	flag.Float64Var(&fpr, "fpr", 0.001, "target false positive rate")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("usage: promo-prewarm [flags] <codes-file> [codes-file...]")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, files, out, capacity, fpr); err != nil {
		slog.Error("promo prewarm failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo prewarm completed successfully", slog.String("out", out))
}

func run(ctx context.Context, files []string, out string, capacity uint64, fpr float64) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	filter := bloom.NewWithEstimates(uint(capacity), fpr)

	// One goroutine per input file; the filter itself is guarded by a
	// mutex since bloom filters are not safe for concurrent writes.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(ingestFile(gctx, i, f, filter, &mu))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tmp := out + ".tmp"
	w, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	if _, err := filter.WriteTo(w); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "write filter")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "close filter file")
	}
	if err := os.Rename(tmp, out); err != nil {
		return errors.Wrapf(err, "rename %s", tmp)
	}

	return nil
}

func ingestFile(ctx context.Context, idx int, path string, filter *bloom.BloomFilter, mu *sync.Mutex) func() error {
	return func() error {
		var count uint64

		err := streamFile(ctx, path, func(line string) {
			code := promo.Normalize(line)
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}

			mu.Lock()
			filter.AddString(code)
			mu.Unlock()

			count++
			if count%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", count),
				)
			}
		})
		if err != nil {
			return errors.Wrapf(err, "ingest file %d", idx+1)
		}

		slog.Info("ingest complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
		)
		return nil
	}
}

// streamFile calls fn for each line of path, transparently decompressing
// .gz files.
func streamFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
