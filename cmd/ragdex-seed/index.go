package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/urfave/cli/v2"
)

// documentIndexer is the part of the SDK document service the seeder needs.
type documentIndexer interface {
	Index(ctx context.Context, text string) (string, error)
	IndexBatch(ctx context.Context, texts []string) ([]string, error)
}

// indexOptions controls how files become documents.
type indexOptions struct {
	lines     bool
	workers   int
	batchSize int
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("index: at least one PATH is required", 1)
	}

	files, err := collectFiles(c.Args().Slice(), c.StringSlice("ext"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Warn("no matching files", "paths", c.Args().Slice())
		return nil
	}

	ctx := c.Context
	client, err := newClient(ctx, c)
	if err != nil {
		return err
	}
	defer client.Close()

	return indexFiles(ctx, client.Documents(), files, indexOptions{
		lines:     c.Bool("lines"),
		workers:   c.Int("workers"),
		batchSize: c.Int("batch-size"),
	}, c.App.Writer)
}

// collectFiles expands paths into regular files, recursing into directories.
// Only files whose extension is in exts are kept; an explicit file argument
// is always kept. The result is sorted and free of duplicates.
func collectFiles(paths, exts []string) ([]string, error) {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}

	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if info.Mode().IsRegular() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(p))] {
				return nil
			}
			add(p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// indexFiles indexes files on an ants pool and writes "<id>\t<source>" lines
// to out. All files are attempted; the joined errors are returned.
func indexFiles(ctx context.Context, idx documentIndexer, files []string, opts indexOptions, out io.Writer) error {
	if opts.workers <= 0 {
		opts.workers = 1
	}
	if opts.batchSize <= 0 {
		opts.batchSize = 100
	}

	pool, err := ants.NewPool(opts.workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		errs  []error
		count int
	)
	emit := func(lines []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		count += len(lines)
	}
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	}

	for _, path := range files {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			lines, err := indexFile(ctx, idx, path, opts)
			if err != nil {
				slog.Error("index file failed", "path", path, "error", err)
				fail(fmt.Errorf("%s: %w", path, err))
				return
			}
			emit(lines)
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("%s: submit: %w", path, submitErr))
		}
	}
	wg.Wait()

	slog.Info("indexing finished", "files", len(files), "documents", count, "failed", len(errs))
	return errors.Join(errs...)
}

// indexFile indexes one file and returns its output lines.
func indexFile(ctx context.Context, idx documentIndexer, path string, opts indexOptions) ([]string, error) {
	if !opts.lines {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		id, err := idx.Index(ctx, string(data))
		if err != nil {
			return nil, err
		}
		return []string{id + "\t" + path}, nil
	}

	docs, err := readLines(path)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(docs))
	for start := 0; start < len(docs); start += opts.batchSize {
		end := min(start+opts.batchSize, len(docs))
		chunk := docs[start:end]

		texts := make([]string, len(chunk))
		for i, d := range chunk {
			texts[i] = d.text
		}
		ids, err := idx.IndexBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		for i, id := range ids {
			out = append(out, id+"\t"+chunk[i].source)
		}
	}
	return out, nil
}

// lineDoc is one non-empty line and where it came from.
type lineDoc struct {
	text   string
	source string // path:line
}

func readLines(path string) ([]lineDoc, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	var docs []lineDoc
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		docs = append(docs, lineDoc{text: line, source: fmt.Sprintf("%s:%d", path, n)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return docs, nil
}
