// Command img2pdf turns a group of scanned images into true-size pages and
// chains them into one document.
//
//	img2pdf [-d dpi] [-r factor] [-o n.pdf] [-optimize] stem
//
// Every {stem}*.jpg becomes {name}.pdf next to it, then every {stem}*.pdf is
// chained into the output in numeric order: "Scan.pdf", "Scan (1).pdf", ...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"minpdf/config"
	"minpdf/logger"
	"minpdf/pdf"
	"minpdf/storage"
)

type options struct {
	stem     string
	output   string
	image    pdf.ImagePageOptions
	optimize bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "img2pdf: %v\n", err)
		os.Exit(1)
	}

	opts := options{image: pdf.DefaultImagePageOptions()}
	flag.IntVar(&opts.image.DPI, "d", cfg.Scan.DPI, "DPI (dots per inch) of the source images")
	flag.IntVar(&opts.image.Reduction, "r", cfg.Scan.Reduction, "integer factor to downsample images by")
	flag.IntVar(&opts.image.Quality, "q", cfg.Scan.JPEGQuality, "JPEG quality of the page images")
	pageSize := flag.String("page", cfg.Scan.PageSize, "page size: letter, legal or a4")
	flag.StringVar(&opts.output, "o", pdf.ChainOutputName, "chained output, relative to the stem's directory")
	flag.BoolVar(&opts.optimize, "optimize", cfg.Scan.Optimize, "optimize every written PDF")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: img2pdf [flags] stem\n\nIf your image is named \"Scan.jpg\" just put \"Scan\".\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.stem = flag.Arg(0)

	lopts := logger.OptionsFrom("img2pdf", cfg)
	lopts.Stderr = true
	if err := logger.Init(lopts); err != nil {
		fmt.Fprintf(os.Stderr, "img2pdf: %v\n", err)
		os.Exit(1)
	}

	if opts.image.Page, err = pdf.LookupPageSize(*pageSize); err == nil {
		err = run(context.Background(), cfg, opts)
	}
	if err != nil {
		log.Error().Err(err).Str("stem", opts.stem).Msg("img2pdf failed")
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(ctx context.Context, cfg config.Config, opts options) error {
	st, err := storage.Open(ctx, cfg.Storage, opts.stem, opts.output)
	if err != nil {
		return err
	}
	dir, stem := storage.Split(opts.stem)

	images, err := st.List(ctx, dir, stem, pdf.ImageExt)
	if err != nil {
		return err
	}
	for _, ref := range images {
		if err := convert(ctx, st, ref, opts); err != nil {
			return err
		}
	}

	pages, err := st.List(ctx, dir, stem, pdf.DocumentExt)
	if err != nil {
		return err
	}
	chained, err := pdf.ChainFiles(pages, stem, func(name string) ([]byte, error) {
		return st.Get(ctx, name)
	})
	if err != nil {
		return err
	}
	if opts.optimize {
		if chained, err = pdf.Resave(chained); err != nil {
			return err
		}
	}

	out := storage.Resolve(dir, opts.output)
	if err := st.Put(ctx, out, chained); err != nil {
		return err
	}
	log.Info().Str("output", out).Int("pages", len(pages)).Msg("Chained pages")
	return nil
}

// convert writes ref's page next to it, refusing to replace an existing one.
func convert(ctx context.Context, st storage.Store, ref string, opts options) error {
	out := strings.TrimSuffix(ref, pdf.ImageExt) + pdf.DocumentExt
	exists, err := st.Exists(ctx, out)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", pdf.ErrDestinationExists, out)
	}

	data, err := st.Get(ctx, ref)
	if err != nil {
		return err
	}
	page, err := pdf.ImagePage(data, opts.image)
	if err != nil {
		return fmt.Errorf("%s: %w", ref, err)
	}
	if opts.optimize {
		if page, err = pdf.Resave(page); err != nil {
			return err
		}
	}
	if err := st.Put(ctx, out, page); err != nil {
		return err
	}
	log.Info().Str("image", ref).Str("page", out).Msg("Converted image")
	return nil
}
