// Command pdfpick copies pages from one PDF onto the end of another.
//
//	pdfpick [-replace] sourcefile pages destinationfile
//
// pages is a comma separated list of pages and ranges of pages, such as
// "1,3-5". The destination is created when it does not exist.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"

	"minpdf/config"
	"minpdf/logger"
	"minpdf/pdf"
	"minpdf/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfpick: %v\n", err)
		os.Exit(1)
	}

	var opts pdf.PickOptions
	flag.BoolVar(&opts.Replace, "replace", false, "write only the picked pages, replacing the destination")
	optimize := flag.Bool("optimize", cfg.Scan.Optimize, "optimize the written PDF")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: pdfpick [flags] sourcefile pages destinationfile\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}
	source, pages, dest := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	lopts := logger.OptionsFrom("pdfpick", cfg)
	lopts.Stderr = true
	if err := logger.Init(lopts); err != nil {
		fmt.Fprintf(os.Stderr, "pdfpick: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, source, pages, dest, opts, *optimize); err != nil {
		log.Error().Err(err).Str("source", source).Str("pages", pages).Msg("pdfpick failed")
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(ctx context.Context, cfg config.Config, source, pages, dest string, opts pdf.PickOptions, optimize bool) error {
	st, err := storage.Open(ctx, cfg.Storage, source, dest)
	if err != nil {
		return err
	}

	src, err := st.Get(ctx, source)
	if err != nil {
		return err
	}
	var dst []byte
	if !opts.Replace {
		dst, err = st.Get(ctx, dest)
		if errors.Is(err, fs.ErrNotExist) {
			dst, err = nil, nil
		}
		if err != nil {
			return err
		}
	}

	out, err := pdf.PickPages(src, pages, dst, opts)
	if err != nil {
		return err
	}
	if optimize {
		if out, err = pdf.Resave(out); err != nil {
			return err
		}
	}
	if err := st.Put(ctx, dest, out); err != nil {
		return err
	}
	log.Info().Str("destination", dest).Bool("appended", dst != nil).Msg("Picked pages")
	return nil
}
