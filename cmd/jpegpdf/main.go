// Command jpegpdf shrinks a scanned PDF by storing the image of its first
// page as JPEG.
//
//	jpegpdf [-o jpeg.pdf] [-q quality] source
package main

import (
	"context"
	"flag"
	"fmt"
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
		fmt.Fprintf(os.Stderr, "jpegpdf: %v\n", err)
		os.Exit(1)
	}

	output := flag.String("o", pdf.ReencodeOutputName, "output file")
	quality := flag.Int("q", cfg.Scan.JPEGQuality, "JPEG quality")
	pageSize := flag.String("page", cfg.Scan.PageSize, "page size: letter, legal or a4")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: jpegpdf [flags] source\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	source := flag.Arg(0)

	lopts := logger.OptionsFrom("jpegpdf", cfg)
	lopts.Stderr = true
	if err := logger.Init(lopts); err != nil {
		fmt.Fprintf(os.Stderr, "jpegpdf: %v\n", err)
		os.Exit(1)
	}

	opts := pdf.ReencodeOptions{Quality: *quality}
	if opts.Page, err = pdf.LookupPageSize(*pageSize); err == nil {
		err = run(context.Background(), cfg, source, *output, opts)
	}
	if err != nil {
		log.Error().Err(err).Str("source", source).Msg("jpegpdf failed")
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(ctx context.Context, cfg config.Config, source, output string, opts pdf.ReencodeOptions) error {
	st, err := storage.Open(ctx, cfg.Storage, source, output)
	if err != nil {
		return err
	}

	src, err := st.Get(ctx, source)
	if err != nil {
		return err
	}
	out, err := pdf.ReencodeJPEG(src, opts)
	if err != nil {
		return err
	}
	if err := st.Put(ctx, output, out); err != nil {
		return err
	}
	log.Info().Str("output", output).Int("before", len(src)).Int("after", len(out)).Msg("Re-encoded as JPEG")
	return nil
}
