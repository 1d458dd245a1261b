package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/extract"
	"github.com/noah-isme/ipu-result-api/internal/models"
	"github.com/noah-isme/ipu-result-api/internal/service"
	"github.com/noah-isme/ipu-result-api/internal/walker"
	"github.com/noah-isme/ipu-result-api/pkg/export"
	"github.com/noah-isme/ipu-result-api/pkg/pdftext"
)

type pageSource interface {
	ConvertFile(ctx context.Context, path string) ([]string, error)
}

type options struct {
	semester int
	format   string
}

func main() {
	var (
		binary  string
		timeout time.Duration
		out     string
		opts    options
	)

	flag.StringVar(&binary, "pdftotext", "pdftotext", "pdftotext binary")
	flag.DurationVar(&timeout, "timeout", time.Minute, "conversion timeout per PDF")
	flag.IntVar(&opts.semester, "semester", 0, "tabulate one semester instead of printing students")
	flag.StringVar(&opts.format, "format", "csv", "table format with -semester: csv, pdf or xlsx")
	flag.StringVar(&out, "out", "", "output file (default stdout)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.pdf|file.txt ...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	pages, err := loadPages(context.Background(), pdftext.NewConverter(binary, timeout), flag.Args())
	if err != nil {
		log.Fatalf("failed to read documents: %v", err)
	}
	doc := service.ParsePages(pages, walker.DefaultTemplate())
	printSummary(os.Stderr, doc)

	w := io.Writer(os.Stdout)
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			log.Fatalf("failed to create %s: %v", out, err)
		}
		defer f.Close()
		w = f
	}
	if err := dump(w, doc, opts); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
}

func loadPages(ctx context.Context, src pageSource, paths []string) ([]string, error) {
	var pages []string
	for _, path := range paths {
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			p, err := src.ConvertFile(ctx, path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			pages = append(pages, p...)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pdftext.SplitPages(string(data))...)
	}
	return pages, nil
}

func dump(w io.Writer, doc *service.ParsedDocument, opts options) error {
	if opts.semester > 0 {
		format, err := export.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		var results []*models.Result
		for _, s := range doc.Roster.Students() {
			if res, ok := s.ResultBySemester(opts.semester); ok {
				results = append(results, res)
			}
		}
		if len(results) == 0 {
			return fmt.Errorf("no results for semester %d", opts.semester)
		}
		data, err := export.Render(format, service.SemesterDataset(opts.semester, results))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	reports := make([]*dto.StudentReport, 0, doc.Roster.Len())
	for _, s := range doc.Roster.Students() {
		reports = append(reports, dto.NewStudentReport(s))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func printSummary(w io.Writer, doc *service.ParsedDocument) {
	fmt.Fprintln(w, "Extraction Summary")
	fmt.Fprintln(w, "==================")
	fmt.Fprintf(w, "  Pages: %d scheme, %d result, %d other\n",
		doc.Pages[extract.PageSubjects], doc.Pages[extract.PageResults], doc.Pages[extract.PageUnknown])
	fmt.Fprintf(w, "  Subjects: %d | Students: %d | Marks: %d\n", len(doc.Subjects), doc.Roster.Len(), doc.Stats.Marks)
	if doc.Stats.SkewedBlocks > 0 || doc.Unfiled > 0 {
		fmt.Fprintf(w, "  Skewed blocks: %d (%d entries dropped) | Unfiled results: %d\n",
			doc.Stats.SkewedBlocks, doc.Stats.Dropped, doc.Unfiled)
	}
}
