// Package pdftext converts PDF documents into per-page layout text with
// poppler's pdftotext.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

const pageBreak = "\f"

// Runner executes an external command. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *zap.Logger
}

// Run executes name with args and captures both output streams.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	fields := []zap.Field{
		zap.String("cmd", name),
		zap.String("args", strings.Join(args, " ")),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		logger.Error("exec failed", append(fields, zap.Error(err), zap.String("stderr", truncate(errb.String(), 8<<10)))...)
	} else {
		logger.Debug("exec ok", append(fields, zap.Int("stdout_bytes", out.Len()))...)
	}
	return out.Bytes(), errb.Bytes(), err
}

// Converter turns PDF files into page texts.
type Converter struct {
	binary  string
	timeout time.Duration
	runner  Runner
	logger  *zap.Logger
}

// Option customises a Converter.
type Option func(*Converter)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(c *Converter) { c.runner = r }
}

// WithLogger sets the converter logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConverter builds a converter for the given pdftotext binary.
func NewConverter(binary string, timeout time.Duration, opts ...Option) *Converter {
	if binary == "" {
		binary = "pdftotext"
	}
	c := &Converter{binary: binary, timeout: timeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = ExecRunner{Logger: c.logger}
	}
	return c
}

// ConvertFile converts the PDF at path and returns one text per page.
func (c *Converter) ConvertFile(ctx context.Context, path string) ([]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out, errb, err := c.runner.Run(ctx, c.binary, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		msg := strings.TrimSpace(string(errb))
		if msg == "" {
			msg = err.Error()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrConversion.Code, appErrors.ErrConversion.Status, fmt.Sprintf("pdftotext: %s", msg))
	}
	pages := SplitPages(string(out))
	c.logger.Debug("pdf converted", zap.String("path", path), zap.Int("pages", len(pages)))
	return pages, nil
}

// Convert writes data to a temporary file and converts it.
func (c *Converter) Convert(ctx context.Context, data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "ipu-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp pdf: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp pdf: %w", err)
	}
	return c.ConvertFile(ctx, tmp.Name())
}

// SplitPages splits pdftotext output on form feeds. The empty tail after the
// final form feed is dropped.
func SplitPages(text string) []string {
	if text == "" {
		return nil
	}
	pages := strings.Split(text, pageBreak)
	if strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
