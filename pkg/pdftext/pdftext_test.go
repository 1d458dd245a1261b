package pdftext

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
)

type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error

	name    string
	args    []string
	content []byte
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	if len(args) >= 2 {
		f.content, _ = os.ReadFile(args[len(args)-2])
	}
	return f.stdout, f.stderr, f.err
}

func TestSplitPages(t *testing.T) {
	assert.Nil(t, SplitPages(""))
	assert.Equal(t, []string{"one"}, SplitPages("one"))
	assert.Equal(t, []string{"one\n", "two\n"}, SplitPages("one\n\ftwo\n\f"))
	assert.Equal(t, []string{"one", "", "three"}, SplitPages("one\f\fthree"))
}

func TestConvertWritesTempFileAndSplits(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("page one\fpage two\f")}
	conv := NewConverter("", 0, WithRunner(runner))

	pages, err := conv.Convert(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, []string{"page one", "page two"}, pages)
	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}, runner.args[:5])
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
	assert.Equal(t, []byte("%PDF-1.4"), runner.content)

	_, statErr := os.Stat(runner.args[len(runner.args)-2])
	assert.True(t, os.IsNotExist(statErr), "temp file removed")
}

func TestConvertFileFailure(t *testing.T) {
	runner := &fakeRunner{stderr: []byte("Syntax Error: Couldn't find trailer dictionary\n"), err: errors.New("exit status 1")}
	conv := NewConverter("/usr/bin/pdftotext", 0, WithRunner(runner))

	_, err := conv.ConvertFile(context.Background(), "broken.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConversion)
	assert.Contains(t, err.Error(), "trailer dictionary")
	assert.Equal(t, "/usr/bin/pdftotext", runner.name)
}
