package walker

import (
	"regexp"

	"github.com/noah-isme/ipu-result-api/internal/extract"
	"github.com/noah-isme/ipu-result-api/internal/models"
	"github.com/noah-isme/ipu-result-api/pkg/textutil"
)

var reRollNum = regexp.MustCompile(`\b\d{11}\b`)

// WalkStats counts what a result walk saw.
type WalkStats struct {
	Blocks       int `json:"blocks"`
	Marks        int `json:"marks"`
	SkewedBlocks int `json:"skewed_blocks"`
	Dropped      int `json:"dropped"`
}

type pendingMark struct {
	paperID string
	marks   *models.Marks
}

// ResultWalker steps through the student blocks of a result tabulation page.
// Each call to Next attaches one more paper's marks to the current block's
// Result, so the same *models.Result is seen once per paper and grows as the
// walk goes on.
//
// Within a block the paper ids, mark pairs and total/grade pairs are paired
// by position. When the three lists differ in length the shortest wins and
// the trailing entries of the longer lists are dropped; such blocks are
// counted in Stats().SkewedBlocks.
type ResultWalker struct {
	tpl      Template
	lines    lines
	semester extract.Field
	batch    extract.Field

	cursor  int
	current *models.Result
	mark    *models.Marks
	pending []pendingMark
	stats   WalkStats
}

// Results starts a walk over a result tabulation page.
func (t Template) Results(text string) *ResultWalker {
	l := lines(textutil.Lines(text))
	header := l.at(t.ResultHeaderLine)
	return &ResultWalker{
		tpl:      t,
		lines:    l,
		semester: extract.Semester(header),
		batch:    extract.Batch(header),
	}
}

// Semester is the semester read from the page header.
func (w *ResultWalker) Semester() extract.Field {
	return w.semester
}

// Batch is the batch read from the page header.
func (w *ResultWalker) Batch() extract.Field {
	return w.batch
}

// Next attaches the next paper's marks and reports whether there was one.
func (w *ResultWalker) Next() bool {
	for len(w.pending) == 0 {
		if !w.nextBlock() {
			w.mark = nil
			return false
		}
	}
	p := w.pending[0]
	w.pending = w.pending[1:]
	if err := w.current.AddMark(p.paperID, p.marks); err != nil {
		// paper ids come from a five-digit pattern, so this only trips on a regression.
		w.stats.Dropped++
		return w.Next()
	}
	w.mark = p.marks
	w.stats.Marks++
	return true
}

// Result is the result of the current block, including every mark attached so far.
func (w *ResultWalker) Result() *models.Result {
	return w.current
}

// Marks is the mark attached by the last call to Next.
func (w *ResultWalker) Marks() *models.Marks {
	return w.mark
}

// Stats reports counters for the walk so far.
func (w *ResultWalker) Stats() WalkStats {
	return w.stats
}

// nextBlock scans forward from the cursor for a roll number line and queues
// the block's marks. The backing lines are never modified; the cursor moves
// past the last line the block consumed.
func (w *ResultWalker) nextBlock() bool {
	for i := w.cursor; i < len(w.lines); i++ {
		roll := reRollNum.FindString(w.lines[i])
		if roll == "" {
			continue
		}
		w.cursor = i + w.tpl.blockSpan() + 1
		w.stats.Blocks++
		w.current = models.NewResult(
			roll,
			w.semester.Number(),
			textutil.CollapseSpaces(w.lines.at(i+w.tpl.NameOffset)),
			w.batch.Number(),
		)
		w.pending = w.pair(w.lines[i], w.lines.at(i+w.tpl.MarksOffset), w.lines.at(i+w.tpl.TotalsOffset))
		return true
	}
	w.cursor = len(w.lines)
	return false
}

// pair zips paper refs, mark pairs and totals by column. Columns start at the
// first valid paper ref, which skips the serial and roll number. A malformed
// ref after that still holds its column; its triple is dropped.
func (w *ResultWalker) pair(idLine, marksLine, totalsLine string) []pendingMark {
	refs := extract.PaperRefs(idLine)
	first := len(refs)
	for i, ref := range refs {
		if ref.ID.Valid {
			first = i
			break
		}
	}
	refs = refs[first:]
	pairs := extract.MarkPairs(marksLine)
	totals := extract.TotalGrades(totalsLine)

	n := min(len(refs), len(pairs), len(totals))
	if len(refs) != n || len(pairs) != n || len(totals) != n {
		w.stats.SkewedBlocks++
		w.stats.Dropped += len(refs) + len(pairs) + len(totals) - 3*n
	}

	out := make([]pendingMark, 0, n)
	for k := 0; k < n; k++ {
		if !refs[k].ID.Valid {
			w.stats.Dropped++
			continue
		}
		out = append(out, pendingMark{
			paperID: refs[k].ID.Value,
			marks: &models.Marks{
				Minor:       textutil.Number(pairs[k].Minor),
				Major:       textutil.Number(pairs[k].Major),
				Total:       textutil.Number(totals[k].Total),
				Grade:       totals[k].Grade.Ptr(),
				PaperCredit: refs[k].Credit.Number(),
			},
		})
	}
	return out
}

// CollectResults walks a result page and returns each distinct result once,
// in page order, with all of its marks attached.
func (t Template) CollectResults(text string) ([]*models.Result, WalkStats) {
	var out []*models.Result
	w := t.Results(text)
	var last *models.Result
	for w.Next() {
		if res := w.Result(); res != last {
			out = append(out, res)
			last = res
		}
	}
	return out, w.Stats()
}
