package calce2e

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tidwall/sjson"
)

// Report of a run, the results are in the order of the scenarios
type Report struct {
	Results []Result
}

// Counts of the results
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch {
		case res.Skipped:
			skipped++
		case res.Passed:
			passed++
		default:
			failed++
		}
	}
	return
}

// Passed returns true if every scenario ran and passed
func (r *Report) Passed() bool {
	_, failed, skipped := r.Counts()
	return failed == 0 && skipped == 0
}

// Failed results
func (r *Report) Failed() []Result {
	list := []Result{}
	for _, res := range r.Results {
		if !res.Passed && !res.Skipped {
			list = append(list, res)
		}
	}
	return list
}

// Summary such as "14 passed, 1 failed"
func (r *Report) Summary() string {
	passed, failed, skipped := r.Counts()

	s := fmt.Sprintf("%d passed, %d failed", passed, failed)
	if skipped > 0 {
		s += fmt.Sprintf(", %d skipped", skipped)
	}
	return s
}

// WriteTo writes a line for each result and the summary
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	b := &strings.Builder{}
	for _, res := range r.Results {
		b.WriteString(resultLine(res))
		b.WriteByte('\n')
	}
	b.WriteString(r.Summary())
	b.WriteByte('\n')

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// JSON of the report
func (r *Report) JSON() (string, error) {
	passed, failed, skipped := r.Counts()

	doc := `{"results":[]}`
	var err error

	set := func(path string, v interface{}) {
		if err != nil {
			return
		}
		doc, err = sjson.Set(doc, path, v)
	}

	set("passed", r.Passed())
	set("summary.passed", passed)
	set("summary.failed", failed)
	set("summary.skipped", skipped)

	for _, res := range r.Results {
		item := map[string]interface{}{
			"name":       res.Name,
			"group":      res.Group,
			"sessionId":  res.SessionID,
			"passed":     res.Passed,
			"skipped":    res.Skipped,
			"durationMs": res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			item["error"] = res.Err.Error()
		}
		set("results.-1", item)
	}

	return doc, err
}

func resultLine(res Result) string {
	switch {
	case res.Skipped:
		return fmt.Sprintf("SKIP %s/%s", res.Group, res.Name)
	case res.Passed:
		return fmt.Sprintf("PASS %s/%s (%s)", res.Group, res.Name, res.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("FAIL %s/%s (%s): %v", res.Group, res.Name, res.Duration.Round(time.Millisecond), res.Err)
}
