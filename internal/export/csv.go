package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/baxromumarov/jobportals/internal/scraper"
)

// Header is the column order of exported job files.
var Header = []string{
	"title", "company", "location", "summary", "url", "portal",
	"salary", "job_level", "skills", "posted_date",
}

const skillSep = "; "

// FileName names an export taken at t.
func FileName(t time.Time) string {
	return "job_results_" + t.Format("20060102_150405") + ".csv"
}

func WriteJobs(w io.Writer, jobs []scraper.Job) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, j := range jobs {
		rec := []string{
			j.Title, j.Company, j.Location, j.Summary, j.URL, j.Portal,
			j.Salary, j.JobLevel, strings.Join(j.Skills, skillSep), j.PostedDate,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write job %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadJobs parses a file written by WriteJobs. Columns are matched by header
// name, so files with reordered or extra columns still load.
func ReadJobs(r io.Reader) ([]scraper.Job, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []scraper.Job{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(head))
	for i, h := range head {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["title"]; !ok {
		return nil, errors.New("read header: missing title column")
	}

	jobs := []scraper.Job{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		col := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		jobs = append(jobs, scraper.Job{
			Title:      col("title"),
			Company:    col("company"),
			Location:   col("location"),
			Summary:    col("summary"),
			URL:        col("url"),
			Portal:     col("portal"),
			Salary:     col("salary"),
			JobLevel:   col("job_level"),
			Skills:     splitSkills(col("skills")),
			PostedDate: col("posted_date"),
		})
	}
	return jobs, nil
}

func splitSkills(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	ch, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if ch != '\uFEFF' {
		_ = br.UnreadRune()
	}
	return br
}
