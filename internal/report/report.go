// Package report renders read-only projections of exam results.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
)

var header = []string{"Username", "Total Score", "Status", "Started At", "Submitted At"}

const timeLayout = "2006-01-02 15:04:05"

// Filename is the download name of an exam's results.
func Filename(examID int64) string { return fmt.Sprintf("exam_%d_results.csv", examID) }

// WriteCSV writes one row per attempt, latest submission first and attempts
// still in progress last.
func WriteCSV(w io.Writer, attempts []attempt.Attempt) error {
	rows := make([]attempt.Attempt, len(attempts))
	copy(rows, attempts)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].SubmittedAt, rows[j].SubmittedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range rows {
		rec := []string{
			a.Username,
			strconv.FormatFloat(a.TotalScore, 'f', -1, 64),
			string(a.Status),
			a.StartedAt.UTC().Format(timeLayout),
			formatTime(a.SubmittedAt),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
