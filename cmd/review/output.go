package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"clausewise.app/review/common/id"
	"clausewise.app/review/internal/model"
	"clausewise.app/review/internal/service"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, r *service.SubmissionResult) {
	fmt.Fprintf(w, "submission %d (%s): %s\n\n",
		r.SubmissionID, id.Time(r.SubmissionID).Format(time.RFC3339), r.Analysis.Message())
	if !r.Analysis.Succeeded() {
		return
	}

	writeFindings(w, r.Analysis.Findings())

	switch r.Draft.Status {
	case service.StageSucceeded:
		fmt.Fprintf(w, "\n--- negotiation draft ---\n%s\n", strings.TrimSpace(r.Draft.Text))
	case service.StageFailed:
		fmt.Fprintf(w, "\ndraft failed: %s\n", r.Draft.Error)
	}

	switch r.Task.Status {
	case service.StageSucceeded:
		fmt.Fprintf(w, "\ntask created: %s %s (assignee lookup: %s)\n", r.Task.Task.ID, r.Task.Task.URL, r.Task.AssigneeLookup)
	case service.StageFailed:
		fmt.Fprintf(w, "\ntask failed: %s\n", r.Task.Error)
	}
}

func writeFindings(w io.Writer, findings []model.Finding) {
	for i, f := range findings {
		switch f := f.(type) {
		case model.RiskyClause:
			fmt.Fprintf(w, "%d. %s\n   risk:       %s\n   suggestion: %s\n", i+1, f.Clause(), f.Risk(), f.Suggestion())
		case model.NonContractNote:
			fmt.Fprintf(w, "%d. [note] %s\n   %s\n", i+1, f.Reason(), f.Summary())
		case model.UnparsedFragment:
			fmt.Fprintf(w, "%d. [unparsed: %s]\n   %s\n", i+1, f.ReasonCode(), f.RawText())
		}
	}
}
