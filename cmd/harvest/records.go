package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/harvest"
)

// Run executes the records command. Records are written to stdout as one
// JSON object per line, newest first.
func (c *RecordsCmd) Run(deps *Dependencies) error {
	filter := harvest.RecordFilter{
		Limit:  c.Limit,
		Offset: c.Offset,
	}
	if c.Model != "" {
		filter.Model = &c.Model
	}
	if c.Field != "" {
		filter.Field = &c.Field
	}

	recs, err := deps.Records.FindRecords(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if len(recs) == 0 {
		fmt.Fprintln(deps.Stderr, "No records found. Add a save step to a scrape pipeline to create some.")
		return nil
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetEscapeHTML(false)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
