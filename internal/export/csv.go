// Package export flattens filtered case rows into a tabular CSV document.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/safecase-systems/safecase/internal/models"
)

// Placeholder written to the "Assigned To" column when a case has no assignee.
const Unassigned = "Unassigned"

// dateFormat is the display-only projection for the date columns. The
// time component is dropped; this is not a round-trippable serialization.
const dateFormat = "2006-01-02"

// Columns is the fixed header row of the case export.
var Columns = []string{
	"Case ID",
	"Incident",
	"Description",
	"Survivor",
	"Assigned To",
	"Status",
	"Created Date",
	"Updated Date",
}

// Row flattens one fully resolved case into export column order. The
// caller guarantees Incident, Incident.Survivor and Status are resolved.
func Row(c *models.Case) []string {
	assignee := Unassigned
	if c.Assignee != nil {
		assignee = c.Assignee.Name
	}

	return []string{
		strconv.FormatInt(c.ID, 10),
		c.Incident.Title,
		c.Incident.Description,
		c.Incident.Survivor.Name,
		assignee,
		c.Status.DisplayName(),
		c.CreatedAt.Format(dateFormat),
		c.UpdatedAt.Format(dateFormat),
	}
}

// WriteCSV writes the header row followed by one row per case.
func WriteCSV(w io.Writer, cases []*models.Case) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, c := range cases {
		if err := cw.Write(Row(c)); err != nil {
			return fmt.Errorf("write case %d: %w", c.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
