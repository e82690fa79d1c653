package domain

import (
	"fmt"
	"strings"
)

// Column positions within the A:I read range.
const (
	ColFirstName = iota
	ColLastName
	ColEmail
	ColJobTitle
	ColCompany
	ColProfileURL
	ColIndustry
	ColCompanySize
	ColStatus

	NumColumns
)

const (
	// StatusSent is the only status value the sync acts on.
	StatusSent = "Sent"

	// MinCells is the fewest cells a row needs before it is parsed at all.
	MinCells = 3

	// HeaderRows is how many rows sit above the data in the sheet.
	HeaderRows = 1
)

type SkipReason string

const (
	SkipNone            SkipReason = ""
	SkipMissingEmail    SkipReason = "missing_email"
	SkipMissingCompany  SkipReason = "missing_company"
	SkipMissingJobTitle SkipReason = "missing_job_title"
	SkipAlreadySent     SkipReason = "already_sent"
)

type Candidate struct {
	Row int // 1-based sheet row

	FirstName   string
	LastName    string
	Email       string
	JobTitle    string
	Company     string
	ProfileURL  string
	Industry    string
	CompanySize string
	Status      string
}

// binding maps each column to the field it fills.
var binding = [NumColumns]func(c *Candidate) *string{
	ColFirstName:   func(c *Candidate) *string { return &c.FirstName },
	ColLastName:    func(c *Candidate) *string { return &c.LastName },
	ColEmail:       func(c *Candidate) *string { return &c.Email },
	ColJobTitle:    func(c *Candidate) *string { return &c.JobTitle },
	ColCompany:     func(c *Candidate) *string { return &c.Company },
	ColProfileURL:  func(c *Candidate) *string { return &c.ProfileURL },
	ColIndustry:    func(c *Candidate) *string { return &c.Industry },
	ColCompanySize: func(c *Candidate) *string { return &c.CompanySize },
	ColStatus:      func(c *Candidate) *string { return &c.Status },
}

func init() {
	if err := checkBinding(); err != nil {
		panic(err)
	}
}

func checkBinding() error {
	var probe Candidate
	seen := map[*string]int{}
	for col, f := range binding {
		if f == nil {
			return fmt.Errorf("domain: column %d has no field", col)
		}
		p := f(&probe)
		if prev, dup := seen[p]; dup {
			return fmt.Errorf("domain: columns %d and %d bind the same field", prev, col)
		}
		seen[p] = col
	}
	if ColStatus != NumColumns-1 {
		return fmt.Errorf("domain: status must be the last column, got %d of %d", ColStatus, NumColumns)
	}
	return nil
}

// ParseRow builds a Candidate from the cells of the index-th data row.
// ok is false for rows too short to carry a contact.
func ParseRow(index int, cells []any) (c Candidate, ok bool) {
	if len(cells) < MinCells {
		return Candidate{}, false
	}
	c.Row = RowNumber(index)
	for col, f := range binding {
		*f(&c) = cell(cells, col)
	}
	return c, true
}

// RowNumber converts a 0-based data index into the 1-based sheet row.
func RowNumber(index int) int {
	return index + HeaderRows + 1
}

func cell(cells []any, i int) string {
	if i >= len(cells) || cells[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(cells[i]))
}

func (c Candidate) Skip() SkipReason {
	switch {
	case c.Email == "":
		return SkipMissingEmail
	case c.Company == "":
		return SkipMissingCompany
	case c.JobTitle == "":
		return SkipMissingJobTitle
	case c.Status == StatusSent:
		return SkipAlreadySent
	}
	return SkipNone
}

func (c Candidate) Eligible() bool { return c.Skip() == SkipNone }

func (c Candidate) Contact() Contact {
	return Contact{
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		JobTitle:    c.JobTitle,
		Company:     c.Company,
		LinkedInURL: c.ProfileURL,
		Industry:    c.Industry,
		CompanySize: c.CompanySize,
	}
}
