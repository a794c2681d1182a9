package domain

type Salary struct {
	From     *int   `json:"from,omitempty"`
	To       *int   `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
	Gross    bool   `json:"gross"`
}

type Snippet struct {
	Requirement    string `json:"requirement,omitempty"`
	Responsibility string `json:"responsibility,omitempty"`
}

// Posting is a single vacancy as the job board reports it. Responses is nil
// when the board did not report a popularity counter.
type Posting struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Employer        string  `json:"employer"`
	EmployerURL     string  `json:"employerUrl,omitempty"`
	LogoURL         string  `json:"logoUrl,omitempty"`
	URL             string  `json:"url"`
	Salary          *Salary `json:"salary,omitempty"`
	Location        string  `json:"location"`
	Remote          bool    `json:"remote"`
	HasNegotiations bool    `json:"hasNegotiations"`
	Responses       *int    `json:"responses,omitempty"`
	Snippet         Snippet `json:"snippet"`
}

// Candidate is the slice of a posting the relevance filter is allowed to see.
type Candidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (p Posting) Candidate() Candidate {
	return Candidate{ID: p.ID, Title: p.Title}
}

// SearchPage is one partition's answer to a vacancy search.
type SearchPage struct {
	Postings   []Posting
	TotalPages int
}

type PipelineResult struct {
	Postings   []Posting `json:"postings"`
	TotalPages int       `json:"totalPages"`
}
