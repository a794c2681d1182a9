package hh

import (
	"strings"

	"autoapply-engine/internal/domain"
	"autoapply-engine/internal/util"
)

type vacancyList struct {
	Items   []vacancy `json:"items"`
	Found   int       `json:"found"`
	Pages   int       `json:"pages"`
	PerPage int       `json:"per_page"`
	Page    int       `json:"page"`
}

type vacancy struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Salary *struct {
		From     *int   `json:"from"`
		To       *int   `json:"to"`
		Currency string `json:"currency"`
		Gross    bool   `json:"gross"`
	} `json:"salary"`
	Employer struct {
		Name     string            `json:"name"`
		URL      string            `json:"alternate_url"`
		LogoURLs map[string]string `json:"logo_urls"`
	} `json:"employer"`
	AlternateURL string `json:"alternate_url"`
	Snippet      *struct {
		Requirement    *string `json:"requirement"`
		Responsibility *string `json:"responsibility"`
	} `json:"snippet"`
	Description string `json:"description"`
	Area        struct {
		Name string `json:"name"`
	} `json:"area"`
	Schedule *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"schedule"`
	HasNegotiations bool `json:"has_negotiations"`
	Counters        *struct {
		Responses *int `json:"responses"`
	} `json:"counters"`
}

type resumeList struct {
	Items []Resume `json:"items"`
}

type Resume struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (v vacancy) toPosting() domain.Posting {
	p := domain.Posting{
		ID:              v.ID,
		Title:           strings.TrimSpace(v.Name),
		Employer:        strings.TrimSpace(v.Employer.Name),
		EmployerURL:     v.Employer.URL,
		URL:             v.AlternateURL,
		Location:        v.Area.Name,
		HasNegotiations: v.HasNegotiations,
	}
	if v.Employer.LogoURLs != nil {
		p.LogoURL = v.Employer.LogoURLs["90"]
	}
	if v.Salary != nil {
		p.Salary = &domain.Salary{
			From:     v.Salary.From,
			To:       v.Salary.To,
			Currency: v.Salary.Currency,
			Gross:    v.Salary.Gross,
		}
	}
	scheduleID := ""
	if v.Schedule != nil {
		scheduleID = v.Schedule.ID
	}
	p.Remote = util.IsRemote(scheduleID, v.Area.Name)

	if v.Snippet != nil {
		if v.Snippet.Requirement != nil {
			p.Snippet.Requirement = util.HTMLToText(*v.Snippet.Requirement)
		}
		if v.Snippet.Responsibility != nil {
			p.Snippet.Responsibility = util.HTMLToText(*v.Snippet.Responsibility)
		}
	}
	// detail responses carry a full description instead of a snippet
	if p.Snippet.Requirement == "" && v.Description != "" {
		p.Snippet.Requirement = truncate(util.HTMLToText(v.Description), 600)
	}
	if v.Counters != nil && v.Counters.Responses != nil {
		n := *v.Counters.Responses
		p.Responses = &n
	}
	return p
}

func toPostings(vs []vacancy) []domain.Posting {
	out := make([]domain.Posting, 0, len(vs))
	for _, v := range vs {
		if v.ID == "" {
			continue
		}
		out = append(out, v.toPosting())
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
