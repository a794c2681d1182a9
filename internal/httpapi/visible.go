package httpapi

import (
	"slices"
	"sync"

	"autoapply-engine/internal/domain"
)

// VisibleSet is the result of the last manual search, minus postings the
// user has since applied to.
type VisibleSet struct {
	mu         sync.Mutex
	query      string
	page       int
	totalPages int
	postings   []domain.Posting
}

type VisibleView struct {
	Query      string           `json:"query"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	Postings   []domain.Posting `json:"postings"`
}

func NewVisibleSet() *VisibleSet { return &VisibleSet{} }

func (v *VisibleSet) Replace(query string, page int, res domain.PipelineResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = query
	v.page = page
	v.totalPages = res.TotalPages
	v.postings = slices.Clone(res.Postings)
}

func (v *VisibleSet) View() VisibleView {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := VisibleView{Query: v.query, Page: v.page, TotalPages: v.totalPages, Postings: slices.Clone(v.postings)}
	if out.Postings == nil {
		out.Postings = []domain.Posting{}
	}
	return out
}

func (v *VisibleSet) Get(id string) (domain.Posting, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range v.postings {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Posting{}, false
}

func (v *VisibleSet) Remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := len(v.postings)
	v.postings = slices.DeleteFunc(v.postings, func(p domain.Posting) bool { return p.ID == id })
	return len(v.postings) != n
}
