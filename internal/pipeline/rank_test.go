package pipeline

import (
	"testing"

	"autoapply-engine/internal/domain"

	"github.com/stretchr/testify/assert"
)

func ids(ps []domain.Posting) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestMergeFirstSeen(t *testing.T) {
	loc := []domain.Posting{posting("1", nil), posting("2", nil), posting("1", nil)}
	remote := []domain.Posting{posting("3", nil), posting("2", intp(9))}

	got := Merge(loc, remote)
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
	// the location copy wins
	assert.Nil(t, got[1].Responses)
	assert.Empty(t, Merge(nil, nil))
}

func TestRankUnknownLastAndStable(t *testing.T) {
	ps := []domain.Posting{
		posting("u1", nil),
		posting("five", intp(5)),
		posting("zero", intp(0)),
		posting("u2", nil),
		posting("five-b", intp(5)),
	}
	Rank(ps)
	assert.Equal(t, []string{"zero", "five", "five-b", "u1", "u2"}, ids(ps))
}
