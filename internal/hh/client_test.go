package hh

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	apperrors "autoapply-engine/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, UserAgent: "test-agent", AreaID: "84", PerPage: 20, DetailWorkers: 4}, "tok", nil, zap.NewNop())
}

func TestSearchPartitions(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "/vacancies", r.URL.Path)
		q := r.URL.Query()
		mu.Lock()
		seen = append(seen, q.Encode())
		mu.Unlock()
		assert.Equal(t, "20", q.Get("per_page"))
		assert.Equal(t, "2", q.Get("page"))
		_, _ = w.Write([]byte(`{"items":[{"id":"1","name":" Go dev ","employer":{"name":"Acme"},
			"snippet":{"requirement":"<highlighttext>Go</highlighttext> 3+ years","responsibility":null},
			"area":{"name":"Ставрополь"},"schedule":{"id":"remote","name":"Удаленная работа"},
			"has_negotiations":true}],"pages":7}`))
	}))

	page, err := c.SearchByLocation(context.Background(), `"go" OR "golang"`, 2)
	require.NoError(t, err)
	assert.Equal(t, 7, page.TotalPages)
	require.Len(t, page.Postings, 1)
	p := page.Postings[0]
	assert.Equal(t, "Go dev", p.Title)
	assert.Equal(t, "Acme", p.Employer)
	assert.Equal(t, "Go 3+ years", p.Snippet.Requirement)
	assert.True(t, p.HasNegotiations)
	assert.True(t, p.Remote)
	assert.Nil(t, p.Responses)

	_, err = c.SearchByRemote(context.Background(), "go", 2)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Contains(t, seen[0], "area=84")
	assert.Contains(t, seen[1], "schedule=remote")
}

func TestFetchDetailsDropsFailures(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/vacancies/")
		if id == "bad" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"description":"Not Found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": id, "name": "Vacancy " + id,
			"employer": map[string]any{"name": "E"},
			"counters": map[string]any{"responses": len(id)},
		})
	}))

	got := c.FetchDetails(context.Background(), []string{"a", "bad", "ccc"})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "ccc", got[1].ID)
	require.NotNil(t, got[1].Responses)
	assert.Equal(t, 3, *got[1].Responses)
}

func TestFetchDetailsCancelledStartsNothing(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, c.FetchDetails(ctx, []string{"1", "2", "3"}))
	assert.Zero(t, calls.Load())
}

func TestSubmitApplication(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/negotiations", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "v1", q.Get("vacancy_id"))
		assert.Equal(t, "r1", q.Get("resume_id"))
		assert.Equal(t, "Добрый день!", q.Get("message"))
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, c.SubmitApplication(context.Background(), "v1", "r1", "Добрый день!"))
}

func TestSubmitApplicationErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		errType apperrors.ErrorType
		ref     string
	}{
		{
			name:    "captcha",
			status:  http.StatusForbidden,
			body:    `{"errors":[{"type":"captcha_required","value":"captcha_required","captcha_url":"https://hh.ru/captcha?x=1"}]}`,
			errType: apperrors.ErrTypeChallenge,
			ref:     "https://hh.ru/captcha?x=1",
		},
		{
			name:    "duplicate",
			status:  http.StatusBadRequest,
			body:    `{"errors":[{"type":"negotiations","value":"negotiation.exists"}]}`,
			errType: apperrors.ErrTypeDuplicate,
		},
		{
			name:    "generic",
			status:  http.StatusBadRequest,
			body:    `{"description":"Bad resume","errors":[{"type":"bad_argument","value":"resume_id"}],"request_id":"rq"}`,
			errType: apperrors.ErrTypeUpstream,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"errors":[{"type":"oauth","value":"token_expired"}]}`,
			errType: apperrors.ErrTypeUnauthorized,
		},
		{
			name:    "not json",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			errType: apperrors.ErrTypeUpstream,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))

			err := c.SubmitApplication(context.Background(), "v", "r", "m")
			require.Error(t, err)
			de, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.errType, de.Type)
			assert.Equal(t, tc.ref, de.Ref)
		})
	}
}

func TestGenericErrorCarriesDescription(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"description":"Resume is hidden","request_id":"abc"}`))
	}))

	err := c.SubmitApplication(context.Background(), "v", "r", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Resume is hidden")
	assert.Contains(t, err.Error(), "request_id=abc")
}

func TestListResumes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resumes/mine", r.URL.Path)
		_, _ = w.Write([]byte(`{"items":[{"id":"r1","title":"Go developer"}]}`))
	}))

	got, err := c.ListResumes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Resume{{ID: "r1", Title: "Go developer"}}, got)
}
