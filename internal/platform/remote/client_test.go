package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries uint64) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/study-helper.php", Timeout: 2 * time.Second, Retries: retries}, nil)
	require.NoError(t, err)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"relative url", Config{BaseURL: "/study", Timeout: time.Second}},
		{"empty url", Config{BaseURL: "", Timeout: time.Second}},
		{"zero timeout", Config{BaseURL: "https://example.com/api"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg, nil)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestFetchSubjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/study-helper.php", r.URL.Path)
		assert.Equal(t, "subjects", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"subjects":[
			{"subject":"Physics","updatetime":1700000000000},
			{"subject":"no time"},
			{"updatetime":5},
			"not an object",
			{"subject":"Art","updatetime":0}
		]}`))
	}, 0)

	subjects, err := c.FetchSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Physics", subjects[0].Text)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), subjects[0].UpdatedAt)
	assert.Equal(t, "Art", subjects[1].Text)
	assert.Equal(t, time.UnixMilli(0).UTC(), subjects[1].UpdatedAt)
}

func TestFetchSubjects_MissingArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"other":true}`))
	}, 0)

	subjects, err := c.FetchSubjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestFetchQuestions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "questions", r.URL.Query().Get("type"))
		assert.Equal(t, "Math & Logic", r.URL.Query().Get("subject"))
		_, _ = w.Write([]byte(`{"questions":[
			{"question":"2+3?","answer":"5"},
			{"question":"missing answer"},
			{"question":"","answer":""}
		]}`))
	}, 0)

	questions, err := c.FetchQuestions(context.Background(), "Math & Logic")
	require.NoError(t, err)
	assert.Equal(t, []domain.QuestionCandidate{
		{Text: "2+3?", Answer: "5"},
		{Text: "", Answer: ""},
	}, questions)
}

func TestFetch_Errors(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}, 0)
		_, err := c.FetchSubjects(context.Background())
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`{"subjects":["`))
			_, _ = w.Write([]byte(strings.Repeat("x", maxBodyBytes)))
			_, _ = w.Write([]byte(`"]}`))
		}, 3)
		_, err := c.FetchSubjects(context.Background())
		assert.ErrorIs(t, err, ErrResponseTooLarge)
		assert.NotErrorIs(t, err, ErrMalformedResponse)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("body at the limit is read whole", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			prefix := `{"subjects":[{"subject":"Edge","updatetime":1}],"pad":"`
			suffix := `"}`
			_, _ = w.Write([]byte(prefix))
			_, _ = w.Write([]byte(strings.Repeat("x", maxBodyBytes-len(prefix)-len(suffix))))
			_, _ = w.Write([]byte(suffix))
		}, 0)
		subjects, err := c.FetchSubjects(context.Background())
		require.NoError(t, err)
		require.Len(t, subjects, 1)
		assert.Equal(t, "Edge", subjects[0].Text)
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}, 3)
		_, err := c.FetchQuestions(context.Background(), "Math")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("server error is retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"subjects":[{"subject":"Late","updatetime":1}]}`))
		}, 2)
		subjects, err := c.FetchSubjects(context.Background())
		require.NoError(t, err)
		assert.Len(t, subjects, 1)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("retries are bounded", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}, 1)
		_, err := c.FetchSubjects(context.Background())
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		t.Cleanup(srv.Close)

		c, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
		require.NoError(t, err)
		_, err = c.FetchSubjects(context.Background())
		assert.Error(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"subjects":[]}`))
		}, 3)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.FetchSubjects(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
