// Package remote fetches importable subjects and questions from the study
// web API. The API answers GET requests with JSON documents:
//
//	?type=subjects                  {"subjects":[{"subject":"...","updatetime":1700000000000}]}
//	?type=questions&subject=<text>  {"questions":[{"question":"...","answer":"..."}]}
//
// Records missing a required field are dropped one by one; the rest of the
// document is still used.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/logger"
)

const component = "remote_source"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

var (
	// ErrUnexpectedStatus is returned when the API answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrMalformedResponse is returned when the response body is not a JSON object.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrResponseTooLarge is returned when a response body exceeds maxBodyBytes.
	ErrResponseTooLarge = errors.New("response too large")
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// Retries is how many times a network error or 5xx answer is retried.
	Retries uint64
}

// Client talks to the study web API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	retries uint64
	logger  *slog.Logger

	// newBackOff is replaced in tests to avoid real delays.
	newBackOff func() backoff.BackOff
}

// NewClient creates a Client for cfg.BaseURL.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, domain.NewValidationError("base_url", "must be an absolute URL", domain.ErrValidation)
	}
	if cfg.Timeout <= 0 {
		return nil, domain.NewValidationError("timeout", "must be positive", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		retries: cfg.Retries,
		logger:  logger.With(slog.String("component", component)),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}, nil
}

type subjectRecord struct {
	Subject    *string `json:"subject"`
	UpdateTime *int64  `json:"updatetime"`
}

type questionRecord struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

// FetchSubjects lists the subjects the API offers. updatetime is read as
// Unix milliseconds.
func (c *Client) FetchSubjects(ctx context.Context) ([]domain.SubjectCandidate, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	var doc struct {
		Subjects []json.RawMessage `json:"subjects"`
	}
	if err := c.get(ctx, url.Values{"type": {"subjects"}}, &doc); err != nil {
		return nil, err
	}

	subjects := make([]domain.SubjectCandidate, 0, len(doc.Subjects))
	for i, raw := range doc.Subjects {
		var rec subjectRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Subject == nil || rec.UpdateTime == nil {
			log.Warn("dropping malformed subject record", slog.Int("position", i))
			continue
		}
		subjects = append(subjects, domain.SubjectCandidate{
			Text:      *rec.Subject,
			UpdatedAt: time.UnixMilli(*rec.UpdateTime).UTC(),
		})
	}

	log.Debug("fetched subjects",
		slog.Int("received", len(doc.Subjects)),
		slog.Int("kept", len(subjects)))
	return subjects, nil
}

// FetchQuestions lists the questions the API offers for subjectText.
func (c *Client) FetchQuestions(ctx context.Context, subjectText string) ([]domain.QuestionCandidate, error) {
	log := logger.FromContextOrDefault(ctx, c.logger).With(slog.String("subject", subjectText))

	var doc struct {
		Questions []json.RawMessage `json:"questions"`
	}
	query := url.Values{"type": {"questions"}, "subject": {subjectText}}
	if err := c.get(ctx, query, &doc); err != nil {
		return nil, err
	}

	questions := make([]domain.QuestionCandidate, 0, len(doc.Questions))
	for i, raw := range doc.Questions {
		var rec questionRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Question == nil || rec.Answer == nil {
			log.Warn("dropping malformed question record", slog.Int("position", i))
			continue
		}
		questions = append(questions, domain.QuestionCandidate{Text: *rec.Question, Answer: *rec.Answer})
	}

	log.Debug("fetched questions",
		slog.Int("received", len(doc.Questions)),
		slog.Int("kept", len(questions)))
	return questions, nil
}

// get requests the base URL with query and decodes the JSON body into out,
// retrying network errors and 5xx answers.
func (c *Client) get(ctx context.Context, query url.Values, out any) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	target := *c.baseURL
	target.RawQuery = query.Encode()

	var body []byte
	op := func() error {
		var err error
		body, err = c.do(ctx, target.String())
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("remote request failed, retrying",
			slog.String("type", query.Get("type")),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.retries), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		if resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, backoff.Permanent(fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxBodyBytes))
	}
	return body, nil
}
