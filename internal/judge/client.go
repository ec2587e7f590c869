// Package judge implements the read-only Codeforces API client. The client
// never conflates the judge being unreachable (common.ErrJudgeUnavailable,
// retryable) with the judge answering "no such user/problem/contest"
// (common.ErrNotFound, a successful answer).
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cf_coach/internal/common"
	"cf_coach/internal/domain/model"
)

// API is the judge surface consumed by the verification protocols. It is an
// interface so tests supply a deterministic fake instead of the live judge.
type API interface {
	// FindProblem returns problem metadata, or common.ErrNotFound if no such
	// problem exists on the judge.
	FindProblem(ctx context.Context, code model.ProblemCode) (*Problem, error)
	// UserInfo returns judge-side profile data for a handle, or common.ErrNotFound.
	UserInfo(ctx context.Context, handle string) (*User, error)
	// Submissions returns up to count recent submissions for a handle,
	// starting from the 1-based index from.
	Submissions(ctx context.Context, handle string, from, count int) ([]Submission, error)
	// ContestMeta returns the contest's live-window duration and problem indices.
	ContestMeta(ctx context.Context, contestID int) (*ContestMeta, error)
	// ProblemSet returns the judge's full problem set.
	ProblemSet(ctx context.Context) ([]Problem, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) FindProblem(ctx context.Context, code model.ProblemCode) (*Problem, error) {
	// The API has no single-problem lookup; contest.standings lists the
	// contest's problems and fails with a comment when the contest is unknown.
	params := url.Values{}
	params.Set("contestId", strconv.Itoa(code.ContestID))
	params.Set("from", "1")
	params.Set("count", "1")

	var result standingsResult
	if err := c.get(ctx, "contest.standings", params, &result); err != nil {
		return nil, fmt.Errorf("find problem %s: %w", code, err)
	}
	for i := range result.Problems {
		if result.Problems[i].Index == code.Index {
			return &result.Problems[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (c *Client) UserInfo(ctx context.Context, handle string) (*User, error) {
	params := url.Values{}
	params.Set("handles", handle)

	var result []User
	if err := c.get(ctx, "user.info", params, &result); err != nil {
		return nil, fmt.Errorf("user info %s: %w", handle, err)
	}
	if len(result) == 0 {
		return nil, common.ErrNotFound
	}
	return &result[0], nil
}

func (c *Client) Submissions(ctx context.Context, handle string, from, count int) ([]Submission, error) {
	params := url.Values{}
	params.Set("handle", handle)
	params.Set("from", strconv.Itoa(from))
	params.Set("count", strconv.Itoa(count))

	var result []Submission
	if err := c.get(ctx, "user.status", params, &result); err != nil {
		return nil, fmt.Errorf("submissions of %s: %w", handle, err)
	}
	return result, nil
}

func (c *Client) ContestMeta(ctx context.Context, contestID int) (*ContestMeta, error) {
	params := url.Values{}
	params.Set("contestId", strconv.Itoa(contestID))
	params.Set("from", "1")
	params.Set("count", "1")

	var result standingsResult
	if err := c.get(ctx, "contest.standings", params, &result); err != nil {
		return nil, fmt.Errorf("contest %d: %w", contestID, err)
	}
	meta := &ContestMeta{DurationSeconds: result.Contest.DurationSeconds}
	for _, p := range result.Problems {
		meta.ProblemIndices = append(meta.ProblemIndices, p.Index)
	}
	return meta, nil
}

func (c *Client) ProblemSet(ctx context.Context) ([]Problem, error) {
	var result problemSetResult
	if err := c.get(ctx, "problemset.problems", url.Values{}, &result); err != nil {
		return nil, fmt.Errorf("problem set: %w", err)
	}
	return result.Problems, nil
}

func (c *Client) get(ctx context.Context, method string, params url.Values, result interface{}) error {
	fullURL := c.baseURL + "/" + method
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrJudgeUnavailable, err)
	}
	defer resp.Body.Close()

	// Codeforces returns 400 with a FAILED envelope for unknown handles and
	// contests; anything else non-200 is treated as the judge being down.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", common.ErrJudgeUnavailable, resp.StatusCode)
	}

	var envelope apiEnvelope[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", common.ErrJudgeUnavailable, err)
	}

	if envelope.Status != "OK" {
		if strings.Contains(strings.ToLower(envelope.Comment), "not found") {
			return common.ErrNotFound
		}
		return fmt.Errorf("%w: %s", common.ErrJudgeUnavailable, envelope.Comment)
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("%w: decode result: %v", common.ErrJudgeUnavailable, err)
	}
	return nil
}
