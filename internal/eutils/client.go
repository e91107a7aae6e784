// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package eutils executes pipeline specs against the NCBI E-utilities
// service: ESearch resolves a query to record IDs and EFetch retrieves the
// full records in batches, each batch delivered to the fetch task's
// response handler.
package eutils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/go-pkgz/requester"
	"github.com/go-pkgz/requester/middleware"
	"github.com/samber/lo"

	"github.com/pdiddy/pubmed-search/internal/httputil"
	"github.com/pdiddy/pubmed-search/internal/logging"
	"github.com/pdiddy/pubmed-search/internal/pipeline"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

var (
	// ErrRemote wraps every failure to obtain a usable response from the
	// remote service: network errors, non-200 statuses and error payloads.
	ErrRemote = errors.New("remote request failed")

	// ErrUnknownHandle is returned by Result for a handle that has not run.
	ErrUnknownHandle = errors.New("unknown task handle")
)

const maxCachedSearches = 256

// Client holds the HTTP stack and the search cache shared by every run.
// Each pipeline run gets its own Run from NewRun.
type Client struct {
	cfg  types.EutilsConfig
	http *http.Client
	log  *slog.Logger
	ids  cache.Cache[string, searchOutcome]
}

type searchOutcome struct {
	IDs   []string
	Count int
}

// New returns a Client for cfg. Outgoing requests are logged at debug level
// with the API key masked.
func New(cfg types.EutilsConfig, lg *slog.Logger) *Client {
	if lg == nil {
		lg = slog.Default()
	}

	rq := requester.New(http.Client{Timeout: cfg.Timeout},
		middleware.Header("User-Agent", cfg.UserAgent),
		logging.LoggingRoundTripper(lg, logging.RoundTripperOpts{
			Level:        slog.LevelDebug,
			SecretParams: []string{"api_key"},
		}),
	)

	return &Client{
		cfg:  cfg,
		http: rq.Client(),
		log:  lg,
		ids: cache.NewCache[string, searchOutcome]().
			WithLRU().
			WithMaxKeys(maxCachedSearches).
			WithTTL(cfg.SearchCacheTTL),
	}
}

// NewRun returns an executor for a single pipeline run. A non-empty
// contact replaces the configured email for this run's requests.
func (c *Client) NewRun(contact string) *Run {
	if contact == "" {
		contact = c.cfg.Email
	}
	return &Run{c: c, contact: contact, outputs: map[types.Handle]pipeline.Output{}}
}

// Run executes one Spec and keeps the outputs of its tasks.
type Run struct {
	c       *Client
	contact string

	mu      sync.Mutex
	outputs map[types.Handle]pipeline.Output
}

var _ pipeline.Executor = (*Run)(nil)

// Execute runs every task of spec in dependency order. It stops at the
// first failing task. Fetch failures are also reported to the task's
// handler before being returned.
func (r *Run) Execute(ctx context.Context, spec pipeline.Spec) error {
	tasks, err := spec.Order()
	if err != nil {
		return fmt.Errorf("ordering tasks: %w", err)
	}

	for _, task := range tasks {
		var out pipeline.Output
		switch task.Kind {
		case types.TaskSearch:
			out, err = r.search(ctx, task)
		case types.TaskFetch:
			out, err = r.fetch(ctx, task)
		default:
			err = fmt.Errorf("task %s: unsupported kind %q", task.Handle, task.Kind)
		}
		if err != nil {
			return err
		}

		r.mu.Lock()
		r.outputs[task.Handle] = out
		r.mu.Unlock()
	}
	return nil
}

// Result returns the output of a task that ran.
func (r *Run) Result(h types.Handle) (pipeline.Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.outputs[h]
	if !ok {
		return pipeline.Output{}, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return out, nil
}

func (r *Run) fetch(ctx context.Context, task pipeline.Task) (pipeline.Output, error) {
	dep := task.Fetch.Dependency
	r.mu.Lock()
	prev, ok := r.outputs[dep]
	r.mu.Unlock()
	if !ok {
		return pipeline.Output{}, fmt.Errorf("task %s: dependency %s has no output", task.Handle, dep)
	}

	out := pipeline.Output{Handle: task.Handle, Kind: task.Kind, IDs: prev.IDs, Count: prev.Count}
	size := r.c.cfg.FetchBatchSize
	if size <= 0 {
		size = max(len(prev.IDs), 1)
	}
	for _, batch := range lo.Chunk(prev.IDs, size) {
		body, err := r.efetch(ctx, task.Fetch, batch)
		if err != nil {
			task.Handler.AnalyzeError(body, task, err)
			return pipeline.Output{}, fmt.Errorf("task %s: %w", task.Handle, err)
		}
		task.Handler.AnalyzeResult(body, task)
	}
	out.Articles = task.Handler.Result()
	return out, nil
}

// esearchResponse is the JSON shape of ESearch. Errors are reported either
// at the top level or inside esearchresult.
type esearchResponse struct {
	Error  string `json:"error"`
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
}

func (r *Run) search(ctx context.Context, task pipeline.Task) (pipeline.Output, error) {
	c, st := r.c, task.Search
	key := strings.Join([]string{st.Database, st.Term, string(st.Sort), strconv.Itoa(st.MaxResults)}, "\x00")

	outcome, ok := c.ids.Get(key)
	if ok {
		c.log.DebugContext(ctx, "search served from cache", slog.String("term", st.Term))
	} else {
		var err error
		if outcome, err = r.esearch(ctx, st); err != nil {
			return pipeline.Output{}, fmt.Errorf("task %s: %w", task.Handle, err)
		}
		if c.cfg.SearchCacheTTL > 0 {
			c.ids.Set(key, outcome, 0)
		}
	}

	return pipeline.Output{
		Handle: task.Handle,
		Kind:   task.Kind,
		IDs:    outcome.IDs,
		Count:  outcome.Count,
	}, nil
}

func (r *Run) esearch(ctx context.Context, st *types.SearchTask) (searchOutcome, error) {
	params := r.params(st.Database)
	params.Set("term", st.Term)
	params.Set("retmax", strconv.Itoa(st.MaxResults))
	params.Set("rettype", st.ResultType)
	params.Set("retmode", "json")
	if st.Sort != "" {
		params.Set("sort", string(st.Sort))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.c.endpoint("esearch")+"?"+params.Encode(), nil)
	if err != nil {
		return searchOutcome{}, fmt.Errorf("creating request: %w", err)
	}

	body, err := r.c.do(ctx, req, "esearch")
	if err != nil {
		return searchOutcome{}, err
	}

	var esr esearchResponse
	if err := json.Unmarshal(body, &esr); err != nil {
		return searchOutcome{}, fmt.Errorf("%w: parsing esearch response: %v", ErrRemote, err)
	}
	if msg, ok := lo.Coalesce(esr.Error, esr.Result.Error); ok {
		return searchOutcome{}, fmt.Errorf("%w: esearch: %s", ErrRemote, msg)
	}

	count, _ := strconv.Atoi(esr.Result.Count)
	return searchOutcome{IDs: esr.Result.IDList, Count: count}, nil
}

// efetch posts the ID list as a form, which the service requires for long
// lists. The body is returned even on failure so it can be reported.
func (r *Run) efetch(ctx context.Context, ft *types.FetchTask, ids []string) ([]byte, error) {
	params := r.params(ft.Database)
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", ft.ResultMode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.c.endpoint("efetch"), strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return r.c.do(ctx, req, "efetch")
}

func (c *Client) do(ctx context.Context, req *http.Request, eutil string) ([]byte, error) {
	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries, c.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRemote, eutil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", ErrRemote, eutil, err)
	}
	if resp.StatusCode != http.StatusOK {
		return body, fmt.Errorf("%w: %s returned HTTP %d", ErrRemote, eutil, resp.StatusCode)
	}
	return body, nil
}

func (r *Run) params(db string) url.Values {
	params := url.Values{"db": {db}}
	if r.contact != "" {
		params.Set("email", r.contact)
	}
	if r.c.cfg.Tool != "" {
		params.Set("tool", r.c.cfg.Tool)
	}
	if r.c.cfg.APIKey != "" {
		params.Set("api_key", r.c.cfg.APIKey)
	}
	return params
}

func (c *Client) endpoint(eutil string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + eutil + ".fcgi"
}
