// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/requester/middleware"
	"github.com/samber/lo"
)

// RoundTripperOpts controls what LoggingRoundTripper records.
type RoundTripperOpts struct {
	Level slog.Level

	// SecretHeaders are logged as "***".
	SecretHeaders []string

	// SecretParams are query parameters logged as "***".
	SecretParams []string
}

// LoggingRoundTripper logs every outgoing request and its response, with
// bodies trimmed to a short prefix.
func LoggingRoundTripper(lg *slog.Logger, opts RoundTripperOpts) middleware.RoundTripperHandler {
	return func(next http.RoundTripper) http.RoundTripper {
		return middleware.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			lg.LogAttrs(req.Context(), opts.Level, "request sent",
				slog.String("method", req.Method),
				slog.String("url", maskQuery(req.URL, opts.SecretParams)),
				slog.Any("headers", maskHeaders(req.Header, opts.SecretHeaders)))

			start := time.Now()
			resp, err := next.RoundTrip(req)
			elapsed := time.Since(start)

			if err != nil {
				lg.LogAttrs(req.Context(), opts.Level, "request failed",
					slog.Duration("elapsed", elapsed),
					slog.Any("err", err))
				return resp, err
			}

			var body string
			resp.Body, body = copyAndTrim(resp.Body)
			lg.LogAttrs(req.Context(), opts.Level, "response received",
				slog.Int("status", resp.StatusCode),
				slog.Any("headers", maskHeaders(resp.Header, opts.SecretHeaders)),
				slog.String("body", body),
				slog.Duration("elapsed", elapsed))
			return resp, nil
		})
	}
}

func maskHeaders(h http.Header, secret []string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		if lo.Contains(secret, k) {
			out[k] = "***"
			continue
		}
		out[k] = strings.Join(vals, ",")
	}
	return out
}

func maskQuery(u *url.URL, secret []string) string {
	q := u.Query()
	masked := false
	for _, k := range secret {
		if q.Has(k) {
			q.Set(k, "***")
			masked = true
		}
	}
	if !masked {
		return u.String()
	}
	c := *u
	c.RawQuery = q.Encode()
	return c.String()
}

const trimBodyAt = 512

func copyAndTrim(r io.ReadCloser) (io.ReadCloser, string) {
	if r == nil {
		return nil, ""
	}

	buf := &bytes.Buffer{}
	n, err := io.CopyN(buf, r, trimBodyAt)
	portion := buf.String()
	if n == trimBodyAt {
		portion += "..."
	}
	portion = strings.Join(strings.Fields(portion), " ")

	if err != nil {
		return io.NopCloser(bytes.NewReader(buf.Bytes())), portion
	}
	return &multiCloser{Reader: io.MultiReader(buf, r), close: r.Close}, portion
}

type multiCloser struct {
	io.Reader
	close func() error
}

func (c *multiCloser) Close() error { return c.close() }
