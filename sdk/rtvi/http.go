package rtvi

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pipecat-ai/rtvi-client-android/core/secret"
	"github.com/pipecat-ai/rtvi-client-android/internal/logx"
	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
	"github.com/pipecat-ai/rtvi-client-android/sdk/loop"
)

// newHTTPClient bounds connect and response headers but not streamed bodies.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
			TLSHandshakeTimeout:   30 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}
}

// post sends body as JSON to url off the loop. Without a stream handler the
// future holds the response body. With one, a 200 body is handed to the
// handler and the future holds "" once it returns.
func post(l *loop.Loop, client *http.Client, url string, body []byte, headers []Header, stream func(io.Reader) error) *async.Future[string] {
	return async.Go(l, func() (string, error) {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", &HTTPError{Kind: HTTPExceptionThrown, URL: url, Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		for _, h := range headers {
			req.Header.Add(h.Name, h.Value)
			logx.Log.Debug().Str("url", url).Str("header", h.Name).Str("value", secret.MaskHeader(h.Name, h.Value)).Msg("request header")
		}

		resp, err := client.Do(req)
		if err != nil {
			return "", &HTTPError{Kind: HTTPExceptionThrown, URL: url, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusOK && stream != nil {
			if err := stream(resp.Body); err != nil {
				return "", &HTTPError{Kind: HTTPExceptionThrown, URL: url, Err: err}
			}
			return "", nil
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", &HTTPError{Kind: HTTPExceptionThrown, URL: url, Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			return "", &HTTPError{Kind: HTTPBadStatusCode, URL: url, Code: resp.StatusCode, Body: string(b)}
		}
		if len(b) == 0 {
			return "", &HTTPError{Kind: HTTPMissingResponseBody, URL: url}
		}
		return string(b), nil
	})
}

// parseServerSentEvents reads "data:" lines carrying base64 encoded frames
// and passes each decoded frame to fn. Other lines are ignored.
func parseServerSentEvents(r io.Reader, fn func([]byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		frame, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
		if err != nil {
			return fmt.Errorf("decode event frame: %w", err)
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
	return sc.Err()
}
