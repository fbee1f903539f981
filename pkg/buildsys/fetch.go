package buildsys

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
)

// RemoteFetcher downloads single files. It never retries.
type RemoteFetcher struct {
	Client       *http.Client
	ShowProgress bool
}

// NewRemoteFetcher returns a fetcher whose requests time out after timeout. Progress bars are
// only shown on interactive terminals outside of CI.
func NewRemoteFetcher(timeout time.Duration) *RemoteFetcher {
	return &RemoteFetcher{
		Client: &http.Client{
			Timeout: timeout,
		},
		ShowProgress: os.Getenv("CI") != "true" && isatty.IsTerminal(os.Stdout.Fd()),
	}
}

func (f *RemoteFetcher) progressBar(length int64, desc string) *progressbar.ProgressBar {
	if !f.ShowProgress {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

// Fetch performs a GET request for url and returns the body. Network errors, non-2xx
// responses and empty bodies are reported as *FetchError.
func (f *RemoteFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Err: eris.Errorf("unexpected status %s", resp.Status)}
	}

	var body bytes.Buffer
	bar := f.progressBar(resp.ContentLength, "     download")
	_, err = io.Copy(io.MultiWriter(&body, bar), resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: eris.Wrap(err, "failed during download")}
	}
	bar.Finish()

	if body.Len() == 0 {
		return nil, &FetchError{URL: url, Err: eris.New("empty response body")}
	}

	return body.Bytes(), nil
}
