package matcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/utils"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

type formField struct {
	name  string
	value string
}

type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// postMultipart builds a multipart body in the given order: the file part first, then the plain fields.
func (c *Client) postMultipart(ctx context.Context, op, url string, file *formFile, fields []formField) ([]byte, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.field), escapeQuotes(file.filename)))
		header.Set("Content-Type", file.contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, err
		}

		if _, err = part.Write(file.data); err != nil {
			return nil, err
		}
	}

	for _, f := range fields {
		field, err := w.CreateFormField(f.name)
		if err != nil {
			return nil, err
		}

		_, err = io.Copy(field, strings.NewReader(f.value))
		if err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &b)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(op, req)
}

func (c *Client) post(ctx context.Context, op, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	return c.do(op, c.setHeaders(req))
}

func (c *Client) get(ctx context.Context, op, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	// Additional headers. For GET requests only
	req.Header.Set("Content-Type", contentType)

	return c.do(op, req)
}

// do sends the request and returns the response body of a 2xx response.
// Anything else is mapped to TransportError or RemoteError.
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	log := c.logger.With(zap.String(logger.FieldEndpoint, req.URL.Path))

	log.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Warn("remote service returned an error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body_preview", utils.TruncateForLog(utils.OneLine(string(data)), maxBodyLogLength)),
		)

		return nil, &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(data),
		}
	}

	log.Debug("got response", zap.Int("status_code", resp.StatusCode), zap.Int("body_length", len(data)))

	return data, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
