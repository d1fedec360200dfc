package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"grisera/internal/codec"
	"grisera/internal/domain"
)

// maxBodyBytes bounds request bodies; time series may carry many values
const maxBodyBytes = 32 << 20

// badRequest marks malformed input: undecodable bodies and bad query
// parameters
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string {
	return e.msg
}

func malformed(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// filterPrefix lets a filter name a field that collides with a reserved
// parameter, as in ?filter.source=camera
const filterPrefix = "filter."

// reserved query parameters are never turned into filters
var reserved = map[string]bool{
	"depth":            true,
	"source":           true,
	"format":           true,
	"signal_min_value": true,
	"signal_max_value": true,
}

// decodeBody parses the body with the codec named by its Content-Type and
// fills v. The parsed document is returned so that it can be echoed back
// with validation errors.
func decodeBody(r *http.Request, v any) (domain.Document, error) {
	c, err := bodyCodec(r)
	if err != nil {
		return nil, err
	}
	doc, err := c.Parse(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformed("request body is empty")
		}
		return nil, malformed("invalid request body: %v", err)
	}
	if err := doc.Decode(v); err != nil {
		return doc, malformed("invalid request body: %v", err)
	}
	return doc, nil
}

func bodyCodec(r *http.Request) (codec.Codec, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return codec.For("json")
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return nil, malformed("invalid Content-Type %q", ct)
	}
	c, err := codec.For(mt)
	if err != nil {
		return nil, malformed("%v", err)
	}
	return c, nil
}

// depth reads the depth query parameter, 0 when absent
func depth(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("depth")
	if raw == "" {
		return 0, nil
	}
	d, err := strconv.Atoi(raw)
	if err != nil || d < 0 {
		return 0, malformed("depth must be a non-negative integer")
	}
	return d, nil
}

// source reads the traversal source tag
func source(r *http.Request) (domain.Collection, error) {
	raw := r.URL.Query().Get("source")
	if raw == "" {
		return domain.NoSource, nil
	}
	c := domain.Collection(raw)
	if !c.Valid() {
		return "", malformed("unknown source %q", raw)
	}
	return c, nil
}

// filters turns the non-reserved query parameters into equality conditions.
// Repeated parameters match any of their values; "true" and "false" also
// match stored booleans. A prefixed parameter always filters on the field
// after the prefix, even a reserved one.
func filters(r *http.Request) domain.Filter {
	f := domain.Filter{}
	for key, values := range r.URL.Query() {
		if field, ok := strings.CutPrefix(key, filterPrefix); ok {
			key = field
		} else if reserved[key] {
			continue
		}
		if key == "" || len(values) == 0 {
			continue
		}
		cond := domain.In{}
		for _, v := range values {
			cond = append(cond, v)
			if v == "true" || v == "false" {
				cond = append(cond, v == "true")
			}
		}
		if len(cond) == 1 {
			f[key] = cond[0]
			continue
		}
		f[key] = cond
	}
	return f
}

// floatParam reads an optional numeric query parameter
func floatParam(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, malformed("%s must be a number", name)
	}
	return &f, nil
}

// idList reads repeated or comma separated id parameters
func idList(r *http.Request, name string) []string {
	var ids []string
	for _, v := range r.URL.Query()[name] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
