package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// Params gives access to route variables, query parameters and headers of a request.
// Route variables win over query parameters of the same name.
type Params struct {
	urlQuery url.Values
	vars     map[string]string
	header   http.Header
}

func NewParams(r *http.Request) *Params {
	var query url.Values
	if r.URL != nil {
		query = r.URL.Query()
	}
	return &Params{
		urlQuery: query,
		vars:     mux.Vars(r),
		header:   r.Header,
	}
}

func (p *Params) String(name string) (string, error) {
	if result, ok := p.vars[name]; ok {
		return result, nil
	}
	if _, ok := p.urlQuery[name]; ok {
		return p.urlQuery.Get(name), nil
	}
	return "", p.newUndefinedErr(name)
}

func (p *Params) Int64(name string) (int64, error) {
	result, err := p.String(name)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(result, 10, 64)
}

// Header returns the trimmed value of a header. Missing and blank headers are undefined.
func (p *Params) Header(name string) (string, error) {
	result := strings.TrimSpace(p.header.Get(name))
	if result == "" {
		return "", fmt.Errorf("header '%s' undefined", name)
	}
	return result, nil
}

func (p *Params) newUndefinedErr(name string) error {
	return fmt.Errorf("parameter '%s' undefined", name)
}
