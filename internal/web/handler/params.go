package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/freekieb7/go-newsgate/internal/news"
	"github.com/freekieb7/go-newsgate/internal/web/response"
)

const (
	msgFieldRequired = "Field required"
	msgMinLength     = "String should have at least %d character"
	msgInteger       = "Input should be a valid integer, unable to parse string as an integer"
	msgGreaterEqual  = "Input should be greater than or equal to %d"
)

// params reads request parameters and collects every constraint they
// violate, so one response can report them all.
type params struct {
	values url.Values
	errs   response.ValidationErrors
}

func newParams(values url.Values) *params {
	return &params{values: values}
}

func (p *params) fail(field, message string) {
	p.errs = append(p.errs, response.FieldError{Field: field, Message: message})
}

// String returns a required parameter of at least minLen characters.
func (p *params) String(name string, minLen int) string {
	if !p.values.Has(name) {
		p.fail(name, msgFieldRequired)
		return ""
	}
	v := p.values.Get(name)
	if len([]rune(v)) < minLen {
		p.fail(name, fmt.Sprintf(msgMinLength, minLen))
	}
	return v
}

// Optional returns a parameter that may be absent.
func (p *params) Optional(name string) string {
	return strings.TrimSpace(p.values.Get(name))
}

// Int returns an integer parameter no smaller than min, or def when absent.
func (p *params) Int(name string, def, min int) int {
	raw := strings.TrimSpace(p.values.Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(name, msgInteger)
		return def
	}
	if v < min {
		p.fail(name, fmt.Sprintf(msgGreaterEqual, min))
	}
	return v
}

// Country validates a country code; an empty code is allowed only when
// the parameter is optional.
func (p *params) Country(name, code string, required bool) news.Country {
	if code == "" && !required {
		return ""
	}
	country, err := news.ParseCountry(code)
	if err != nil {
		p.fail(name, err.Error())
	}
	return country
}

// Err returns the collected violations, or nil.
func (p *params) Err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs
}
