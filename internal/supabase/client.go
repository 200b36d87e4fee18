package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAppointmentsTable = "turnos"
	DefaultPatientsTable     = "pacientesmuramar"
)

// Client talks to the PostgREST endpoint of a hosted Supabase project.
// Appointment methods satisfy booking.Store; Patients returns a patients.Store.
type Client struct {
	hc    *http.Client
	base  string
	creds Credentials

	AppointmentsTable string
	PatientsTable     string
	// Location is applied to timestamps the table returns without an offset.
	Location *time.Location
}

type Credentials struct {
	URL string
	// Key is the project's anon or service key. It is sent both as apikey and
	// as the bearer token.
	Key string
}

func New(creds Credentials) *Client {
	return &Client{
		hc:                &http.Client{Timeout: 5 * time.Second},
		base:              strings.TrimRight(creds.URL, "/"),
		creds:             creds,
		AppointmentsTable: DefaultAppointmentsTable,
		PatientsTable:     DefaultPatientsTable,
		Location:          time.UTC,
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.hc = hc
	return c
}

// APIError is a non-2xx answer from PostgREST.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("supabase: %s (status=%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("supabase: request failed (status=%d)", e.Status)
}

// Ping lists zero rows of the appointments table to check URL and key.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{"select": {"id"}, "limit": {"0"}}
	_, err := c.do(ctx, http.MethodGet, c.AppointmentsTable, q, nil, "")
	return err
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body any, prefer string) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	rawURL := c.base + "/rest/v1/" + url.PathEscape(table)
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.creds.Key)
	req.Header.Set("Authorization", "Bearer "+c.creds.Key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase %s %s: %w", method, table, err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase %s %s: read body: %w", method, table, err)
	}
	if res.StatusCode >= 400 {
		apiErr := &APIError{Status: res.StatusCode}
		_ = json.Unmarshal(b, apiErr)
		return nil, apiErr
	}
	return b, nil
}

// flexID accepts both the bigint and uuid primary keys a table may use.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// tableTime reads timestamptz values as well as bare timestamps.
type tableTime string

var bareLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

func (t tableTime) parse(loc *time.Location) (time.Time, error) {
	s := string(t)
	if s == "" {
		return time.Time{}, nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return v, nil
	}
	for _, layout := range bareLayouts {
		if v, err := time.ParseInLocation(layout, s, loc); err == nil {
			return v, nil
		}
	}
	return time.Time{}, fmt.Errorf("supabase: unrecognised timestamp %q", s)
}
