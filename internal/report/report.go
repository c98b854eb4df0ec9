// Package report sends one reading to the collection endpoint.
//
// The wire contract is fixed: a single GET whose query carries, in this
// order, temperature, humidity and outsideHumidity (always 0.0).
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultHost = "script.google.com"
	DefaultPort = 443
	DefaultPath = "/macros/s/IDREMOVED/exec"

	outsideHumidity = "0.0"

	// maxDrain bounds how much of the response body is read before closing.
	maxDrain = 64 << 10
)

// Reading is one measurement, taken once per boot.
type Reading struct {
	Temperature float64
	Humidity    float64
	TakenAt     time.Time
}

// FormatValue renders v the way the sensor firmware prints a float: two
// decimals, with trailing zeros trimmed down to one. NaN and ±Inf print as
// nan, inf and -inf. Values that round to zero from below print as 0.0, not
// -0.0, so the endpoint never receives a signed zero.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if s == "-0.0" {
		s = "0.0"
	}
	return s
}

// RequestURI returns path with the reading query appended.
func RequestURI(path string, temperature, humidity float64) string {
	var b strings.Builder
	b.WriteString(path)
	b.WriteString("?temperature=")
	b.WriteString(FormatValue(temperature))
	b.WriteString("&humidity=")
	b.WriteString(FormatValue(humidity))
	b.WriteString("&outsideHumidity=")
	b.WriteString(outsideHumidity)
	return b.String()
}

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Reporter struct {
	client Doer
	host   string
	port   int
	path   string
	logger *slog.Logger
}

func New(client Doer, host string, port int, path string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		client: client,
		host:   host,
		port:   port,
		path:   path,
		logger: logger,
	}
}

// Host returns the target host sent in the Host header.
func (r *Reporter) Host() string {
	return r.host
}

// URL returns the full request URL for a reading.
func (r *Reporter) URL(reading Reading) string {
	authority := r.host
	if r.port != DefaultPort {
		authority = net.JoinHostPort(r.host, strconv.Itoa(r.port))
	}
	return "https://" + authority + RequestURI(r.path, reading.Temperature, reading.Humidity)
}

// Send issues the GET and closes the connection. It returns the final
// status code after redirects. The status is not interpreted; a non-nil
// error means the exchange itself failed.
func (r *Reporter) Send(ctx context.Context, reading Reading) (int, error) {
	u := r.URL(reading)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build report request: %w", err)
	}
	req.Host = r.host
	req.Header.Set("User-Agent", "cloudpico-reporter")
	req.Close = true

	r.logger.Debug("report: sending", "host", r.host, "uri", req.URL.RequestURI())

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("report get: %w", err)
	}
	defer resp.Body.Close()

	n, _ := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	r.logger.Info("report: response",
		"status", resp.StatusCode,
		"final_host", resp.Request.URL.Host,
		"body_bytes", n,
	)
	return resp.StatusCode, nil
}
