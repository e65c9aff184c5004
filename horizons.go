package celestium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultHorizonsURL is the JPL Horizons REST endpoint.
	DefaultHorizonsURL = "https://ssd.jpl.nasa.gov/api/horizons.api"
	horizonsDateFormat = "2006-01-02 15:04:05"
	horizonsSOE        = "$$SOE"
	horizonsEOE        = "$$EOE"
)

// HorizonsEphemeris queries the geocentric ICRF position of the Moon from JPL Horizons.
type HorizonsEphemeris struct {
	baseURL    string
	httpClient *http.Client
}

// NewHorizonsEphemeris returns a Horizons client for the given endpoint (DefaultHorizonsURL if empty).
func NewHorizonsEphemeris(baseURL string, timeout time.Duration) *HorizonsEphemeris {
	if baseURL == "" {
		baseURL = DefaultHorizonsURL
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &HorizonsEphemeris{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
}

// Name implements the Ephemeris interface.
func (h *HorizonsEphemeris) Name() string { return SourceHorizons }

type horizonsResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Position implements the Ephemeris interface.
func (h *HorizonsEphemeris) Position(ctx context.Context, epoch time.Time) ([]float64, error) {
	if epoch.IsZero() {
		return nil, errors.New("zero epoch")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.queryURL(epoch.UTC()), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying horizons: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, h.baseURL)
	}
	var body horizonsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding horizons response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("horizons: %s", body.Error)
	}
	return parseHorizonsVectors(body.Result)
}

func (h *HorizonsEphemeris) queryURL(epoch time.Time) string {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("COMMAND", "'301'")
	q.Set("OBJ_DATA", "'NO'")
	q.Set("MAKE_EPHEM", "'YES'")
	q.Set("EPHEM_TYPE", "'VECTORS'")
	q.Set("CENTER", "'500@399'")
	q.Set("REF_PLANE", "'FRAME'")
	q.Set("REF_SYSTEM", "'ICRF'")
	q.Set("VEC_TABLE", "'1'")
	q.Set("OUT_UNITS", "'KM-S'")
	q.Set("CSV_FORMAT", "'YES'")
	q.Set("TIME_TYPE", "'UT'")
	q.Set("START_TIME", "'"+epoch.Format(horizonsDateFormat)+"'")
	q.Set("STOP_TIME", "'"+epoch.Add(time.Minute).Format(horizonsDateFormat)+"'")
	q.Set("STEP_SIZE", "'1'")
	return h.baseURL + "?" + q.Encode()
}

// parseHorizonsVectors reads the first CSV record between $$SOE and $$EOE.
// Records are <JD>, <calendar date>, <X>, <Y>, <Z>, in km.
func parseHorizonsVectors(result string) ([]float64, error) {
	start := strings.Index(result, horizonsSOE)
	end := strings.Index(result, horizonsEOE)
	if start < 0 || end < 0 || end < start {
		return nil, errors.New("no ephemeris block in horizons result")
	}
	for _, line := range strings.Split(result[start+len(horizonsSOE):end], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 5 {
			return nil, fmt.Errorf("malformed horizons record %q", line)
		}
		R := make([]float64, 3)
		for i := 0; i < 3; i++ {
			val, err := strconv.ParseFloat(strings.TrimSpace(fields[2+i]), 64)
			if err != nil {
				return nil, fmt.Errorf("parsing horizons component %d: %w", i, err)
			}
			R[i] = val
		}
		return R, nil
	}
	return nil, errors.New("empty ephemeris block in horizons result")
}
