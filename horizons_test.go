package celestium

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const horizonsResult = `*******************************************************************************
Ephemeris / API_USER Mon Jan  1 12:00:00 2024 Pasadena, USA      / Horizons
*******************************************************************************
Target body name: Moon (301)                      {source: DE441}
Center body name: Earth (399)                     {source: DE441}
*******************************************************************************
            JDUT,            Calendar Date (TDB),                      X,                      Y,                      Z,
**************************************************************************************************************************
$$SOE
2460311.000000000, A.D. 2024-Jan-01 12:00:00.0000, -2.515362804158491E+05,  2.574180386123633E+05,  1.291463436218513E+05,
2460311.000694444, A.D. 2024-Jan-01 12:01:00.0000, -2.516011227457125E+05,  2.573667716315232E+05,  1.291209858021357E+05,
$$EOE
**************************************************************************************************************************
`

func TestParseHorizonsVectors(t *testing.T) {
	R, err := parseHorizonsVectors(horizonsResult)
	if err != nil {
		t.Fatal(err)
	}
	if !vectorsEqual(R, []float64{-2.515362804158491e+05, 2.574180386123633e+05, 1.291463436218513e+05}) {
		t.Fatalf("got %v", R)
	}
	for _, bad := range []string{
		"no block at all",
		"$$EOE\n1,2,3,4,5\n$$SOE",
		"$$SOE\n\n$$EOE",
		"$$SOE\n1, A.D., 3\n$$EOE",
		"$$SOE\n1, A.D., x, 4, 5,\n$$EOE",
	} {
		if _, err := parseHorizonsVectors(bad); err == nil {
			t.Fatalf("%q should not parse", bad)
		}
	}
}

func TestHorizonsEphemeris(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("COMMAND") != "'301'" || q.Get("CENTER") != "'500@399'" || q.Get("format") != "json" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		if q.Get("START_TIME") != "'2024-01-01 12:00:00'" || q.Get("STOP_TIME") != "'2024-01-01 12:01:00'" {
			http.Error(w, "bad time span", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"signature": map[string]string{"source": "NASA/JPL Horizons API", "version": "1.2"},
			"result":    horizonsResult,
		})
	}))
	defer srv.Close()

	r := NewResolver(NewHorizonsEphemeris(srv.URL, time.Second), time.Second, nil, nil)
	st := r.State(context.Background(), epoch)
	if st.Fallback {
		t.Fatalf("unexpected fallback: %s", st.Err)
	}
	if st.Source != SourceHorizons {
		t.Fatalf("source %s", st.Source)
	}
	if st.Distance < 356000 || st.Distance > 407000 {
		t.Fatalf("distance %f", st.Distance)
	}
}

func TestHorizonsFallback(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		},
		"api error": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"no ephemeris for target"}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		},
		"slow": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	} {
		srv := httptest.NewServer(handler)
		r := NewResolver(NewHorizonsEphemeris(srv.URL, time.Second), 50*time.Millisecond, nil, nil)
		st := r.State(context.Background(), refEpoch)
		srv.Close()
		if !st.Fallback || !errors.Is(st.Err, ErrEphemerisUnavailable) {
			t.Fatalf("%s: expected a fallback, got %+v", name, st)
		}
		if !vectorsEqual(st.Position, CircularState(refEpoch).Position) {
			t.Fatalf("%s: fallback should use the circular model", name)
		}
	}
}

func TestHorizonsURL(t *testing.T) {
	h := NewHorizonsEphemeris("", 0)
	if h.baseURL != DefaultHorizonsURL || h.httpClient.Timeout != DefaultLookupTimeout {
		t.Fatalf("unexpected defaults %s %s", h.baseURL, h.httpClient.Timeout)
	}
}
