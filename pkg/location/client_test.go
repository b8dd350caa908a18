package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

type rewriteRoundTripper struct{ base *url.URL }

func (r rewriteRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	c := new(http.Request)
	*c = *req
	u := *req.URL
	c.URL = &u
	c.URL.Scheme = r.base.Scheme
	c.URL.Host = r.base.Host
	c.Host = r.base.Host
	return http.DefaultTransport.RoundTrip(c)
}

func rewritingClient(serverURL string) *http.Client {
	u, _ := url.Parse(serverURL)
	return &http.Client{Transport: rewriteRoundTripper{base: u}, Timeout: 2 * time.Second}
}

func TestMapboxClient_ReverseGeocode(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     string
		wantErr  error
		wantCode int
	}{
		{
			name:   "first feature wins",
			status: http.StatusOK,
			body:   `{"type":"FeatureCollection","features":[{"place_name":"Blue Bottle Coffee, Oakland"},{"place_name":"Oakland"}]}`,
			want:   "Blue Bottle Coffee, Oakland",
		},
		{
			name:    "no features",
			status:  http.StatusOK,
			body:    `{"type":"FeatureCollection","features":[]}`,
			wantErr: ErrNoResult,
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"message":"Not Authorized - Invalid Token"}`,
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotToken string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotToken = r.URL.Query().Get("access_token")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewMapboxClient("tok", WithBaseURL(srv.URL))
			got, err := c.ReverseGeocode(context.Background(), 37.8, -122.27)

			if gotPath != "/geocoding/v5/mapbox.places/-122.27,37.8.json" {
				t.Errorf("path = %q", gotPath)
			}
			if gotToken != "tok" {
				t.Errorf("access_token = %q", gotToken)
			}

			switch {
			case tt.wantCode != 0:
				var se *StatusError
				if !errors.As(err, &se) || se.StatusCode != tt.wantCode {
					t.Fatalf("err = %v; want StatusError %d", err, tt.wantCode)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v; want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %q; want %q", got, tt.want)
				}
			}
		})
	}
}

func TestNominatimClient_ReverseGeocode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reverse", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "jsonv2" {
			t.Errorf("format = %q", q.Get("format"))
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing User-Agent")
		}
		switch q.Get("lat") {
		case "48.8606":
			_, _ = w.Write([]byte(`{"place_id":1,"name":"Louvre","display_name":"Louvre, Paris, France"}`))
		case "0":
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewNominatimClient(WithHTTPClient(rewritingClient(srv.URL)))
	ctx := context.Background()

	got, err := c.ReverseGeocode(ctx, 48.8606, 2.3376)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Louvre, Paris, France" {
		t.Errorf("got %q", got)
	}

	if _, err := c.ReverseGeocode(ctx, 0, 0); !errors.Is(err, ErrNoResult) {
		t.Errorf("err = %v; want ErrNoResult", err)
	}

	_, err = c.ReverseGeocode(ctx, 10, 10)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("err = %v; want 429 StatusError", err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewNominatimClient(WithBaseURL(srv.URL))
	if _, err := c.ReverseGeocode(ctx, 1, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v; want deadline exceeded", err)
	}
}

func TestMapboxClient_TransportErrorOmitsToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c := NewMapboxClient("pk.SECRET123", WithBaseURL(baseURL))
	_, err := c.ReverseGeocode(context.Background(), 40, -73)
	if err == nil {
		t.Fatal("expected an error from a closed server")
	}
	if strings.Contains(err.Error(), "SECRET123") || strings.Contains(err.Error(), "access_token") {
		t.Errorf("error quotes the request URL: %v", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		t.Errorf("error still wraps *url.Error: %v", err)
	}
}
