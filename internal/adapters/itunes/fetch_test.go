package itunes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Options{
		BaseURL:    baseURL,
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
	}, testLogger())
}

func TestFetchSearchRetryPolicy(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		bodies       []string
		wantAttempts int
		wantRateErr  bool
		wantErr      bool
		wantResults  int
	}{
		{
			name:         "succeeds first try",
			statuses:     []int{http.StatusOK},
			bodies:       []string{`{"resultCount":1,"results":[{"trackId":1,"trackName":"A","artistName":"B"}]}`},
			wantAttempts: 1,
			wantResults:  1,
		},
		{
			name:         "429 short circuits without retry",
			statuses:     []int{http.StatusTooManyRequests, http.StatusOK},
			bodies:       []string{"", `{"resultCount":0,"results":[]}`},
			wantAttempts: 1,
			wantRateErr:  true,
		},
		{
			name:         "403 short circuits without retry",
			statuses:     []int{http.StatusForbidden, http.StatusOK},
			bodies:       []string{"", `{"resultCount":0,"results":[]}`},
			wantAttempts: 1,
			wantRateErr:  true,
		},
		{
			name:         "retries 500 then succeeds",
			statuses:     []int{http.StatusInternalServerError, http.StatusOK},
			bodies:       []string{"", `{"resultCount":0,"results":[]}`},
			wantAttempts: 2,
		},
		{
			name:         "retries malformed json then succeeds",
			statuses:     []int{http.StatusOK, http.StatusOK},
			bodies:       []string{`{"resultCount":`, `{"resultCount":0,"results":[]}`},
			wantAttempts: 2,
		},
		{
			name:         "exhausts retries on persistent 500",
			statuses:     []int{http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError},
			bodies:       []string{"", "", ""},
			wantAttempts: 3,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				i := attempts
				if i >= len(tt.statuses) {
					i = len(tt.statuses) - 1
				}
				attempts++
				w.WriteHeader(tt.statuses[i])
				_, _ = io.WriteString(w, tt.bodies[i])
			}))
			defer ts.Close()

			client := testClient(t, ts.URL)
			resp, err := client.fetchSearch(context.Background(), ts.URL+"/search?term=x")

			if attempts != tt.wantAttempts {
				t.Fatalf("attempts: got %d, want %d", attempts, tt.wantAttempts)
			}
			if tt.wantRateErr {
				if !errors.Is(err, ErrRateLimited) {
					t.Fatalf("expected ErrRateLimited, got %v", err)
				}
				return
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected err=%v, got %v", tt.wantErr, err)
			}
			if err == nil && resp.ResultCount != tt.wantResults {
				t.Fatalf("resultCount: got %d, want %d", resp.ResultCount, tt.wantResults)
			}
		})
	}
}

func TestFetchSearchEmptyBodyIsNoMatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := testClient(t, ts.URL)
	resp, err := client.fetchSearch(context.Background(), ts.URL+"/search?term=x")
	if err != nil {
		t.Fatalf("expected empty body to be a valid no-match, got %v", err)
	}
	if resp.ResultCount != 0 || len(resp.Results) != 0 {
		t.Fatalf("expected zero results, got %+v", resp)
	}
}

func TestFetchSearchCanceledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := testClient(t, ts.URL)
	_, err := client.fetchSearch(ctx, ts.URL+"/search?term=x")
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
