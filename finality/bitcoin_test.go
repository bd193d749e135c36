package finality_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/solbridge-labs/solbridge/finality"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func Test_BitcoinVerifier_Verify(t *testing.T) {
	tests := []struct {
		name         string
		txResponse   string
		txStatusCode int
		tipHeight    string
		mockError    error
		wantOK       bool
		wantFinality finality.Level
		wantPending  bool
		wantErr      bool
	}{
		{
			name:         "six confirmations finalized",
			txResponse:   `{"txid":"abc","status":{"confirmed":true,"block_height":100}}`,
			txStatusCode: http.StatusOK,
			tipHeight:    "105",
			wantOK:       true,
			wantFinality: finality.LevelFinalized,
		},
		{
			name:         "one confirmation confirmed",
			txResponse:   `{"txid":"abc","status":{"confirmed":true,"block_height":100}}`,
			txStatusCode: http.StatusOK,
			tipHeight:    "100",
			wantOK:       true,
			wantFinality: finality.LevelConfirmed,
		},
		{
			name:         "unconfirmed is pending",
			txResponse:   `{"txid":"abc","status":{"confirmed":false}}`,
			txStatusCode: http.StatusOK,
			wantPending:  true,
		},
		{
			name:         "unknown transaction is pending",
			txResponse:   "Transaction not found",
			txStatusCode: http.StatusNotFound,
			wantPending:  true,
		},
		{
			name:      "HTTP error",
			mockError: errors.New("connection refused"),
			wantErr:   true,
		},
		{
			name:         "malformed response",
			txResponse:   "{invalid",
			txStatusCode: http.StatusOK,
			wantErr:      true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			verifier := finality.NewBitcoinVerifier("https://blockstream.info/api")
			verifier.HTTPClient.Transport = roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				if tc.mockError != nil {
					return nil, tc.mockError
				}
				if strings.HasSuffix(req.URL.Path, "/blocks/tip/height") {
					return jsonResponse(http.StatusOK, tc.tipHeight), nil
				}
				if !strings.Contains(req.URL.Path, "/tx/abc") {
					return nil, fmt.Errorf("unexpected URL: %s", req.URL.String())
				}
				return jsonResponse(tc.txStatusCode, tc.txResponse), nil
			})

			result, err := verifier.Verify(context.Background(), "abc")

			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.OK != tc.wantOK {
				t.Errorf("expected OK %v, got %v", tc.wantOK, result.OK)
			}
			if tc.wantOK && result.Finality != tc.wantFinality {
				t.Errorf("expected finality %s, got %s", tc.wantFinality, result.Finality)
			}
			if tc.wantPending && (result.OK || result.Reason != "") {
				t.Errorf("expected pending result, got %+v", result)
			}
		})
	}
}
