package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_SendsQueryAndHeaders(t *testing.T) {
	var gotQuery url.Values
	var gotAgent, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAgent = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("<html>listing</html>"))
	}))
	defer srv.Close()

	client := resty.New().SetHeader("User-Agent", "test-agent")
	tr := NewHTTPTransportWithClient(client, 0)

	body, err := tr.Get(context.Background(), srv.URL+"/buscar/x",
		map[string]string{"Referer": "https://urbania.pe/"},
		url.Values{"page": {"2"}, "priceMin": {"1"}, "currencyId": {"6"}},
	)
	require.NoError(t, err)
	require.Equal(t, "<html>listing</html>", body)
	require.Equal(t, "2", gotQuery.Get("page"))
	require.Equal(t, "1", gotQuery.Get("priceMin"))
	require.Equal(t, "6", gotQuery.Get("currencyId"))
	require.Equal(t, "test-agent", gotAgent)
	require.Equal(t, "https://urbania.pe/", gotReferer)
}

func TestHTTPTransport_Non2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Just a moment..."))
	}))
	defer srv.Close()

	tr := NewHTTPTransportWithClient(resty.New(), 0)

	_, err := tr.Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)

	status, ok := err.(*StatusError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, status.Code)
}
