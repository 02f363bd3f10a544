package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMyMemory_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "こんにちは", r.URL.Query().Get("q"))
		assert.Equal(t, "ja|en", r.URL.Query().Get("langpair"))
		assert.Equal(t, "", r.URL.Query().Get("de"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responseData":{"translatedText":"Hello","match":1},"responseStatus":200}`))
	}))
	defer srv.Close()

	m := NewMyMemory(WithEndpoint(srv.URL))
	out, err := m.Translate(context.Background(), "こんにちは", DefaultLangPair)
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
}

func TestMyMemory_Email(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "me@example.com", r.URL.Query().Get("de"))
		_, _ = w.Write([]byte(`{"responseData":{"translatedText":"cat"},"responseStatus":"200"}`))
	}))
	defer srv.Close()

	m := NewMyMemory(WithEndpoint(srv.URL), WithEmail("me@example.com"), WithHTTPClient(srv.Client()))
	out, err := m.Translate(context.Background(), "猫", DefaultLangPair)
	require.NoError(t, err)
	assert.Equal(t, "cat", out)
}

func TestMyMemory_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"not found", http.StatusNotFound, `not here`},
		{"malformed body", http.StatusOK, `{"responseData":`},
		{"missing responseData", http.StatusOK, `{"responseStatus":200}`},
		{"empty translation", http.StatusOK, `{"responseData":{"translatedText":"  "}}`},
		{"quota exceeded", http.StatusOK, `{"responseData":{"translatedText":"MYMEMORY WARNING"},"responseStatus":429}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewMyMemory(WithEndpoint(srv.URL)).Translate(context.Background(), "猫", DefaultLangPair)
			assert.Error(t, err)
		})
	}
}

func TestMyMemory_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewMyMemory(WithEndpoint(url)).Translate(context.Background(), "猫", DefaultLangPair)
	assert.Error(t, err)
}

type stubTranslator struct {
	out string
	err error
}

func (s stubTranslator) Translate(ctx context.Context, text string, pair LangPair) (string, error) {
	return s.out, s.err
}

func TestWithFallback(t *testing.T) {
	tests := []struct {
		name string
		next Translator
		want string
	}{
		{"success passes through", stubTranslator{out: "cat"}, "cat"},
		{"error becomes unavailable", stubTranslator{err: errors.New("timeout")}, Unavailable},
		{"blank becomes unavailable", stubTranslator{out: " "}, Unavailable},
		{"nil translator", nil, Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := WithFallback(tt.next, nil).Translate(context.Background(), "猫", DefaultLangPair)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestWithFallback_EndpointDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	out, err := WithFallback(NewMyMemory(WithEndpoint(srv.URL)), nil).Translate(context.Background(), "猫", DefaultLangPair)
	require.NoError(t, err)
	assert.Equal(t, "Translation unavailable", out)
}

func TestParseLangPair(t *testing.T) {
	p, err := ParseLangPair("ja|en")
	require.NoError(t, err)
	assert.Equal(t, DefaultLangPair, p)
	assert.Equal(t, "ja|en", p.String())

	for _, bad := range []string{"", "ja", "|en", "ja|", "jaen"} {
		_, err := ParseLangPair(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
