package sefaria

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/dgallion1/torahtrack/internal/fetch"
)

func TestRef(t *testing.T) {
	assert.Equal(t, "Exodus.1.1-17", Ref("Exodus", 1, 1, 17))
	assert.Equal(t, "Exodus.1.5", Ref("Exodus", 1, 5, 5))
}

func TestTextList(t *testing.T) {
	var gotPath, gotContext string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContext = r.URL.Query().Get("context")
		w.Write([]byte(`{"ref":"Genesis 1:1-2","he":["בְּרֵאשִׁית בָּרָא","וְהָאָרֶץ הָיְתָה"],"text":["In the beginning","And the earth"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fetch.Options{}, nil)
	p, err := c.Text(context.Background(), "Genesis", 1, 1, 2)

	assert.Equal(t, nil, err)
	assert.Equal(t, "/api/texts/Genesis.1.1-2", gotPath)
	assert.Equal(t, "0", gotContext)
	assert.Equal(t, "Genesis 1:1-2", p.Ref)
	assert.Equal(t, 2, len(p.Hebrew))
	assert.Equal(t, false, p.Single)
}

func TestTextSingleString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ref":"Genesis 1:1","he":"בְּרֵאשִׁית בָּרָא אֱלֹהִים","text":"In the beginning"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fetch.Options{}, nil)
	p, err := c.Text(context.Background(), "Genesis", 1, 1, 1)

	assert.Equal(t, nil, err)
	assert.Equal(t, true, p.Single)
	assert.Equal(t, []string{"בְּרֵאשִׁית בָּרָא אֱלֹהִים"}, p.Hebrew)
}

func TestTextErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Couldn't understand text sections: 'Genesis.99.1-5'."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fetch.Options{}, nil)
	_, err := c.Text(context.Background(), "Genesis", 99, 1, 5)

	var fe *fetch.Error
	assert.Equal(t, true, errors.As(err, &fe))
	assert.Equal(t, false, fetch.IsRetryable(err))
}

func TestTextUnexpectedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ref":"Genesis 1","he":{"unexpected":true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fetch.Options{}, nil)
	_, err := c.Text(context.Background(), "Genesis", 1, 1, 3)
	assert.NotEqual(t, nil, err)
}
