package hebcal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/dgallion1/torahtrack/internal/fetch"
)

func TestYearFetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"path": r.URL.Path,
			"v":    r.URL.Query().Get("v"),
			"cfg":  r.URL.Query().Get("cfg"),
			"s":    r.URL.Query().Get("s"),
			"year": r.URL.Query().Get("year"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"title": "Hebcal 2014",
			"items": [
				{
					"title": "Parashat Noach",
					"hebrew": "פרשת נח",
					"date": "2014-10-25",
					"category": "parashat",
					"leyning": {
						"1": "Genesis 6:9-6:16",
						"7": "Genesis 11:20-11:32",
						"M": "Genesis 11:29-11:32",
						"torah": "Genesis 6:9-11:32",
						"triennial": {"1": "Genesis 6:9-6:16"}
					}
				},
				{"title": "Rosh Hashana 5775", "date": "2014-09-25", "category": "holiday"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", fetch.Options{}, nil)
	items, err := c.Year(context.Background(), 2014)

	assert.Equal(t, nil, err)
	assert.Equal(t, "/hebcal", gotQuery["path"])
	assert.Equal(t, "1", gotQuery["v"])
	assert.Equal(t, "json", gotQuery["cfg"])
	assert.Equal(t, "on", gotQuery["s"])
	assert.Equal(t, "2014", gotQuery["year"])
	assert.Equal(t, 2, len(items))

	noach := items[0]
	assert.Equal(t, "Parashat Noach", noach.Title)
	assert.Equal(t, "פרשת נח", noach.Hebrew)
	assert.Equal(t, "2014-10-25", noach.Date)
	assert.Equal(t, true, noach.IsWeeklyReading())
	assert.Equal(t, false, items[1].IsWeeklyReading())

	first, ok := noach.Leyning.Aliyah(1)
	assert.Equal(t, true, ok)
	assert.Equal(t, "Genesis 6:9-6:16", first)

	_, ok = noach.Leyning.Aliyah(2)
	assert.Equal(t, false, ok)

	_, ok = noach.Leyning.String("triennial")
	assert.Equal(t, false, ok)

	torah, ok := noach.Leyning.String("torah")
	assert.Equal(t, true, ok)
	assert.Equal(t, "Genesis 6:9-11:32", torah)
}

func TestYearFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad year"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, fetch.Options{}, nil)
	items, err := c.Year(context.Background(), 1)

	assert.NotEqual(t, nil, err)
	assert.Equal(t, 0, len(items))

	var fe *fetch.Error
	assert.Equal(t, true, errors.As(err, &fe))
	assert.Equal(t, http.StatusBadRequest, fe.StatusCode)
}
