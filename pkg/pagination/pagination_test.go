package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func parseQuery(query string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/items?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	cases := map[string]Params{
		"":                   {Page: DefaultPage, Limit: DefaultLimit},
		"page=3&limit=10":    {Page: 3, Limit: 10},
		"page=0&limit=0":     {Page: DefaultPage, Limit: DefaultLimit},
		"page=-2&limit=1000": {Page: DefaultPage, Limit: MaxLimit},
		"page=x&limit=y":     {Page: DefaultPage, Limit: DefaultLimit},
	}
	for query, want := range cases {
		if got := parseQuery(query); got != want {
			t.Errorf("Parse(%q) = %+v, expected %+v", query, got, want)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(3, 20); got != 40 {
		t.Fatalf("expected 40, got %d", got)
	}
	if got := Offset(0, 20); got != 0 {
		t.Fatalf("expected page 0 to read as the first page, got %d", got)
	}
}
