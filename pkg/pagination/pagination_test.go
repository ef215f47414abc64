package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func parseQuery(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/items?"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	return Parse(c)
}

func TestParse_Defaults(t *testing.T) {
	p := parseQuery(t, "")
	if p.Page != DefaultPage || p.Limit != DefaultLimit || p.Offset != 0 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestParse_ClampsLimit(t *testing.T) {
	p := parseQuery(t, "page=3&limit=500")
	if p.Limit != MaxLimit {
		t.Fatalf("expected limit %d, got %d", MaxLimit, p.Limit)
	}
	if p.Offset != 2*MaxLimit {
		t.Fatalf("expected offset %d, got %d", 2*MaxLimit, p.Offset)
	}
}

func TestParse_InvalidValuesFallBack(t *testing.T) {
	p := parseQuery(t, "page=abc&limit=-4")
	if p.Page != DefaultPage || p.Limit != DefaultLimit {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestParse_Skip(t *testing.T) {
	p := parseQuery(t, "skip=45&limit=10")
	if p.Offset != 45 {
		t.Fatalf("expected offset 45, got %d", p.Offset)
	}
	if p.Page != 5 {
		t.Fatalf("expected page 5, got %d", p.Page)
	}
}

func TestMetaFor(t *testing.T) {
	m := New(2, 10).MetaFor(31)
	if m.TotalPages != 4 || m.Total != 31 || m.Page != 2 {
		t.Fatalf("unexpected meta: %+v", m)
	}
	if New(1, 10).MetaFor(0).TotalPages != 0 {
		t.Fatalf("expected zero pages for empty result")
	}
}

func TestParse_HugePageDoesNotOverflow(t *testing.T) {
	p := parseQuery(t, "page=9223372036854775807&limit=100")
	if p.Offset < 0 || p.Offset > MaxOffset {
		t.Fatalf("offset out of range: %+v", p)
	}
	if p.Page != MaxOffset/100+1 {
		t.Fatalf("expected page clamped to %d, got %d", MaxOffset/100+1, p.Page)
	}
}

func TestParse_HugeSkipIsClamped(t *testing.T) {
	p := parseQuery(t, "skip=9223372036854775807&limit=10")
	if p.Offset != MaxOffset {
		t.Fatalf("expected offset %d, got %d", MaxOffset, p.Offset)
	}
}
