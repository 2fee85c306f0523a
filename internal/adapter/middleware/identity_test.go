package middleware

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestIdentity(t *testing.T) {
	e := echo.New()
	e.Use(Identity())
	e.GET("/whoami", func(c echo.Context) error {
		owner, err := SessionFrom(c).Owner()
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, owner)
	})

	cases := []struct {
		owner string
		code  int
		body  string
	}{
		{"  alice@example.com ", http.StatusOK, "alice@example.com"},
		{"", http.StatusUnauthorized, ""},
		{"has space", http.StatusUnauthorized, ""},
		{"a:b", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		hdr := map[string]string{}
		if tc.owner != "" {
			hdr[HeaderOwnerID] = tc.owner
		}
		rec := doReq(t, e, http.MethodGet, "/whoami", nil, hdr)
		if rec.Code != tc.code {
			t.Fatalf("owner %q => want %d, got %d", tc.owner, tc.code, rec.Code)
		}
		if tc.body != "" && rec.Body.String() != tc.body {
			t.Fatalf("owner %q => body %q", tc.owner, rec.Body.String())
		}
	}
}

func TestSessionFrom_Anonymous(t *testing.T) {
	c := echo.New().NewContext(nil, nil)
	if _, err := SessionFrom(c).Owner(); err == nil {
		t.Fatal("context without Identity must be anonymous")
	}
}
