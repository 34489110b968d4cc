package http_request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/specialistvlad/burstplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 100)))
			return
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(r.Method + " ok"))
	}))
	defer srv.Close()

	tool, err := New(testutil.Context(t), registry.Deps{HTTPClient: srv.Client()}, registry.Args{
		"timeout":  cty.StringVal("50ms"),
		"max_body": cty.NumberIntVal(10),
	})
	require.NoError(t, err)
	ctx := testutil.Context(t)

	t.Run("positional url and named method", func(t *testing.T) {
		v, err := tool.Invoke(ctx, registry.Args{"arg0": cty.StringVal(srv.URL), "method": cty.StringVal("post")})
		require.NoError(t, err)
		assert.Equal(t, "POST ok", v.GetAttr("body").AsString())
		assert.True(t, v.GetAttr("status_code").RawEquals(cty.NumberIntVal(418)))
	})

	t.Run("body is truncated", func(t *testing.T) {
		v, err := tool.Invoke(ctx, registry.Args{"url": cty.StringVal(srv.URL + "/big")})
		require.NoError(t, err)
		assert.Len(t, v.GetAttr("body").AsString(), 10)
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := tool.Invoke(ctx, registry.Args{"url": cty.StringVal(srv.URL + "/slow")})
		assert.ErrorContains(t, err, "failed to execute request")
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := tool.Invoke(ctx, registry.Args{})
		assert.ErrorContains(t, err, `missing required argument "url"`)
	})
}

func TestNew_BadTimeout(t *testing.T) {
	_, err := New(testutil.Context(t), registry.Deps{}, registry.Args{"timeout": cty.StringVal("later")})
	assert.Error(t, err)
}
