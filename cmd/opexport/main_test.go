package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanpama/opexport/internal/metrics"
	"github.com/hanpama/opexport/internal/server"
)

const testSDL = `type Query {
  user(id: ID!): User
}

type User {
  id: ID!
  name(format: String): String
}
`

const testIntrospection = `{"__schema": {
  "queryType": {"name": "Query"},
  "types": [
    {"kind": "OBJECT", "name": "Query", "fields": [
      {"name": "user", "args": [
        {"name": "id", "type": {"kind": "NON_NULL", "ofType": {"kind": "SCALAR", "name": "ID"}}}
      ], "type": {"kind": "OBJECT", "name": "User"}}
    ], "interfaces": []},
    {"kind": "OBJECT", "name": "User", "fields": [
      {"name": "id", "args": [], "type": {"kind": "NON_NULL", "ofType": {"kind": "SCALAR", "name": "ID"}}},
      {"name": "name", "args": [
        {"name": "format", "type": {"kind": "SCALAR", "name": "String"}}
      ], "type": {"kind": "SCALAR", "name": "String"}}
    ], "interfaces": []}
  ],
  "directives": []
}}`

const testDoc = `query GetUser($id: ID!) { user(id: $id) { ...UserName } }
fragment UserName on User { id name(format: $format) }
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := runCLI(t, "", "help", "serve")
	require.NoError(t, err)
	require.Contains(t, out, "serve FLAGS")

	out, _, err = runCLI(t, "", "help")
	require.NoError(t, err)
	require.Contains(t, out, "COMMANDS:")

	_, _, err = runCLI(t, "", "help", "nope")
	require.EqualError(t, err, `unknown help topic "nope"`)
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := runCLI(t, "", "frobnicate")
	require.EqualError(t, err, `unknown command "frobnicate"`)
	require.Contains(t, stderr, "USAGE:")

	_, _, err = runCLI(t, "")
	require.EqualError(t, err, "missing command")
}

func TestResolve(t *testing.T) {
	for name, schemaFile := range map[string]string{
		"sdl":           writeFile(t, "schema.graphql", testSDL),
		"introspection": writeFile(t, "schema.json", testIntrospection),
	} {
		t.Run(name, func(t *testing.T) {
			queryFile := writeFile(t, "query.graphql", testDoc)
			varsFile := writeFile(t, "vars.json", `{"id": "7", "format": "short"}`)

			out, _, err := runCLI(t, "", "resolve", "-query", queryFile, "-variables", varsFile, "-schema", schemaFile)
			require.NoError(t, err)

			var res server.Response
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			require.Equal(t, "GetUser", res.DefaultOperation)
			require.Len(t, res.Operations, 2)
			require.Equal(t, "UserName", res.Operations[0].Name)
			require.Equal(t, "GetUser", res.Operations[1].Name)
			require.Equal(t, map[string]any{"id": "7"}, res.Operations[1].Variables)
			require.Equal(t, "String", res.FragmentVariables["UserName"][0].Type)
		})
	}
}

func TestResolveStdin(t *testing.T) {
	out, _, err := runCLI(t, "{ a }", "resolve", "-pretty")
	require.NoError(t, err)
	require.Contains(t, out, "\n  \"operations\": [")
	require.Contains(t, out, `"displayName": "<Unnamed:query>"`)
	require.NotContains(t, out, "fragmentVariables")
}

func TestResolveLogsViolations(t *testing.T) {
	_, stderr, err := runCLI(t, "{ invalid", "resolve")
	require.NoError(t, err)
	require.Contains(t, stderr, "warn")
}

func TestResolveErrors(t *testing.T) {
	_, _, err := runCLI(t, "", "resolve", "-query", filepath.Join(t.TempDir(), "missing.graphql"))
	require.ErrorContains(t, err, "read query")

	bad := writeFile(t, "vars.json", `[1]`)
	_, _, err = runCLI(t, "{ a }", "resolve", "-variables", bad)
	require.ErrorContains(t, err, "decode variables")

	badSchema := writeFile(t, "schema.graphql", `type Query { a: Missing }`)
	_, _, err = runCLI(t, "{ a }", "resolve", "-schema", badSchema)
	require.ErrorContains(t, err, "build schema")

	_, _, err = runCLI(t, "{ a }", "resolve", "-log.level", "loud")
	require.ErrorContains(t, err, "log level")
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "schema", "-schema", writeFile(t, "schema.json", testIntrospection))
	require.NoError(t, err)
	require.Contains(t, out, "type User {")
	require.Contains(t, out, "user(id: ID!): User")

	outFile := filepath.Join(t.TempDir(), "out.graphql")
	_, _, err = runCLI(t, "", "schema", "-schema", writeFile(t, "schema.graphql", testSDL), "-out", outFile)
	require.NoError(t, err)
	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Equal(t, out, string(data))

	_, _, err = runCLI(t, "", "schema")
	require.EqualError(t, err, "-schema is required")
}

func TestLoadServeConfig(t *testing.T) {
	cfg, err := loadServeConfig(nil, map[string]string{})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.Equal(t, 64, cfg.CacheSize)
	require.True(t, cfg.Metrics)
	require.Empty(t, cfg.CORSOrigins)

	environ := map[string]string{
		"OPEXPORT_ADDR":         ":9000",
		"OPEXPORT_CACHE_SIZE":   "8",
		"OPEXPORT_CORS_ORIGINS": "http://a.test,http://b.test",
		"OPEXPORT_TIMEOUT":      "2s",
	}
	cfg, err = loadServeConfig([]string{"-server.addr", ":9100", "-metrics=false"}, environ)
	require.NoError(t, err)
	require.Equal(t, ":9100", cfg.Addr)
	require.Equal(t, 8, cfg.CacheSize)
	require.Equal(t, 2*time.Second, cfg.Timeout)
	require.False(t, cfg.Metrics)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)

	_, err = loadServeConfig(nil, map[string]string{"OPEXPORT_CACHE_SIZE": "lots"})
	require.ErrorContains(t, err, "environment")
}

func TestRouter(t *testing.T) {
	cfg, err := loadServeConfig(nil, map[string]string{})
	require.NoError(t, err)
	r := newRouter(cfg, nil, metrics.New(), zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok\n", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/operations", strings.NewReader(`{"query": "query A { a }"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"name":"A"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: http.NotFoundHandler()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, lis, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}
