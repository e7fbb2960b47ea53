package testutil

import (
	"net/http"
	"os"
	"testing"
)

func TestServeRequest(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := ServeRequest(t, h, "/anything")
	AssertStatusCode(t, rec.Code, http.StatusTeapot)
}

func TestWriteTempFile(t *testing.T) {
	path := WriteTempFile(t, "sample.json", `{"dt": 0.05}`)
	data, err := os.ReadFile(path)
	AssertNoError(t, err)
	if string(data) != `{"dt": 0.05}` {
		t.Errorf("contents = %q", data)
	}
}
