package profiling

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandler(t *testing.T) {
	server := httptest.NewServer(Handler())
	defer server.Close()

	response, err := http.Get(server.URL + "/debug/pprof/")
	if err != nil {
		t.Fatalf("TestHandler: Get: %s", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("TestHandler: expected status %d but got %d", http.StatusOK, response.StatusCode)
	}

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	response, err = client.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("TestHandler: Get: %s", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusSeeOther || response.Header.Get("Location") != "/debug/pprof/" {
		t.Fatalf("TestHandler: expected a redirect to /debug/pprof/ but got %d to %s",
			response.StatusCode, response.Header.Get("Location"))
	}
}
