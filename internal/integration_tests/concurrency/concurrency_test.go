package integration_tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/burstplan/internal/integration_tests/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrency_IndependentTasksRunInParallel(t *testing.T) {
	// --- Arrange ---
	const delay = 200 * time.Millisecond
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(delay)
		_, _ = fmt.Fprintf(w, "page %s", r.URL.Path)
	}))
	t.Cleanup(srv.Close)

	plan := fmt.Sprintf(`1. http_request("%[1]s/a")
2. http_request("%[1]s/b")
3. http_request("%[1]s/c")
4. echo(${1}, ${2}, ${3})
5. join()`, srv.URL)

	hcl := `
engine {
  workers = 4
}

tool "http_request" {}
tool "echo" {}
`

	// --- Act ---
	start := time.Now()
	res := harness.Run(t, map[string]string{"burstplan.hcl": hcl, "rounds.plan": plan}, nil, "fetch three pages")
	elapsed := time.Since(start)

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.EqualValues(t, 3, peak.Load(), "the three requests overlap")
	assert.Less(t, elapsed, 3*delay, "parallel requests take about one delay")

	outcomes := res.Session.Rounds[0].Outcomes
	require.Len(t, outcomes, 5)
	echo := outcomes[3]
	for _, o := range outcomes[:3] {
		assert.False(t, echo.Started.Before(o.Finished), "task 4 waits for task %d", o.ID)
	}
	assert.Contains(t, res.Session.Answer, "page /c")
}

func TestConcurrency_SingleWorkerSerializes(t *testing.T) {
	// --- Arrange ---
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	plan := fmt.Sprintf("1. http_request(%[1]q)\n2. http_request(%[1]q)\n3. join()", srv.URL)

	// --- Act ---
	res := harness.Run(t, map[string]string{
		"burstplan.hcl": "engine {\n  workers = 1\n}\n\ntool \"http_request\" {}\n",
		"rounds.plan":   plan,
	}, nil, "fetch twice")

	// --- Assert ---
	require.NoError(t, res.Err)
	assert.EqualValues(t, 1, peak.Load())
}
