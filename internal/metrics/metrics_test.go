package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 204: "2xx", 302: "3xx", 401: "4xx", 500: "5xx", 101: "1xx"}
	for code, want := range cases {
		if got := StatusClass(code); got != want {
			t.Errorf("StatusClass(%d) = %s, want %s", code, got, want)
		}
	}
}

func TestLoginCounter(t *testing.T) {
	before := testutil.ToFloat64(LoginAttemptsTotal.WithLabelValues("success"))
	LoginAttemptsTotal.WithLabelValues("success").Inc()
	if got := testutil.ToFloat64(LoginAttemptsTotal.WithLabelValues("success")); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}
