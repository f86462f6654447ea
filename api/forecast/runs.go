package forecast

import (
	"net/http"
	"strconv"

	"github.com/meterwise/hotspot/infra/runlog"
)

// NewRunsHandler exposes training-run history via GET /api/runs[?limit=N].
func NewRunsHandler(store runlog.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := runlog.Query{Limit: 50}
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		recs, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []runlog.RunRecord{}
		}
		writeJSON(w, recs)
	})
}
