package httpapi

import (
	"net/http"
	"strconv"

	"github.com/schoollibrary/circulation/features/query/loanreport"
)

func (s *Server) loanReport(w http.ResponseWriter, r *http.Request) {
	months := 0

	if raw := r.URL.Query().Get("months"); raw != "" {
		var err error
		if months, err = strconv.Atoi(raw); err != nil {
			writeError(w, badRequest("invalid months %q", raw))
			return
		}
	}

	report, err := s.handlers.LoanReport.Handle(r.Context(), loanreport.BuildQuery(s.now(), months))
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, report)
}
