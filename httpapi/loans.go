package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/schoollibrary/circulation/features/command/createloan"
	"github.com/schoollibrary/circulation/features/command/renewloan"
	"github.com/schoollibrary/circulation/features/command/returnloan"
	"github.com/schoollibrary/circulation/features/query/overdueloans"
	"github.com/schoollibrary/circulation/library"
)

// maxDueSoonDays bounds the due-soon window of the overdue view.
const maxDueSoonDays = 365

// CreateLoanRequest is the body of POST /api/loans. LoanID makes retries of the request idempotent.
type CreateLoanRequest struct {
	LoanID       string `json:"loan_id" validate:"omitempty,uuid"`
	BookID       string `json:"book_id" validate:"required,uuid"`
	BorrowerKind string `json:"borrower_kind" validate:"required"`
	BorrowerID   string `json:"borrower_id" validate:"required,uuid"`
}

// HistoryEntry is one lifecycle record of a loan as the API shows it.
type HistoryEntry struct {
	ID         uuid.UUID           `json:"id"`
	EventType  string              `json:"event_type"`
	OccurredAt time.Time           `json:"occurred_at"`
	Payload    jsoniter.RawMessage `json:"payload"`
	Metadata   jsoniter.RawMessage `json:"metadata,omitempty"`
}

func (s *Server) createLoan(w http.ResponseWriter, r *http.Request) {
	var request CreateLoanRequest
	if err := decodeBody(r, s.validate, &request); err != nil {
		writeError(w, err)
		return
	}

	command := createloan.BuildCommand(
		s.idOrNew(request.LoanID),
		uuid.MustParse(request.BookID),
		request.BorrowerKind,
		uuid.MustParse(request.BorrowerID),
		s.now(),
	)

	loan, result, err := s.handlers.CreateLoan.Handle(r.Context(), command)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, created(result), loan)
}

func (s *Server) returnLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	loan, _, err := s.handlers.ReturnLoan.Handle(r.Context(), returnloan.BuildCommand(loanID, s.now()))
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, loan)
}

func (s *Server) renewLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	loan, _, err := s.handlers.RenewLoan.Handle(r.Context(), renewloan.BuildCommand(loanID, s.now()))
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, loan)
}

func (s *Server) getLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	loan, err := s.store.GetLoan(library.WithEventualConsistency(r.Context()), loanID)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, loan)
}

func (s *Server) listLoans(w http.ResponseWriter, r *http.Request) {
	filter, err := loanFilterFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	loans, err := s.store.ListLoans(library.WithEventualConsistency(r.Context()), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, loans)
}

func loanFilterFrom(r *http.Request) (library.LoanFilter, error) {
	query := r.URL.Query()
	builder := library.BuildLoanFilter()

	if raw := query.Get("book_id"); raw != "" {
		bookID, err := uuid.Parse(raw)
		if err != nil {
			return library.LoanFilter{}, badRequest("invalid book_id %q", raw)
		}

		builder = builder.ForBook(bookID)
	}

	borrower, ok, err := borrowerFrom(r)
	if err != nil {
		return library.LoanFilter{}, err
	}

	if ok {
		builder = builder.ForBorrower(borrower)
	}

	switch status := library.LoanStatus(query.Get("status")); status {
	case "":
	case library.LoanActive, library.LoanReturned:
		builder = builder.WithStatus(status)
	default:
		return library.LoanFilter{}, badRequest("status must be active or returned")
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return library.LoanFilter{}, badRequest("invalid limit %q", raw)
		}

		builder = builder.Limit(limit)
	}

	return builder.Finalize(), nil
}

// borrowerFrom reads the optional borrower_kind and borrower_id query parameters, which come in pairs.
func borrowerFrom(r *http.Request) (library.BorrowerRef, bool, error) {
	rawKind, rawID := r.URL.Query().Get("borrower_kind"), r.URL.Query().Get("borrower_id")

	if rawKind == "" && rawID == "" {
		return library.BorrowerRef{}, false, nil
	}

	kind, err := library.ParseBorrowerKind(rawKind)
	if err != nil {
		return library.BorrowerRef{}, false, badRequest("borrower_kind must be student or teacher")
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return library.BorrowerRef{}, false, badRequest("invalid borrower_id %q", rawID)
	}

	return library.BorrowerRef{Kind: kind, ID: id}, true, nil
}

func (s *Server) overdueLoans(w http.ResponseWriter, r *http.Request) {
	var dueSoonWithin time.Duration

	if raw := r.URL.Query().Get("due_soon_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			writeError(w, badRequest("invalid due_soon_days %q", raw))
			return
		}

		if days > maxDueSoonDays {
			writeError(w, badRequest("due_soon_days must be at most %d", maxDueSoonDays))
			return
		}

		dueSoonWithin = time.Duration(days) * 24 * time.Hour
	}

	view, err := s.handlers.OverdueLoans.Handle(r.Context(), overdueloans.BuildQuery(s.now(), dueSoonWithin))
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, view)
}

func (s *Server) loanHistory(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// Rejected attempts to create a loan leave records without a loan, so an unknown id is not a 404.
	records, err := s.store.ListLifecycleRecords(library.WithEventualConsistency(r.Context()), loanID)
	if err != nil {
		writeError(w, err)
		return
	}

	history := make([]HistoryEntry, 0, len(records))
	for _, record := range records {
		history = append(history, HistoryEntry{
			ID:         record.ID,
			EventType:  record.EventType,
			OccurredAt: record.OccurredAt,
			Payload:    record.PayloadJSON,
			Metadata:   record.MetadataJSON,
		})
	}

	_ = writeJSON(w, http.StatusOK, history)
}
