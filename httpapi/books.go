package httpapi

import (
	"net/http"

	"github.com/schoollibrary/circulation/features/command/addbook"
	"github.com/schoollibrary/circulation/features/command/recomputeavailability"
	"github.com/schoollibrary/circulation/features/command/removebook"
	"github.com/schoollibrary/circulation/library"
)

// AddBookRequest is the body of POST /api/books.
type AddBookRequest struct {
	ID              string `json:"id" validate:"omitempty,uuid"`
	Title           string `json:"title" validate:"required"`
	Author          string `json:"author"`
	Publisher       string `json:"publisher"`
	Edition         string `json:"edition"`
	PublicationYear int    `json:"publication_year"`
	TotalCopies     int    `json:"total_copies"`
	ShelfLifeYears  *int   `json:"shelf_life_years"`
	Category        string `json:"category"`
	Grade           string `json:"grade"`
	Stage           string `json:"stage"`
}

// SetCopiesRequest is the body of PUT /api/books/{id}/copies.
type SetCopiesRequest struct {
	TotalCopies *int `json:"total_copies" validate:"required"`
}

func (s *Server) addBook(w http.ResponseWriter, r *http.Request) {
	var request AddBookRequest
	if err := decodeBody(r, s.validate, &request); err != nil {
		writeError(w, err)
		return
	}

	details := addbook.Details{
		Title:           request.Title,
		Author:          request.Author,
		Publisher:       request.Publisher,
		Edition:         request.Edition,
		PublicationYear: request.PublicationYear,
		ShelfLifeYears:  request.ShelfLifeYears,
		Category:        request.Category,
		Grade:           request.Grade,
		Stage:           request.Stage,
	}

	command := addbook.BuildCommand(s.idOrNew(request.ID), details, request.TotalCopies, s.now())

	book, result, err := s.handlers.AddBook.Handle(r.Context(), command)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, created(result), book)
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	books, err := s.store.ListBooks(library.WithEventualConsistency(r.Context()), includeDeleted)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, books)
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := s.store.GetBook(library.WithEventualConsistency(r.Context()), bookID)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, book)
}

// setCopies changes the total copies of a book and recomputes its availability.
func (s *Server) setCopies(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request SetCopiesRequest
	if err = decodeBody(r, s.validate, &request); err != nil {
		writeError(w, err)
		return
	}

	command := recomputeavailability.BuildCommand(bookID, *request.TotalCopies, s.now())

	book, _, err := s.handlers.RecomputeAvailability.Handle(r.Context(), command)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, book)
}

func (s *Server) removeBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, _, err = s.handlers.RemoveBook.Handle(r.Context(), removebook.BuildCommand(bookID, s.now())); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

