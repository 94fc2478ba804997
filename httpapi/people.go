package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/schoollibrary/circulation/features/command/openclassgroup"
	"github.com/schoollibrary/circulation/features/command/registerborrower"
	"github.com/schoollibrary/circulation/library"
)

// RegisterStudentRequest is the body of POST /api/students.
type RegisterStudentRequest struct {
	ID                 string `json:"id" validate:"omitempty,uuid"`
	Name               string `json:"name" validate:"required"`
	RegistrationNumber string `json:"registration_number" validate:"required"`
	ClassGroupID       string `json:"class_group_id" validate:"omitempty,uuid"`
}

// RegisterTeacherRequest is the body of POST /api/teachers.
type RegisterTeacherRequest struct {
	ID   string `json:"id" validate:"omitempty,uuid"`
	Name string `json:"name" validate:"required"`
}

// OpenClassGroupRequest is the body of POST /api/classes.
type OpenClassGroupRequest struct {
	ID   string `json:"id" validate:"omitempty,uuid"`
	Name string `json:"name" validate:"required"`
}

func (s *Server) registerStudent(w http.ResponseWriter, r *http.Request) {
	var request RegisterStudentRequest
	if err := decodeBody(r, s.validate, &request); err != nil {
		writeError(w, err)
		return
	}

	var classGroupID *uuid.UUID
	if request.ClassGroupID != "" {
		id := uuid.MustParse(request.ClassGroupID)
		classGroupID = &id
	}

	command := registerborrower.BuildStudentCommand(
		s.idOrNew(request.ID), request.Name, request.RegistrationNumber, classGroupID, s.now(),
	)

	s.registerBorrower(w, r, command)
}

func (s *Server) registerTeacher(w http.ResponseWriter, r *http.Request) {
	var request RegisterTeacherRequest
	if err := decodeBody(r, s.validate, &request); err != nil {
		writeError(w, err)
		return
	}

	s.registerBorrower(w, r, registerborrower.BuildTeacherCommand(s.idOrNew(request.ID), request.Name, s.now()))
}

func (s *Server) registerBorrower(w http.ResponseWriter, r *http.Request, command registerborrower.Command) {
	borrower, result, err := s.handlers.RegisterBorrower.Handle(r.Context(), command)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, created(result), borrower)
}

func (s *Server) openClassGroup(w http.ResponseWriter, r *http.Request) {
	var request OpenClassGroupRequest
	if err := decodeBody(r, s.validate, &request); err != nil {
		writeError(w, err)
		return
	}

	command := openclassgroup.BuildCommand(s.idOrNew(request.ID), request.Name, s.now())

	classGroup, result, err := s.handlers.OpenClassGroup.Handle(r.Context(), command)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, created(result), classGroup)
}

func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudents(library.WithEventualConsistency(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, students)
}

func (s *Server) listTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := s.store.ListTeachers(library.WithEventualConsistency(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, teachers)
}

func (s *Server) listClassGroups(w http.ResponseWriter, r *http.Request) {
	classGroups, err := s.store.ListClassGroups(library.WithEventualConsistency(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, classGroups)
}
