package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/apierror"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/tutor"
)

// CoursesHandler lists the course catalog.
type CoursesHandler struct {
	Directory tutor.CourseDirectory
}

func (h CoursesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type coursesResp struct {
		Courses []tutor.Course `json:"courses"`
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(coursesResp{Courses: h.Directory.Courses()})
}

// CourseHandler serves one course by id.
type CourseHandler struct {
	Directory tutor.CourseDirectory
}

func (h CourseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	course, ok := h.Directory.Course(r.PathValue("id"))
	if !ok {
		writeError(w, r, apierror.CodeNotFound, "course not found")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(course)
}

// OutlineHandler serves the section outline of one course.
type OutlineHandler struct {
	Outlines tutor.OutlineStore
}

func (h OutlineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	outline, ok := h.Outlines.Outline(r.PathValue("id"))
	if !ok {
		writeError(w, r, apierror.CodeNotFound, "course not found")
		return
	}
	type outlineResp struct {
		CourseID string          `json:"course_id"`
		Outline  []tutor.Section `json:"outline"`
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(outlineResp{CourseID: r.PathValue("id"), Outline: outline})
}
