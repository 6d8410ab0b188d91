package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/tutor"
)

func TestVoicesHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VoicesHandler{Catalog: tutor.NewCatalog()}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/voices", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Voices []tutor.Voice `json:"voices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Voices) == 0 {
		t.Fatal("expected at least one voice")
	}
	for _, v := range body.Voices {
		if v.ID == "" || v.Name == "" {
			t.Fatalf("voice missing fields: %+v", v)
		}
	}
}

func TestCoursesHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	CoursesHandler{Directory: tutor.NewCatalog()}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/courses", nil))

	var body struct {
		Courses []tutor.Course `json:"courses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Courses) == 0 {
		t.Fatal("expected seeded courses")
	}
}

func TestCourseHandler(t *testing.T) {
	cat := tutor.NewCatalog()
	wantID := cat.Courses()[0].ID

	req := httptest.NewRequest(http.MethodGet, "/v1/courses/"+wantID, nil)
	req.SetPathValue("id", wantID)
	rec := httptest.NewRecorder()
	CourseHandler{Directory: cat}.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var course tutor.Course
	if err := json.Unmarshal(rec.Body.Bytes(), &course); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if course.ID != wantID {
		t.Fatalf("course id = %q, want %q", course.ID, wantID)
	}
}

func TestCourseHandler_NotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/courses/nope", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	CourseHandler{Directory: tutor.NewCatalog()}.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestOutlineHandler(t *testing.T) {
	cat := tutor.NewCatalog()
	wantID := cat.Courses()[0].ID

	req := httptest.NewRequest(http.MethodGet, "/v1/courses/"+wantID+"/outline", nil)
	req.SetPathValue("id", wantID)
	rec := httptest.NewRecorder()
	OutlineHandler{Outlines: cat}.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		CourseID string          `json:"course_id"`
		Outline  []tutor.Section `json:"outline"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.CourseID != wantID || len(body.Outline) == 0 {
		t.Fatalf("body = %+v", body)
	}
}

func TestOutlineHandler_NotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/courses/nope/outline", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	OutlineHandler{Outlines: tutor.NewCatalog()}.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
