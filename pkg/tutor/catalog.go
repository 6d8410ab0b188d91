// Package tutor holds the course, outline and voice catalog plus the persona
// prompt used to pin the tutoring system instruction.
package tutor

import "strings"

// Voice is a selectable tutor voice.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Section is one unit of a course outline. Context carries the study notes
// handed to the persona when the student is working through the section.
type Section struct {
	Title   string `json:"title"`
	Context string `json:"context,omitempty"`
}

// Course groups an outline of sections under a topic.
type Course struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Topic   string    `json:"topic"`
	Outline []Section `json:"outline,omitempty"`
}

// CourseDirectory is the read surface handlers consume for course lookup.
type CourseDirectory interface {
	Courses() []Course
	Course(id string) (Course, bool)
}

// OutlineStore serves section outlines for a course.
type OutlineStore interface {
	Outline(courseID string) ([]Section, bool)
}

// Catalog is the bundled in-memory directory: a handful of seeded courses and
// the voice roster. Read-only after construction.
type Catalog struct {
	courses []Course
	byID    map[string]Course
	voices  []Voice
}

// NewCatalog builds the seeded catalog.
func NewCatalog() *Catalog {
	c := &Catalog{
		courses: seedCourses(),
		voices:  seedVoices(),
		byID:    make(map[string]Course),
	}
	for _, course := range c.courses {
		c.byID[course.ID] = course
	}
	return c
}

// Courses lists all courses, outlines included.
func (c *Catalog) Courses() []Course {
	out := make([]Course, len(c.courses))
	copy(out, c.courses)
	return out
}

// Course looks up one course by id.
func (c *Catalog) Course(id string) (Course, bool) {
	course, ok := c.byID[strings.TrimSpace(id)]
	return course, ok
}

// Outline returns the sections of a course.
func (c *Catalog) Outline(courseID string) ([]Section, bool) {
	course, ok := c.Course(courseID)
	if !ok {
		return nil, false
	}
	out := make([]Section, len(course.Outline))
	copy(out, course.Outline)
	return out, true
}

// Voices lists the selectable tutor voices.
func (c *Catalog) Voices() []Voice {
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// VoiceByID looks up a voice; ok is false for unknown ids.
func (c *Catalog) VoiceByID(id string) (Voice, bool) {
	id = strings.TrimSpace(id)
	for _, v := range c.voices {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}

// DefaultVoice is the voice used when the client picks none.
func (c *Catalog) DefaultVoice() Voice {
	return c.voices[0]
}

func seedVoices() []Voice {
	return []Voice{
		{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Description: "Warm, clear, unhurried"},
		{ID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Description: "Deep, steady, matter-of-fact"},
		{ID: "ErXwobaYiN019PkySvjV", Name: "Antoni", Description: "Bright, energetic, upbeat"},
		{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah", Description: "Soft, reassuring, patient"},
	}
}

func seedCourses() []Course {
	return []Course{
		{
			ID:    "calculus-1",
			Title: "Calculus I",
			Topic: "Calculus",
			Outline: []Section{
				{Title: "Limits", Context: "A limit describes the value f(x) approaches as x approaches a point. Cover one-sided limits, limits at infinity, and why division by zero is not the same as a limit failing to exist."},
				{Title: "Derivatives", Context: "The derivative is the limit of the difference quotient. Cover the power rule, product rule, chain rule, and the derivative as instantaneous rate of change."},
				{Title: "Integrals", Context: "The definite integral as a limit of Riemann sums. Cover antiderivatives, the fundamental theorem of calculus, and basic substitution."},
			},
		},
		{
			ID:    "linear-algebra",
			Title: "Linear Algebra",
			Topic: "Linear Algebra",
			Outline: []Section{
				{Title: "Vectors and Spaces", Context: "Vectors, linear combinations, span, and linear independence. Build geometric intuition in two and three dimensions before generalizing."},
				{Title: "Matrix Operations", Context: "Matrix multiplication as composition of linear maps. Cover identity, inverse, and transpose, and when multiplication commutes."},
				{Title: "Eigenvalues", Context: "Eigenvectors as directions a transformation only stretches. Cover the characteristic polynomial and diagonalization."},
			},
		},
		{
			ID:    "mechanics",
			Title: "Classical Mechanics",
			Topic: "Physics",
			Outline: []Section{
				{Title: "Kinematics", Context: "Position, velocity, and acceleration as derivatives. Cover uniform acceleration and projectile motion."},
				{Title: "Newton's Laws", Context: "The three laws, free-body diagrams, and friction. Stress that F=ma relates net force to acceleration, not velocity."},
				{Title: "Energy", Context: "Work, kinetic and potential energy, and conservation. Cover when mechanical energy is conserved and when it is not."},
			},
		},
	}
}
