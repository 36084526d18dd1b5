// Package questionbank loads the courses and questions used to seed
// practice sessions from a YAML file.
//
// Example file:
//
//	courses:
//	  - id: python-basics
//	    title: Python basics
//	    questions:
//	      - stem: Write add(a, b) returning the sum.
//	        language: python
//	        tests:
//	          - input: "[1, 2]"
//	            expected: 3
//	          - input: "[-1, 1]"
//	            expected: 0
//	            hidden: true
package questionbank

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/isdmx/gradebox/judge"
	"github.com/isdmx/gradebox/practice"
)

// ErrCourseNotFound is returned for an unknown course id
var ErrCourseNotFound = errors.New("course not found")

// Course is one course in the bank
type Course struct {
	ID        string                  `yaml:"id"`
	Title     string                  `yaml:"title"`
	Questions []practice.QuestionSpec `yaml:"questions"`
}

type file struct {
	Courses []Course `yaml:"courses"`
}

// Bank is an immutable set of courses
type Bank struct {
	courses map[string]Course
}

// Load reads and validates a bank file
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a bank document
func Parse(data []byte) (*Bank, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}

	b := &Bank{courses: make(map[string]Course, len(f.Courses))}
	for i, c := range f.Courses {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("course %d has no id", i)
		}
		if _, dup := b.courses[c.ID]; dup {
			return nil, fmt.Errorf("duplicate course id: %s", c.ID)
		}
		if len(c.Questions) == 0 {
			return nil, fmt.Errorf("course %s has no questions", c.ID)
		}
		for j, q := range c.Questions {
			if strings.TrimSpace(q.Stem) == "" {
				return nil, fmt.Errorf("course %s question %d has no stem", c.ID, j)
			}
			if _, err := judge.ResolveLanguageID(q.Language); err != nil {
				return nil, fmt.Errorf("course %s question %d: %w", c.ID, j, err)
			}
		}
		b.courses[c.ID] = c
	}

	return b, nil
}

// Empty returns a bank with no courses
func Empty() *Bank {
	return &Bank{courses: map[string]Course{}}
}

// Questions returns copies of the question specs for a course
func (b *Bank) Questions(courseID string) ([]practice.QuestionSpec, error) {
	c, ok := b.courses[courseID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	specs := make([]practice.QuestionSpec, len(c.Questions))
	for i, q := range c.Questions {
		specs[i] = q
		specs[i].Tests = judge.CloneTests(q.Tests)
	}
	return specs, nil
}

// CourseIDs returns the course ids in sorted order
func (b *Bank) CourseIDs() []string {
	ids := make([]string, 0, len(b.courses))
	for id := range b.courses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
