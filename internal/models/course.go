package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
)

// Difficulty grades course content.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether the difficulty is known.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Lesson is an ordered unit of a course.
type Lesson struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	VideoURL    string   `json:"videoUrl"`
	Duration    int      `json:"duration"`
	Order       int      `json:"order"`
	Description string   `json:"description,omitempty"`
	Resources   []string `json:"resources,omitempty"`
}

// Lessons is stored as a JSONB array.
type Lessons []Lesson

// Sorted returns a copy ordered by Order.
func (l Lessons) Sorted() Lessons {
	out := make(Lessons, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Value implements driver.Valuer.
func (l Lessons) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *Lessons) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = Lessons{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported lessons type %T", src)
	}
	var out Lessons
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// Course represents a catalog entry.
type Course struct {
	ID               string         `db:"id" json:"id"`
	Title            string         `db:"title" json:"title"`
	Description      string         `db:"description" json:"description"`
	InstructorID     string         `db:"instructor_id" json:"instructorId"`
	InstructorName   string         `db:"instructor_name" json:"instructorName"`
	InstructorAvatar string         `db:"instructor_avatar" json:"instructorAvatar"`
	Category         string         `db:"category" json:"category"`
	Difficulty       Difficulty     `db:"difficulty" json:"difficulty"`
	Duration         int            `db:"duration" json:"duration"`
	ThumbnailKey     string         `db:"thumbnail_key" json:"-"`
	VideoURL         string         `db:"video_url" json:"videoUrl"`
	Materials        pq.StringArray `db:"materials" json:"materials"`
	Lessons          Lessons        `db:"lessons" json:"lessons"`
	Requirements     pq.StringArray `db:"requirements" json:"requirements"`
	Tags             pq.StringArray `db:"tags" json:"tags"`
	Rating           float64        `db:"rating" json:"rating"`
	RatingCount      int            `db:"rating_count" json:"ratingCount"`
	EnrolledCount    int            `db:"enrolled_count" json:"enrolledCount"`
	Price            float64        `db:"price" json:"price"`
	IsPublished      bool           `db:"is_published" json:"isPublished"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// CourseSort enumerates catalog orderings.
type CourseSort string

const (
	SortRecent  CourseSort = "recent"
	SortRating  CourseSort = "rating"
	SortPopular CourseSort = "popular"
)

// CourseFilter narrows catalog listings.
type CourseFilter struct {
	Category      string
	Difficulty    Difficulty
	Search        string
	SortBy        CourseSort
	PublishedOnly bool
	InstructorID  string
	Page          int
	PageSize      int
}
