package dto

import (
	"io"
	"time"

	"github.com/noah-isme/edustream-api/internal/models"
)

// CourseInput carries create and update fields. Nil fields are left unchanged on update.
type CourseInput struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	Category     *string         `json:"category"`
	Difficulty   *string         `json:"difficulty"`
	Duration     *int            `json:"duration"`
	Price        *float64        `json:"price"`
	VideoURL     *string         `json:"videoUrl"`
	Materials    []string        `json:"materials"`
	Lessons      []models.Lesson `json:"lessons"`
	Requirements []string        `json:"requirements"`
	Tags         []string        `json:"tags"`
}

// Upload is a file received with a course form. The handler owns closing Body.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CourseQuery holds catalog listing parameters.
type CourseQuery struct {
	Category      string
	Difficulty    string
	Search        string
	SortBy        string
	Page          int
	Limit         int
	IncludeDrafts bool
	Owner         string
}

// PublicLesson omits the video URL of a lesson.
type PublicLesson struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Duration    int    `json:"duration"`
	Order       int    `json:"order"`
	Description string `json:"description,omitempty"`
}

// Instructor summarises the course author.
type Instructor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// PublicCourse is the catalog view shown to anonymous visitors and learners.
type PublicCourse struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Instructor    Instructor     `json:"instructor"`
	Category      string         `json:"category"`
	Difficulty    string         `json:"difficulty"`
	Duration      int            `json:"duration"`
	Thumbnail     string         `json:"thumbnail"`
	Materials     []string       `json:"materials"`
	Lessons       []PublicLesson `json:"lessons"`
	Requirements  []string       `json:"requirements"`
	Tags          []string       `json:"tags"`
	Rating        float64        `json:"rating"`
	RatingCount   int            `json:"ratingCount"`
	EnrolledCount int            `json:"enrolledCount"`
	Price         float64        `json:"price"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// CourseView is the full management view including drafts and lesson URLs.
type CourseView struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Instructor    Instructor      `json:"instructor"`
	Category      string          `json:"category"`
	Difficulty    string          `json:"difficulty"`
	Duration      int             `json:"duration"`
	Thumbnail     string          `json:"thumbnail"`
	VideoURL      string          `json:"videoUrl"`
	Materials     []string        `json:"materials"`
	Lessons       []models.Lesson `json:"lessons"`
	Requirements  []string        `json:"requirements"`
	Tags          []string        `json:"tags"`
	Rating        float64         `json:"rating"`
	RatingCount   int             `json:"ratingCount"`
	EnrolledCount int             `json:"enrolledCount"`
	Price         float64         `json:"price"`
	IsPublished   bool            `json:"isPublished"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewPublicCourse builds the catalog view. thumbnail is the resolved URL of the stored key.
func NewPublicCourse(c *models.Course, thumbnail string) PublicCourse {
	lessons := make([]PublicLesson, 0, len(c.Lessons))
	for _, l := range c.Lessons.Sorted() {
		lessons = append(lessons, PublicLesson{ID: l.ID, Title: l.Title, Duration: l.Duration, Order: l.Order, Description: l.Description})
	}
	return PublicCourse{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Instructor:    Instructor{ID: c.InstructorID, Name: c.InstructorName, Avatar: c.InstructorAvatar},
		Category:      c.Category,
		Difficulty:    string(c.Difficulty),
		Duration:      c.Duration,
		Thumbnail:     thumbnail,
		Materials:     nonNil(c.Materials),
		Lessons:       lessons,
		Requirements:  nonNil(c.Requirements),
		Tags:          nonNil(c.Tags),
		Rating:        c.Rating,
		RatingCount:   c.RatingCount,
		EnrolledCount: c.EnrolledCount,
		Price:         c.Price,
		CreatedAt:     c.CreatedAt,
	}
}

// NewCourseView builds the management view.
func NewCourseView(c *models.Course, thumbnail string) CourseView {
	lessons := c.Lessons.Sorted()
	if lessons == nil {
		lessons = models.Lessons{}
	}
	return CourseView{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Instructor:    Instructor{ID: c.InstructorID, Name: c.InstructorName, Avatar: c.InstructorAvatar},
		Category:      c.Category,
		Difficulty:    string(c.Difficulty),
		Duration:      c.Duration,
		Thumbnail:     thumbnail,
		VideoURL:      c.VideoURL,
		Materials:     nonNil(c.Materials),
		Lessons:       lessons,
		Requirements:  nonNil(c.Requirements),
		Tags:          nonNil(c.Tags),
		Rating:        c.Rating,
		RatingCount:   c.RatingCount,
		EnrolledCount: c.EnrolledCount,
		Price:         c.Price,
		IsPublished:   c.IsPublished,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// EnrolledCourseView is one entry of the learner's enrollment list.
type EnrolledCourseView struct {
	EnrolledAt time.Time          `json:"enrolledAt"`
	Course     EnrolledCourseCard `json:"course"`
}

// EnrolledCourseCard summarises an enrolled course.
type EnrolledCourseCard struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Thumbnail  string `json:"thumbnail"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Duration   int    `json:"duration"`
	Instructor string `json:"instructor"`
}

// EnrollResult reports the outcome of an enroll request.
type EnrollResult struct {
	Created bool   `json:"created"`
	Message string `json:"message"`
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
