package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/middleware"
	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
)

type fakeCourseSrv struct {
	lastQuery     dto.CourseQuery
	lastInput     dto.CourseInput
	lastUpload    []byte
	uploadName    string
	lastActor     *models.JWTClaims
	lastPublished *bool
	getErr        error
}

func (f *fakeCourseSrv) ListPublic(_ context.Context, query dto.CourseQuery) ([]dto.PublicCourse, *models.Pagination, error) {
	f.lastQuery = query
	return []dto.PublicCourse{{ID: "c1"}}, models.NewPagination(1, 10, 1), nil
}

func (f *fakeCourseSrv) ListManaged(_ context.Context, actor *models.JWTClaims, query dto.CourseQuery) ([]dto.CourseView, *models.Pagination, error) {
	f.lastActor = actor
	f.lastQuery = query
	return []dto.CourseView{}, models.NewPagination(1, 20, 0), nil
}

func (f *fakeCourseSrv) GetPublic(context.Context, string) (*dto.PublicCourse, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dto.PublicCourse{ID: "c1"}, nil
}

func (f *fakeCourseSrv) GetManaged(_ context.Context, actor *models.JWTClaims, id string) (*dto.CourseView, error) {
	f.lastActor = actor
	return &dto.CourseView{ID: id}, nil
}

func (f *fakeCourseSrv) Create(_ context.Context, actor *models.JWTClaims, input dto.CourseInput, thumbnail *dto.Upload) (*dto.CourseView, error) {
	f.lastActor = actor
	f.capture(input, thumbnail)
	return &dto.CourseView{ID: "new"}, nil
}

func (f *fakeCourseSrv) Update(_ context.Context, _ *models.JWTClaims, id string, input dto.CourseInput, thumbnail *dto.Upload) (*dto.CourseView, error) {
	f.capture(input, thumbnail)
	return &dto.CourseView{ID: id}, nil
}

func (f *fakeCourseSrv) Delete(context.Context, *models.JWTClaims, string) error {
	return nil
}

func (f *fakeCourseSrv) SetPublished(_ context.Context, _ *models.JWTClaims, id string, published bool) (*dto.CourseView, error) {
	f.lastPublished = &published
	return &dto.CourseView{ID: id, IsPublished: published}, nil
}

func (f *fakeCourseSrv) capture(input dto.CourseInput, thumbnail *dto.Upload) {
	f.lastInput = input
	if thumbnail != nil {
		f.uploadName = thumbnail.Filename
		f.lastUpload, _ = io.ReadAll(thumbnail.Body)
	}
}

func courseRouter(srv *fakeCourseSrv) *gin.Engine {
	h := NewCourseHandler(srv)
	router := newTestRouter()
	staff := middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)
	router.GET("/courses", h.List)
	router.GET("/courses/admin", staff, h.ListManaged)
	router.GET("/courses/:id", h.Get)
	router.POST("/courses", staff, h.Create)
	router.PUT("/courses/:id", staff, h.Update)
	router.DELETE("/courses/:id", staff, h.Delete)
	router.POST("/courses/:id/publish", staff, h.Publish)
	router.POST("/courses/:id/unpublish", staff, h.Unpublish)
	return router
}

func courseForm(t *testing.T, fields map[string]string, thumbnail []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if thumbnail != nil {
		part, err := writer.CreateFormFile("thumbnail", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(thumbnail)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCourseListReadsCatalogQuery(t *testing.T) {
	srv := &fakeCourseSrv{}
	router := courseRouter(srv)

	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/courses?category=Design&difficulty=beginner&search=go&sortBy=rating&page=2&limit=5", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, dto.CourseQuery{Category: "Design", Difficulty: "beginner", Search: "go", SortBy: "rating", Page: 2, Limit: 5}, srv.lastQuery)
	assert.Contains(t, resp.Body.String(), `"pagination":{"page":1,"limit":10,"total":1,"pages":1}`)
}

func TestCourseListPrefersQParam(t *testing.T) {
	srv := &fakeCourseSrv{}
	performRequest(courseRouter(srv), httptest.NewRequest(http.MethodGet, "/courses?q=kubernetes&search=ignored", nil))
	assert.Equal(t, "kubernetes", srv.lastQuery.Search)
}

func TestCourseGetHiddenIsNotFound(t *testing.T) {
	router := courseRouter(&fakeCourseSrv{getErr: appErrors.Clone(appErrors.ErrNotFound, "course not found")})
	resp := performRequest(router, httptest.NewRequest(http.MethodGet, "/courses/draft-1", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCourseListManagedDefaults(t *testing.T) {
	srv := &fakeCourseSrv{}
	router := courseRouter(srv)

	resp := performRequest(router, withRole(httptest.NewRequest(http.MethodGet, "/courses/admin", nil), models.RoleInstructor))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, srv.lastQuery.IncludeDrafts)
	assert.Equal(t, "all", srv.lastQuery.Owner)
	assert.Equal(t, "test-user", srv.lastActor.UserID)

	performRequest(router, withRole(httptest.NewRequest(http.MethodGet, "/courses/admin?includeDrafts=false&owner=me", nil), models.RoleAdmin))
	assert.False(t, srv.lastQuery.IncludeDrafts)
	assert.Equal(t, "me", srv.lastQuery.Owner)
}

func TestCourseManagementForbiddenForStudents(t *testing.T) {
	router := courseRouter(&fakeCourseSrv{})

	resp := performRequest(router, withRole(httptest.NewRequest(http.MethodGet, "/courses/admin", nil), models.RoleStudent))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = performRequest(router, httptest.NewRequest(http.MethodPost, "/courses", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCourseCreateParsesMultipart(t *testing.T) {
	srv := &fakeCourseSrv{}
	router := courseRouter(srv)
	body, contentType := courseForm(t, map[string]string{
		"title":        "Intro to Go",
		"description":  "A practical introduction",
		"category":     "Programming",
		"difficulty":   "beginner",
		"duration":     "90",
		"price":        "19.5",
		"video_url":    "https://cdn.test/intro.mp4",
		"tags":         `["go","backend"]`,
		"materials":    `["slides.pdf"]`,
		"requirements": `[]`,
		"lessons":      `[{"title":"Setup","order":2},{"title":"Hello","order":1}]`,
	}, []byte("png-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/courses", body)
	req.Header.Set("Content-Type", contentType)
	resp := performRequest(router, withRole(req, models.RoleInstructor))

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	in := srv.lastInput
	require.NotNil(t, in.Title)
	assert.Equal(t, "Intro to Go", *in.Title)
	assert.Equal(t, 90, *in.Duration)
	assert.InDelta(t, 19.5, *in.Price, 0.0001)
	assert.Equal(t, "https://cdn.test/intro.mp4", *in.VideoURL)
	assert.Equal(t, []string{"go", "backend"}, in.Tags)
	assert.Equal(t, []string{"slides.pdf"}, in.Materials)
	assert.Len(t, in.Lessons, 2)
	assert.Equal(t, "cover.png", srv.uploadName)
	assert.Equal(t, "png-bytes", string(srv.lastUpload))
}

func TestCourseCreateRejectsMalformedFields(t *testing.T) {
	srv := &fakeCourseSrv{}
	router := courseRouter(srv)
	body, contentType := courseForm(t, map[string]string{
		"title":    "Intro to Go",
		"duration": "ninety",
		"lessons":  `{"title":"not an array"}`,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/courses", body)
	req.Header.Set("Content-Type", contentType)
	resp := performRequest(router, withRole(req, models.RoleAdmin))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "Duration must be greater than 0")
	assert.Contains(t, resp.Body.String(), "lessons must be a JSON array")
	assert.Nil(t, srv.lastInput.Title)
}

func TestCourseUpdateAcceptsJSON(t *testing.T) {
	srv := &fakeCourseSrv{}
	router := courseRouter(srv)

	req := httptest.NewRequest(http.MethodPut, "/courses/c1", bytes.NewBufferString(`{"title":"Renamed","videoUrl":"https://v.test/a.mp4"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, withRole(req, models.RoleInstructor))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Renamed", *srv.lastInput.Title)
	assert.Equal(t, "https://v.test/a.mp4", *srv.lastInput.VideoURL)
	assert.Nil(t, srv.lastInput.Description)
	assert.Empty(t, srv.uploadName)
}

func TestCourseUpdateMultipartLeavesAbsentFieldsNil(t *testing.T) {
	srv := &fakeCourseSrv{}
	router := courseRouter(srv)
	body, contentType := courseForm(t, map[string]string{"videoUrl": "https://v.test/b.mp4"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/courses/c1", body)
	req.Header.Set("Content-Type", contentType)
	resp := performRequest(router, withRole(req, models.RoleInstructor))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Nil(t, srv.lastInput.Title)
	assert.Nil(t, srv.lastInput.Price)
	assert.Equal(t, "https://v.test/b.mp4", *srv.lastInput.VideoURL)
}

func TestCoursePublishToggles(t *testing.T) {
	srv := &fakeCourseSrv{}
	router := courseRouter(srv)

	resp := performRequest(router, withRole(httptest.NewRequest(http.MethodPost, "/courses/c1/publish", nil), models.RoleInstructor))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, *srv.lastPublished)

	resp = performRequest(router, withRole(httptest.NewRequest(http.MethodPost, "/courses/c1/unpublish", nil), models.RoleInstructor))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, *srv.lastPublished)
	assert.Contains(t, resp.Body.String(), `"isPublished":false`)
}

func TestCourseDeleteReportsSuccess(t *testing.T) {
	router := courseRouter(&fakeCourseSrv{})
	resp := performRequest(router, withRole(httptest.NewRequest(http.MethodDelete, "/courses/c1", nil), models.RoleAdmin))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"data":{"success":true}}`, resp.Body.String())
}
