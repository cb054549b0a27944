package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/techbridge/internal/assessment"
	"github.com/victornm/techbridge/internal/auth"
	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/event"
	"github.com/victornm/techbridge/internal/learningpath"
	"github.com/victornm/techbridge/internal/study"
	"github.com/victornm/techbridge/internal/user"
)

const defaultBasePath = "/api"

type Config struct {
	Router       gin.IRouter
	BasePath     string
	Verifier     auth.Verifier
	EventBus     *event.Bus
	Assessment   *assessment.Service
	LearningPath *learningpath.Service
	Study        *study.Service
	User         *user.Service
	// Health checks run by GET /healthz, keyed by dependency name.
	Health       map[string]func(ctx context.Context) error
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	as  *assessment.Service
	lps *learningpath.Service
	ss  *study.Service
	us  *user.Service

	health map[string]func(ctx context.Context) error

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		as:     c.Assessment,
		lps:    c.LearningPath,
		ss:     c.Study,
		us:     c.User,
		health: c.Health,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
	}

	// HTTP APIs
	basePath := c.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	c.Router.GET("/", a.Root)
	c.Router.GET("/healthz", a.Healthz)

	g := c.Router.Group(basePath)
	g.POST("/learning-path", a.GenerateLearningPath)
	g.POST("/study-video", a.StudyVideo)

	authed := g.Group("", auth.Middleware(c.Verifier))
	authed.POST("/user/sync", a.SyncUser)
	authed.POST("/assessment/start", a.StartSession)
	authed.POST("/assessment/submit", a.SubmitAnswer)
	authed.GET("/assessment", a.ListAssessments)
	authed.GET("/assessment/:id", a.GetAssessment)

	// Register event handlers
	if a.redis != nil && c.EventBus != nil {
		event.On(c.EventBus, a.PublishAssessmentGraded)
	}

	return a
}

func (a *API) Root(c *gin.Context) {
	c.String(http.StatusOK, "Tech Bridge API is running...")
}

func (a *API) Healthz(c *gin.Context) {
	failed := make(map[string]string)
	for name, check := range a.health {
		if err := check(c.Request.Context()); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if !bind(c, &req) {
		return
	}

	id := identity(c)
	resp, err := a.as.StartSession(c.Request.Context(), assessment.StartSessionRequest{
		UserID: id.Subject,
		Domain: req.Domain,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if resp.Completed {
		c.JSON(http.StatusOK, CourseCompletedResponse{
			Message:      "Course Completed",
			AssessmentID: resp.AssessmentID,
			Level:        resp.Level,
		})
		return
	}

	c.JSON(http.StatusOK, StartSessionResponse{
		AssessmentID: resp.AssessmentID,
		Level:        resp.Level,
		Question:     toQuestion(resp.Question),
		Progress:     resp.Progress,
		Total:        resp.Total,
	})
}

func (a *API) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if !bind(c, &req) {
		return
	}

	id := identity(c)
	resp, err := a.as.SubmitAnswer(c.Request.Context(), assessment.SubmitAnswerRequest{
		UserID:       id.Subject,
		AssessmentID: req.AssessmentID,
		Answer:       req.Answer,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if resp.Finished {
		c.JSON(http.StatusOK, GradedResponse{
			Finished:  true,
			Score:     resp.Score,
			Total:     resp.Total,
			Passed:    resp.Passed,
			NextLevel: resp.NextLevel,
			Feedback:  resp.Feedback,
		})
		return
	}

	q := toQuestion(resp.Question)
	c.JSON(http.StatusOK, NextQuestionResponse{
		Question: &q,
		Progress: resp.Progress,
		Total:    resp.Total,
	})
}

func (a *API) GetAssessment(c *gin.Context) {
	id := identity(c)
	v, err := a.as.GetAssessment(c.Request.Context(), assessment.GetAssessmentRequest{
		UserID:       id.Subject,
		AssessmentID: c.Param("id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAssessment(*v))
}

func (a *API) ListAssessments(c *gin.Context) {
	id := identity(c)
	vs, err := a.as.ListAssessments(c.Request.Context(), assessment.ListAssessmentsRequest{
		UserID: id.Subject,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := ListAssessmentsResponse{Assessments: make([]Assessment, 0, len(vs))}
	for _, v := range vs {
		resp.Assessments = append(resp.Assessments, toAssessment(v))
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) GenerateLearningPath(c *gin.Context) {
	var req LearningPathRequest
	if !bind(c, &req) {
		return
	}

	lp, err := a.lps.Generate(c.Request.Context(), learningpath.GenerateRequest{
		Domain: req.Domain,
		Level:  req.Level,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lp)
}

func (a *API) StudyVideo(c *gin.Context) {
	var req StudyVideoRequest
	if !bind(c, &req) {
		return
	}

	g, err := a.ss.Guide(c.Request.Context(), study.GuideRequest{VideoURL: req.VideoURL})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

func (a *API) SyncUser(c *gin.Context) {
	u, err := a.us.Sync(c.Request.Context(), user.SyncRequest{Identity: *identity(c)})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

// identity is only called behind auth.Middleware.
func identity(c *gin.Context) *domain.Identity {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return &domain.Identity{}
	}
	return id
}
