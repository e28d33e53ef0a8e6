package api

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/keystone/internal/alert"
	"github.com/zulandar/keystone/internal/evm"
	"github.com/zulandar/keystone/internal/metrics"
	"github.com/zulandar/keystone/internal/milestone"
	"github.com/zulandar/keystone/internal/models"
	"github.com/zulandar/keystone/internal/store"
	"github.com/zulandar/keystone/internal/timeline"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, d *deps) {
	router.GET("/healthz", handleHealth())
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")

	projects := api.Group("/projects/:project")
	projects.GET("/timeline", handleTimeline(d))
	projects.GET("/milestones", handleMilestones(d))
	projects.GET("/milestones.csv", handleMilestonesCSV(d))
	projects.POST("/milestones/scan", handleMilestoneScan(d))
	projects.POST("/evm", handleEVMCalculate(d))
	projects.GET("/evm", handleEVMHistory(d))
	projects.POST("/alerts/generate", handleAlertGenerate(d))
	projects.GET("/alerts", handleAlertList(d))

	api.PATCH("/tasks/:id/dates", handleTaskDates(d))
	api.POST("/milestones/:id/comments", handleMilestoneComment(d))
	api.PUT("/milestones/:id/achieved", handleMilestoneAchieved(d))
	api.PUT("/alerts/:id/read", handleAlertRead(d, true))
	api.DELETE("/alerts/:id/read", handleAlertRead(d, false))
}

// writeError maps domain errors to status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, timeline.ErrInvalidRange), errors.Is(err, milestone.ErrEmptyComment):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

type timelineResponse struct {
	Items      []timeline.Item      `json:"items"`
	Scale      timeline.Scale       `json:"scale"`
	Overridden bool                 `json:"overridden"`
	Violations []timeline.Violation `json:"violations"`
}

func handleTimeline(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		project := c.Param("project")
		theme := d.theme
		if q := c.Query("theme"); q != "" {
			theme = timeline.ParseTheme(q)
		}

		tasks, err := d.st.ListTasks(c.Request.Context(), project)
		if err != nil {
			writeError(c, err)
			return
		}
		ms, err := d.st.ListMilestones(c.Request.Context(), project)
		if err != nil {
			writeError(c, err)
			return
		}

		items := timeline.Normalize(tasks, ms, theme)
		vp := timeline.NewViewport()
		vp.Reload(items)
		if z := c.Query("zoom"); z != "" {
			g, err := timeline.ParseGranularity(z)
			if err != nil {
				badRequest(c, err)
				return
			}
			vp.Zoom(g)
		}

		violations := timeline.CheckDependencies(tasks)
		if violations == nil {
			violations = []timeline.Violation{}
		}
		c.JSON(http.StatusOK, timelineResponse{
			Items:      items,
			Scale:      vp.Scale(),
			Overridden: vp.Overridden(),
			Violations: violations,
		})
	}
}

type dateChangeRequest struct {
	Start string `json:"start" binding:"required,isodate"`
	End   string `json:"end" binding:"required,isodate"`
}

func handleTaskDates(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dateChangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		start, _ := time.Parse(isoDate, req.Start)
		end, _ := time.Parse(isoDate, req.End)

		task, err := timeline.OnDateChange(c.Request.Context(), d.st, c.Param("id"), start, end)
		if err != nil {
			writeError(c, err)
			return
		}
		if task == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

type milestoneResponse struct {
	milestone.View
	AlertClass milestone.AlertClass `json:"alert_class"`
}

func handleMilestones(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ms, err := d.st.ListMilestones(c.Request.Context(), c.Param("project"))
		if err != nil {
			writeError(c, err)
			return
		}
		now := d.now()
		views := milestone.DeriveAll(ms, now)
		out := make([]milestoneResponse, len(views))
		for i, v := range views {
			out[i] = milestoneResponse{View: v, AlertClass: milestone.Classify(v, now, milestone.DefaultDueSoonDays)}
		}
		c.JSON(http.StatusOK, gin.H{"milestones": out})
	}
}

func handleMilestonesCSV(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		project := c.Param("project")
		ms, err := d.st.ListMilestones(c.Request.Context(), project)
		if err != nil {
			writeError(c, err)
			return
		}
		var buf bytes.Buffer
		if err := milestone.WriteCSV(&buf, milestone.DeriveAll(ms, d.now()), milestone.ExportOpts{}); err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", attachment(project+"-milestones.csv"))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}

// attachment builds a Content-Disposition value with filename quoted or
// RFC 2231 encoded as needed.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func handleMilestoneScan(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, err := milestone.AutoComplete(c.Request.Context(), d.st, c.Param("project"), d.now())
		if err != nil {
			writeError(c, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"completed": ids})
	}
}

type commentRequest struct {
	Author string `json:"author" binding:"max=64"`
	Body   string `json:"body" binding:"required"`
}

func handleMilestoneComment(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		comment, err := milestone.AddComment(c.Request.Context(), d.st, c.Param("id"), req.Author, req.Body)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, comment)
	}
}

type achievedRequest struct {
	Achieved *bool `json:"achieved" binding:"required"`
}

func handleMilestoneAchieved(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req achievedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		m, err := milestone.SetAchieved(c.Request.Context(), d.st, c.Param("id"), *req.Achieved, d.now())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func handleEVMCalculate(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		w := d.weighting
		if q := c.Query("weighting"); q != "" {
			w = evm.ParseWeighting(q)
		}
		m, err := evm.Calculate(c.Request.Context(), d.st, c.Param("project"), d.now(), w)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

func handleEVMHistory(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		history, err := evm.List(c.Request.Context(), d.st, c.Param("project"))
		if err != nil {
			writeError(c, err)
			return
		}
		if history == nil {
			history = []models.EarnedValueMetric{}
		}
		c.JSON(http.StatusOK, gin.H{"history": history})
	}
}

func handleAlertGenerate(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		created, err := alert.Generate(c.Request.Context(), d.st, c.Param("project"), d.now(), d.alerts)
		if err != nil {
			writeError(c, err)
			return
		}
		if created == nil {
			created = []models.SchedulingAlert{}
		}
		c.JSON(http.StatusOK, gin.H{"created": created})
	}
}

func handleAlertList(d *deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		alerts, err := d.st.ListAlerts(c.Request.Context(), store.AlertFilter{
			ProjectID: c.Param("project"),
			Type:      c.Query("type"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		unread, read := alert.Partition(alerts)
		if unread == nil {
			unread = []models.SchedulingAlert{}
		}
		if read == nil {
			read = []models.SchedulingAlert{}
		}
		c.JSON(http.StatusOK, gin.H{"unread": unread, "read": read})
	}
}

func handleAlertRead(d *deps, read bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := alert.SetRead(c.Request.Context(), d.st, c.Param("id"), read); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
