package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"document-search-platform/middleware"
	"document-search-platform/models"
	"document-search-platform/services"
	"document-search-platform/utils"

	"github.com/gin-gonic/gin"
)

// SetupSearchRoutes registers the search, history, and answer endpoints.
func SetupSearchRoutes(
	router *gin.Engine,
	searcher *services.SearchService,
	history *services.HistoryService,
	exporter *services.ExportService,
	answers *services.AnswerService,
	authMiddleware *middleware.AuthMiddleware,
) {
	search := router.Group("/search")
	search.Use(authMiddleware.RequireAuth())
	{
		search.POST("", HandleSearch(searcher))
		search.GET("/history", HandleSearchHistory(history))
		search.GET("/history/export", HandleHistoryExport(exporter))
	}

	router.POST("/answers", authMiddleware.RequireAuth(), HandleAnswer(answers))
}

// HandleSearch runs a query against the caller's corpus.
func HandleSearch(searcher *services.SearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid search request", err.Error())
			return
		}

		results, err := searcher.Search(c.Request.Context(), middleware.GetUserID(c), req.Query, req.Limit)
		if err != nil {
			if errors.Is(err, services.ErrEmptyQuery) {
				utils.RespondWithBadRequest(c, "Search query must not be empty", nil)
				return
			}
			utils.RespondWithInternalError(c, "Search failed", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"query":   req.Query,
			"results": results,
			"total":   len(results),
		})
	}
}

// HandleSearchHistory returns the caller's recent searches, newest first.
func HandleSearchHistory(history *services.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if l, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && l > 0 && l <= 100 {
			limit = l
		}

		records := history.Recent(middleware.GetUserID(c), limit)
		c.JSON(http.StatusOK, gin.H{
			"history": records,
			"total":   len(records),
		})
	}
}

// HandleHistoryExport streams the caller's search history as a workbook.
func HandleHistoryExport(exporter *services.ExportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0 // everything retained
		if l, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil && l > 0 {
			limit = l
		}

		data, count, err := exporter.ExportHistory(middleware.GetUserID(c), limit)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to export search history", nil)
			return
		}

		filename := fmt.Sprintf("search_history_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("X-Record-Count", strconv.Itoa(count))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}

// HandleAnswer generates a grounded answer for a question over the caller's
// corpus.
func HandleAnswer(answers *services.AnswerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid answer request", err.Error())
			return
		}

		answer, err := answers.Answer(c.Request.Context(), middleware.GetUserID(c), req.Query, req.Limit)
		if err != nil {
			if errors.Is(err, services.ErrEmptyQuery) {
				utils.RespondWithBadRequest(c, "Question must not be empty", nil)
				return
			}
			utils.RespondWithInternalError(c, "Failed to generate answer", nil)
			return
		}

		c.JSON(http.StatusOK, answer)
	}
}
