package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-structurer/internal/api/handler"
)

// RegisterRoutes 注册 API 路由，resumeMiddlewares 只作用于 /resume 分组
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, resumeMiddlewares ...app.HandlerFunc) {
	api := h.Group("/api/v1")

	resume := api.Group("/resume", resumeMiddlewares...)
	resume.POST("/extract", resumeHandler.HandleExtract)
	resume.POST("/structure", resumeHandler.HandleStructure)
	resume.POST("/upload", resumeHandler.HandleUpload)
	resume.GET("/:submission_uuid", resumeHandler.HandleGetSubmission)

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
