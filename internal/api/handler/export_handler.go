package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"social-catering/backend/internal/service"
	"social-catering/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTimesheet 导出活动工时表
// GET /api/v1/events/:id/timesheet
func (h *ExportHandler) ExportTimesheet(c *gin.Context) {
	h.download(c, xlsxContentType, h.exportSvc.ExportTimesheet)
}

// ExportCalendar 导出活动班次日历
// GET /api/v1/events/:id/calendar.ics
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	h.download(c, icsContentType, h.exportSvc.ExportCalendar)
}

type exportFunc func(ctx context.Context, eventID string) (*bytes.Buffer, string, error)

func (h *ExportHandler) download(c *gin.Context, contentType string, export exportFunc) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	buf, filename, err := export(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 20501, "生成导出文件失败")
	default:
		handleEngineError(c, err)
	}
}
