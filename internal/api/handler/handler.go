package handler

import "social-catering/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Assignment *AssignmentHandler
	Event      *EventHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Assignment: NewAssignmentHandler(svc.Assignment),
		Event:      NewEventHandler(svc.Event),
		Export:     NewExportHandler(svc.Export),
	}
}
