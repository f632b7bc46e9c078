package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/qr-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/qr-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/qr-attendance-go/internal/pkg/sse"
)

type DashboardHandler interface {
	// Today handles GET /dashboard/today
	Today(w http.ResponseWriter, r *http.Request)
	// Summary handles GET /dashboard/summary?date=YYYY-MM-DD
	Summary(w http.ResponseWriter, r *http.Request)
	// StreamToken issues a short-lived token for the live stream
	StreamToken(w http.ResponseWriter, r *http.Request)
	// Stream pushes scans and summary refreshes as server-sent events
	Stream(w http.ResponseWriter, r *http.Request)
}

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type dashboardHandlerImpl struct {
	dashboardService dashboard.DashboardService
	jwtService       jwt.Service
	hub              *sse.Hub
	keepalive        time.Duration
}

func NewDashboardHandler(dashboardService dashboard.DashboardService, jwtService jwt.Service, hub *sse.Hub) DashboardHandler {
	return &dashboardHandlerImpl{
		dashboardService: dashboardService,
		jwtService:       jwtService,
		hub:              hub,
		keepalive:        30 * time.Second,
	}
}

// Today implements DashboardHandler.
func (h *dashboardHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboardService.TodaySummary(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Summary implements DashboardHandler.
func (h *dashboardHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	req := dashboard.SummaryRequest{
		Date: r.URL.Query().Get("date"), // format: YYYY-MM-DD, default: today
	}

	result, err := h.dashboardService.SummaryForDate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// StreamToken implements DashboardHandler.
func (h *dashboardHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	subject := middleware.SubjectFromContext(r)
	if subject == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(subject)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, StreamTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream implements DashboardHandler.
func (h *dashboardHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot set headers, so the token travels in the query string
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	subject, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(sse.TopicAttendance, sse.TopicDashboard)
	defer cleanup()

	slog.DebugContext(r.Context(), "Dashboard stream opened", "subject", subject)

	writeEvent(w, "connected", map[string]string{"status": "connected", "subject": subject})
	if summary, err := h.dashboardService.TodaySummary(r.Context()); err == nil {
		writeEvent(w, "dashboard.summary", summary)
	} else {
		slog.WarnContext(r.Context(), "Failed to load initial dashboard summary", "error", err)
	}
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, event.Event, event.Data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			slog.DebugContext(r.Context(), "Dashboard stream closed", "subject", subject)
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to encode stream event", "event", name, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
}
