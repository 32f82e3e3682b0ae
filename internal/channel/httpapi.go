package channel

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"conduit/internal/intent"
	"conduit/internal/media"
	"conduit/internal/message"
	"conduit/internal/metrics"
)

// ipLimiter hands out one token-bucket rate.Limiter per remote address,
// guarding the HTTP surface against a single client hammering it; the
// per-user hourly business limit lives in ratelimit.Limiter downstream.
type ipLimiter struct {
	mu       sync.Mutex
	byAddr   map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{byAddr: map[string]*rate.Limiter{}, rps: rate.Limit(rps), burst: burst}
}

func (l *ipLimiter) allow(addr string) bool {
	l.mu.Lock()
	lim, ok := l.byAddr[addr]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.byAddr[addr] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

func (l *ipLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// inboundRequest is the JSON body accepted by POST /api/v1/message and
// POST /api/v1/diagnose.
type inboundRequest struct {
	UserID string `json:"user_id" binding:"required"`
	NodeID string `json:"node_id"`
	Text   string `json:"text"`
	Images []struct {
		Mime string `json:"mime"`
		Data string `json:"data"` // base64
	} `json:"images"`
}

type outboundResponse struct {
	Text        string                 `json:"text"`
	Attachments []attachmentResponse   `json:"attachments,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type attachmentResponse struct {
	Type     string `json:"type"`
	Data     string `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// HTTPAPI is the synchronous REST surface for integrations that cannot hold
// a long-lived channel connection (CMMS plugins, scripted clients).
type HTTPAPI struct {
	addr    string
	metrics *metrics.Aggregator
	server  *http.Server
}

// NewHTTPAPI constructs an HTTPAPI adapter. agg may be nil, in which case
// /health always reports {"status":"healthy"} with no connector detail;
// /metrics does not depend on agg.
func NewHTTPAPI(addr string, agg *metrics.Aggregator) *HTTPAPI {
	return &HTTPAPI{addr: addr, metrics: agg}
}

func (h *HTTPAPI) ID() string                   { return "http_api" }
func (h *HTTPAPI) channelKind() message.Channel { return message.ChannelHTTPAPI }

func (h *HTTPAPI) Start(ctx context.Context, handler Handler) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(newIPLimiter(5, 10).middleware())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "conduit", "status": "running"})
	})
	router.GET("/health", h.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/api/v1/message", h.handleMessage(handler, intent.Unknown))
	router.POST("/api/v1/diagnose", h.handleMessage(handler, intent.Diagnose))

	h.server = &http.Server{Addr: h.addr, Handler: router}
	slog.Info("http api listening", "addr", h.addr)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http api server error", "error", err)
		}
	}()
	return nil
}

func (h *HTTPAPI) Stop(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

// Send is a no-op for HTTPAPI: replies are returned synchronously from the
// handling request, never pushed out-of-band.
func (h *HTTPAPI) Send(ctx context.Context, out message.Outbound) error {
	return nil
}

func (h *HTTPAPI) handleHealth(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}
	report := h.metrics.Health(c.Request.Context())
	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (h *HTTPAPI) handleMessage(handler Handler, forceIntent intent.Intent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req inboundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var attachments []message.Attachment
		for _, img := range req.Images {
			data, err := base64.StdEncoding.DecodeString(img.Data)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid image data: %v", err)})
				return
			}
			mimeType := img.Mime
			if mimeType == "" {
				mimeType, _ = media.DetectMimeAndExt(data)
			}
			attachments = append(attachments, message.Attachment{
				Type:     message.AttachmentImage,
				Data:     data,
				MimeType: mimeType,
			})
		}

		in := &message.Inbound{
			ID:          fmt.Sprintf("http-%d", time.Now().UnixNano()),
			Channel:     message.ChannelHTTPAPI,
			UserID:      req.UserID,
			Text:        req.Text,
			NodeID:      req.NodeID,
			Attachments: attachments,
			ArrivedAt:   time.Now(),
		}
		if forceIntent != intent.Unknown {
			in.Intent = string(forceIntent)
		}

		out := handler.Dispatch(c.Request.Context(), in)
		c.JSON(http.StatusOK, toResponse(out))
	}
}

func toResponse(out message.Outbound) outboundResponse {
	resp := outboundResponse{Text: out.Text, Metadata: out.Metadata}
	for _, a := range out.Attachments {
		ar := attachmentResponse{Type: string(a.Type), URL: a.URL, MimeType: a.MimeType, Filename: a.Filename}
		if len(a.Data) > 0 {
			ar.Data = base64.StdEncoding.EncodeToString(a.Data)
		}
		resp.Attachments = append(resp.Attachments, ar)
	}
	return resp
}
