package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterShiftRoutes 注册排班与交接相关路由
func (r *Router) RegisterShiftRoutes(h *ShiftHandler) {
	// collection endpoints
	r.Handle("/shifts/api/v1/shifts", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListShifts(w, req)
		case http.MethodPost:
			h.CreateShift(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/shifts/api/v1/shifts/active", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListActiveShifts(w, req)
	})

	r.Handle("/shifts/api/v1/shifts/coverage", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ValidateCoverage(w, req)
	})

	// per-shift endpoints: /shifts/api/v1/shifts/{id}[/...]
	r.Handle("/shifts/api/v1/shifts/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/shifts/api/v1/shifts/")
		if rest == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.ServeShift(w, req, rest)
	})

	// 健康检查
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
}
