package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"careshift/internal/domain"
	"careshift/internal/service"

	"go.uber.org/zap"
)

// ShiftHandler 排班与交接 Handler
type ShiftHandler struct {
	shiftService    service.ShiftService
	handoverService service.HandoverService
	logger          *zap.Logger
}

func NewShiftHandler(shiftService service.ShiftService, handoverService service.HandoverService, logger *zap.Logger) *ShiftHandler {
	return &ShiftHandler{
		shiftService:    shiftService,
		handoverService: handoverService,
		logger:          logger,
	}
}

// ServeShift 处理按 shift_id 的子路由
// 路由：/shifts/api/v1/shifts/{id}[/recipients|/end|/replace|/handover|/handover/regenerate|/handover/export]
func (h *ShiftHandler) ServeShift(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	shiftID := parts[0]
	if shiftID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	sub := strings.Join(parts[1:], "/")
	switch sub {
	case "":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetShift(w, r, shiftID)
	case "recipients":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.AssignRecipients(w, r, shiftID)
	case "end":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.EndShift(w, r, shiftID)
	case "replace":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.EmergencyReplace(w, r, shiftID)
	case "handover":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetHandover(w, r, shiftID)
	case "handover/regenerate":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.RegenerateHandover(w, r, shiftID)
	case "handover/export":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportHandover(w, r, shiftID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// CreateShift 创建班次
// POST /shifts/api/v1/shifts
func (h *ShiftHandler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req service.CreateShiftRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	dto, err := h.shiftService.CreateShift(r.Context(), req)
	if err != nil {
		h.logger.Warn("CreateShift failed",
			zap.String("caregiver_id", req.CaregiverID),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(dto))
}

// AssignRecipients 为班次追加照护对象
// POST /shifts/api/v1/shifts/{id}/recipients
func (h *ShiftHandler) AssignRecipients(w http.ResponseWriter, r *http.Request, shiftID string) {
	var req struct {
		RecipientIDs []string `json:"recipient_ids"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	dto, err := h.shiftService.AssignRecipients(r.Context(), shiftID, req.RecipientIDs)
	if err != nil {
		h.logger.Warn("AssignRecipients failed",
			zap.String("shift_id", shiftID),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dto))
}

// GetShift 查询单个班次
// GET /shifts/api/v1/shifts/{id}
func (h *ShiftHandler) GetShift(w http.ResponseWriter, r *http.Request, shiftID string) {
	dto, err := h.shiftService.GetShift(r.Context(), shiftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dto))
}

// ListShifts 查询全部班次
// GET /shifts/api/v1/shifts
func (h *ShiftHandler) ListShifts(w http.ResponseWriter, r *http.Request) {
	dtos, err := h.shiftService.ListShifts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dtos))
}

// ListActiveShifts 查询当前进行中的班次
// GET /shifts/api/v1/shifts/active
func (h *ShiftHandler) ListActiveShifts(w http.ResponseWriter, r *http.Request) {
	dtos, err := h.shiftService.ListActiveShifts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(dtos))
}

// ValidateCoverage 校验给定时间窗内所有在册对象是否有人照护
// POST /shifts/api/v1/shifts/coverage
func (h *ShiftHandler) ValidateCoverage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	report, err := h.shiftService.ValidateCoverage(r.Context(), domain.Window{Start: req.StartTime, End: req.EndTime})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

// EndShift 结束班次并生成交接摘要
// POST /shifts/api/v1/shifts/{id}/end
func (h *ShiftHandler) EndShift(w http.ResponseWriter, r *http.Request, shiftID string) {
	resp, err := h.shiftService.EndShift(r.Context(), shiftID)
	if err != nil {
		h.logger.Warn("EndShift failed",
			zap.String("shift_id", shiftID),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}
	if resp.Warning != "" {
		writeJSON(w, http.StatusOK, Warn(resp.Warning, resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// EmergencyReplace 紧急换班
// POST /shifts/api/v1/shifts/{id}/replace
func (h *ShiftHandler) EmergencyReplace(w http.ResponseWriter, r *http.Request, shiftID string) {
	var req service.EmergencyReplaceRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.ShiftID = shiftID

	resp, err := h.shiftService.EmergencyReplace(r.Context(), req)
	if err != nil {
		h.logger.Warn("EmergencyReplace failed",
			zap.String("shift_id", shiftID),
			zap.String("new_caregiver_id", req.NewCaregiverID),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}
	if resp.Warning != "" {
		writeJSON(w, http.StatusOK, Warn(resp.Warning, resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GetHandover 查询班次的交接摘要
// GET /shifts/api/v1/shifts/{id}/handover
func (h *ShiftHandler) GetHandover(w http.ResponseWriter, r *http.Request, shiftID string) {
	summaries, err := h.handoverService.GetByShift(r.Context(), shiftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summaries))
}

// RegenerateHandover 对已结束班次重建交接摘要
// POST /shifts/api/v1/shifts/{id}/handover/regenerate
func (h *ShiftHandler) RegenerateHandover(w http.ResponseWriter, r *http.Request, shiftID string) {
	summaries, err := h.handoverService.Regenerate(r.Context(), shiftID)
	if err != nil {
		h.logger.Warn("RegenerateHandover failed",
			zap.String("shift_id", shiftID),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summaries))
}

// ExportHandover 导出交接摘要 Excel
// GET /shifts/api/v1/shifts/{id}/handover/export
func (h *ShiftHandler) ExportHandover(w http.ResponseWriter, r *http.Request, shiftID string) {
	summaries, err := h.handoverService.GetByShift(r.Context(), shiftID)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := GenerateHandoverExport(summaries)
	if err != nil {
		h.logger.Error("ExportHandover failed",
			zap.String("shift_id", shiftID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export file"))
		return
	}

	filename := fmt.Sprintf("handover_%s_%s.xlsx", shiftID, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
