package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/proofline/proofline/pkg/config"
	"github.com/proofline/proofline/pkg/schema"
)

// writeJSON mirrors the teacher's writeJSON helper: serialize v as JSON
// with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the non-leaking error envelope POST /checks/run returns on
// failure (§6 "Failures: 400 ... 401 ... 402 ... 422 ... 500").
type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*schema.AppError); ok {
		writeJSON(w, appErr.HTTPStatus(), errorBody{Error: appErr.Message, Kind: string(appErr.Type), Details: appErr.Details})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Kind: string(schema.ErrorTypeInternal)})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runCheckRequest is POST /checks/run's request body (§6).
type runCheckRequest struct {
	Claim           string `json:"claim"`
	Mode            string `json:"mode"`
	Provider        string `json:"provider"`
	LogicalModel    string `json:"logical_model"`
	K               int    `json:"K"`
	R               int    `json:"R"`
	T               *int   `json:"T"`
	B               int    `json:"B"`
	PromptVersion   string `json:"prompt_version"`
	MaxOutputTokens int    `json:"max_output_tokens"`
	NoCache         bool   `json:"no_cache"`
	Mock            bool   `json:"mock"`
}

func (s *Server) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	var req runCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed JSON body", Kind: string(schema.ErrorTypeValidation)})
		return
	}
	if req.Claim == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "claim must not be empty", Kind: string(schema.ErrorTypeValidation)})
		return
	}

	cfg := config.DefaultRunConfig(req.Claim)
	if req.Mode != "" {
		cfg.Mode = req.Mode
	}
	if req.Provider != "" {
		cfg.Provider = req.Provider
	}
	if req.LogicalModel != "" {
		cfg.Model = req.LogicalModel
	}
	if req.K > 0 {
		cfg.K = req.K
	}
	if req.R > 0 {
		cfg.R = req.R
	}
	if req.T != nil {
		cfg.T = req.T
	}
	if req.B > 0 {
		cfg.B = req.B
	}
	if req.PromptVersion != "" {
		cfg.PromptVersion = req.PromptVersion
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = req.MaxOutputTokens
	}
	cfg.NoCache = req.NoCache
	cfg.Mock = req.Mock

	bundle, err := config.LoadPromptBundle(filepath.Join(s.PromptsDir, cfg.PromptVersion+".yaml"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unknown prompt_version", Kind: string(schema.ErrorTypeValidation), Details: err.Error()})
		return
	}

	var usage *schema.UsagePlan
	if s.Usage != nil {
		usage, err = s.Usage.UsageFor(r.Context(), r)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if usage != nil && usage.Remaining <= 0 {
			writeJSON(w, http.StatusPaymentRequired, errorBody{Error: "quota exhausted", Kind: string(schema.ErrorTypeQuota)})
			return
		}
	}

	resp, err := s.Pipeline.Run(r.Context(), cfg, bundle, usage)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
