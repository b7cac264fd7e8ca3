//
//
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/radio-control/cellstate/internal/auth"
	"github.com/radio-control/cellstate/internal/metrics"
	"github.com/radio-control/cellstate/internal/modem/sim"
	"github.com/radio-control/cellstate/internal/radiolink"
	"github.com/radio-control/cellstate/internal/telemetry"
)

const apiV1 = "/api/v1"

// maxBodyBytes bounds control request bodies.
const maxBodyBytes = 64 << 10

// RegisterRoutes registers every endpoint on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+apiV1+"/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET "+apiV1+"/service-state", s.auth.Protect(s.handleServiceState, auth.ScopeRead))
	mux.HandleFunc("GET "+apiV1+"/status", s.auth.Protect(s.handleStatus, auth.ScopeRead))
	mux.HandleFunc("GET "+apiV1+"/radio", s.auth.Protect(s.handleGetRadio, auth.ScopeRead))
	mux.HandleFunc("GET "+apiV1+"/telemetry", s.auth.Protect(s.handleTelemetry, auth.ScopeTelemetry))

	mux.HandleFunc("POST "+apiV1+"/poll", s.control(s.handlePoll))
	mux.HandleFunc("POST "+apiV1+"/radio", s.control(s.handleSetRadio))
	mux.HandleFunc("POST "+apiV1+"/registration", s.control(s.handleSetRegistration))
	mux.HandleFunc("POST "+apiV1+"/operator", s.control(s.handleSetOperator))
	mux.HandleFunc("POST "+apiV1+"/signal", s.control(s.handleSetSignal))
	mux.HandleFunc("POST "+apiV1+"/clock/network-time", s.control(s.handleNetworkTime))
	mux.HandleFunc("POST "+apiV1+"/clock/auto-time", s.control(s.handleAutoTime))
	mux.HandleFunc("POST "+apiV1+"/clock/auto-time-zone", s.control(s.handleAutoTimeZone))
	mux.HandleFunc("POST "+apiV1+"/clock/revert", s.control(s.handleRevert))
}

// control wraps a state-changing handler with the rate limiter and the
// control scope.
func (s *Server) control(next http.HandlerFunc) http.HandlerFunc {
	protected := s.auth.Protect(next, auth.ScopeControl)
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			metrics.APIRateLimited.Inc()
			w.Header().Set("Retry-After", "1")
			WriteError(w, http.StatusTooManyRequests, "BUSY", "Rate limit exceeded, retry with backoff", nil)
			return
		}
		protected(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.tracker != nil {
		st := s.tracker.Status()
		data["radio"] = st.Radio
		data["state"] = st.Service.State.String()
	}
	WriteSuccess(w, data)
}

func (s *Server) handleServiceState(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Tracker not available", nil)
		return
	}
	WriteSuccess(w, s.tracker.Status().Service)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Tracker not available", nil)
		return
	}
	WriteSuccess(w, s.tracker.Status())
}

func (s *Server) handleGetRadio(w http.ResponseWriter, r *http.Request) {
	if s.modem == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Modem not available", nil)
		return
	}
	WriteSuccess(w, map[string]interface{}{
		"state":        s.modem.RadioState().String(),
		"registration": s.modem.Registration(),
	})
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if s.telemetry == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Telemetry not available", nil)
		return
	}
	if err := s.telemetry.Subscribe(r.Context(), w, r); err != nil {
		if errors.Is(err, telemetry.ErrStopped) {
			WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Telemetry is shut down", nil)
			return
		}
		s.logger.Debug("telemetry stream ended", "error", err)
	}
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Tracker not available", nil)
		return
	}
	s.tracker.PollState()
	err := s.tracker.Sync(r.Context())
	s.recordControl(r, "pollState", nil, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	st := s.tracker.Status()
	WriteSuccess(w, map[string]interface{}{
		"pollActive":     st.PollActive,
		"pollGeneration": st.PollGeneration,
	})
}

func (s *Server) handleSetRadio(w http.ResponseWriter, r *http.Request) {
	if s.modem == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Modem not available", nil)
		return
	}
	var req struct {
		State string `json:"state"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	state, err := radiolink.ParseState(req.State)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	s.modem.SetRadioState(state)
	s.recordControl(r, "setRadioState", map[string]interface{}{"state": state.String()}, nil)
	WriteSuccess(w, map[string]string{"state": state.String()})
}

// handleSetRegistration overlays the posted fields on the current record.
func (s *Server) handleSetRegistration(w http.ResponseWriter, r *http.Request) {
	if s.modem == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Modem not available", nil)
		return
	}
	reg := s.modem.Registration()
	if err := decodeJSON(w, r, &reg); err != nil {
		writeErr(w, err)
		return
	}
	if reg.Code < 0 || reg.Code > 14 {
		WriteError(w, http.StatusBadRequest, "INVALID_RANGE", "Registration code must be 0-14", map[string]int{"code": reg.Code})
		return
	}

	s.modem.SetRegistration(reg)
	s.recordControl(r, "setRegistration", map[string]interface{}{
		"code":             reg.Code,
		"systemId":         reg.SystemID,
		"networkId":        reg.NetworkID,
		"roamingIndicator": reg.RoamingIndicator,
	}, nil)
	WriteSuccess(w, reg)
}

func (s *Server) handleSetOperator(w http.ResponseWriter, r *http.Request) {
	if s.modem == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Modem not available", nil)
		return
	}
	var op sim.OperatorNames
	if err := decodeJSON(w, r, &op); err != nil {
		writeErr(w, err)
		return
	}

	s.modem.SetOperator(op)
	s.recordControl(r, "setOperator", map[string]interface{}{"numeric": op.Numeric, "alphaLong": op.AlphaLong}, nil)
	WriteSuccess(w, op)
}

// handleSetSignal changes the measurement the radio answers polls with. With
// ?unsolicited=true the radio also reports it unprompted.
func (s *Server) handleSetSignal(w http.ResponseWriter, r *http.Request) {
	if s.modem == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Modem not available", nil)
		return
	}
	var sig sim.Signal
	if err := decodeJSON(w, r, &sig); err != nil {
		writeErr(w, err)
		return
	}

	unsolicited := r.URL.Query().Get("unsolicited") == "true"
	if unsolicited {
		s.modem.ReportSignal(sig)
	} else {
		s.modem.SetSignal(sig)
	}
	s.recordControl(r, "setSignal", map[string]interface{}{"cdmaDbm": sig.CdmaDbm, "unsolicited": unsolicited}, nil)
	WriteSuccess(w, sig)
}

func (s *Server) handleNetworkTime(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Tracker not available", nil)
		return
	}
	var req struct {
		Time string `json:"time"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Time == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "time is required", nil)
		return
	}

	outcome, err := s.tracker.SubmitNetworkTime(r.Context(), req.Time, s.clock.Elapsed())
	s.recordControl(r, "submitNetworkTime", map[string]interface{}{"time": req.Time, "outcome": outcome.String()}, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	WriteSuccess(w, map[string]interface{}{
		"outcome": outcome.String(),
		"ledger":  s.tracker.Status().Ledger,
	})
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleAutoTime(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "setAutoTime", func(enabled bool) error {
		return s.tracker.SetAutoTime(r.Context(), enabled)
	})
}

func (s *Server) handleAutoTimeZone(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "setAutoTimeZone", func(enabled bool) error {
		return s.tracker.SetAutoTimeZone(r.Context(), enabled)
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request, action string, apply func(bool) error) {
	if s.tracker == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Tracker not available", nil)
		return
	}
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Enabled == nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "enabled is required", nil)
		return
	}

	err := apply(*req.Enabled)
	s.recordControl(r, action, map[string]interface{}{"enabled": *req.Enabled}, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	st := s.tracker.Status()
	WriteSuccess(w, map[string]bool{"autoTime": st.AutoTime, "autoTimeZone": st.AutoTimeZone})
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Tracker not available", nil)
		return
	}
	applied, err := s.tracker.RevertToNetworkTime(r.Context())
	s.recordControl(r, "revertToNetworkTime", map[string]interface{}{"applied": applied}, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	WriteSuccess(w, map[string]bool{"applied": applied})
}

func (s *Server) recordControl(r *http.Request, action string, params map[string]interface{}, err error) {
	if s.audit != nil {
		s.audit.LogControlAction(r.Context(), action, params, err)
	}
}

// decodeJSON decodes one strict JSON object. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return NewAPIError("BAD_REQUEST", fmt.Sprintf("Malformed JSON: %v", err), http.StatusBadRequest, nil)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return NewAPIError("BAD_REQUEST", "Trailing data after JSON object", http.StatusBadRequest, nil)
	}
	return nil
}
