package http

import (
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var specYAML []byte

// Output formats accepted by the format query parameter.
const (
	FormatJSON    = "json"
	FormatMermaid = "mermaid"
)

// FormatParams carries the optional format query parameter.
type FormatParams struct {
	Format *string `form:"format,omitempty" json:"format,omitempty"`
}

// GetAutomatonParams are the query parameters of GET /sessions/{id}/automaton.
type GetAutomatonParams struct {
	Closed *bool   `form:"closed,omitempty" json:"closed,omitempty"`
	Format *string `form:"format,omitempty" json:"format,omitempty"`
}

// CommandRequest is the body of POST /analyze and POST /sessions/{id}/commands.
type CommandRequest struct {
	Command string `json:"command"`
}

// ServerInterface lists one method per operation of openapi.yaml.
type ServerInterface interface {
	AnalyzeCommand(w http.ResponseWriter, r *http.Request, params FormatParams)
	ListSessions(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request, id string)
	DeleteSession(w http.ResponseWriter, r *http.Request, id string)
	RecordCommand(w http.ResponseWriter, r *http.Request, id string)
	GetHistory(w http.ResponseWriter, r *http.Request, id string)
	GetAutomaton(w http.ResponseWriter, r *http.Request, id string, params GetAutomatonParams)
	GetFanOut(w http.ResponseWriter, r *http.Request, id string, params FormatParams)
	UpdateGame(w http.ResponseWriter, r *http.Request, id string)
	ResetSession(w http.ResponseWriter, r *http.Request, id string)
	SubscribeEvents(w http.ResponseWriter, r *http.Request, id string)
	GetGrammar(w http.ResponseWriter, r *http.Request)
	GetCommands(w http.ResponseWriter, r *http.Request)
	GetHealth(w http.ResponseWriter, r *http.Request)
	GetInfo(w http.ResponseWriter, r *http.Request)
}

// wrapper binds path and query parameters before calling the handler.
type wrapper struct {
	handler ServerInterface
}

func (wr *wrapper) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter id: %v", err), http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func bindFormat(w http.ResponseWriter, r *http.Request, dest **string) bool {
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), dest); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter format: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func (wr *wrapper) analyzeCommand(w http.ResponseWriter, r *http.Request) {
	var params FormatParams
	if !bindFormat(w, r, &params.Format) {
		return
	}
	wr.handler.AnalyzeCommand(w, r, params)
}

func (wr *wrapper) getAutomaton(w http.ResponseWriter, r *http.Request) {
	id, ok := wr.sessionID(w, r)
	if !ok {
		return
	}
	var params GetAutomatonParams
	if err := runtime.BindQueryParameter("form", true, false, "closed", r.URL.Query(), &params.Closed); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter closed: %v", err), http.StatusBadRequest)
		return
	}
	if !bindFormat(w, r, &params.Format) {
		return
	}
	wr.handler.GetAutomaton(w, r, id, params)
}

func (wr *wrapper) getFanOut(w http.ResponseWriter, r *http.Request) {
	id, ok := wr.sessionID(w, r)
	if !ok {
		return
	}
	var params FormatParams
	if !bindFormat(w, r, &params.Format) {
		return
	}
	wr.handler.GetFanOut(w, r, id, params)
}

// withID adapts a handler that only needs the session id.
func (wr *wrapper) withID(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := wr.sessionID(w, r)
		if !ok {
			return
		}
		fn(w, r, id)
	}
}

// HandlerFromMux registers every operation of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	wr := &wrapper{handler: si}

	r.Post("/analyze", wr.analyzeCommand)
	r.Get("/sessions", si.ListSessions)
	r.Get("/sessions/{id}", wr.withID(si.GetSession))
	r.Delete("/sessions/{id}", wr.withID(si.DeleteSession))
	r.Post("/sessions/{id}/commands", wr.withID(si.RecordCommand))
	r.Get("/sessions/{id}/history", wr.withID(si.GetHistory))
	r.Get("/sessions/{id}/automaton", wr.getAutomaton)
	r.Get("/sessions/{id}/fanout", wr.getFanOut)
	r.Put("/sessions/{id}/game", wr.withID(si.UpdateGame))
	r.Post("/sessions/{id}/reset", wr.withID(si.ResetSession))
	r.Get("/sessions/{id}/events", wr.withID(si.SubscribeEvents))
	r.Get("/grammar", si.GetGrammar)
	r.Get("/commands", si.GetCommands)
	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)

	return r
}

// rawSpec returns the embedded OpenAPI document.
func rawSpec() ([]byte, error) {
	return specYAML, nil
}

var (
	swaggerOnce sync.Once
	swaggerDoc  *openapi3.T
	swaggerErr  error
)

// GetSwagger parses the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		swaggerDoc, swaggerErr = openapi3.NewLoader().LoadFromData(specYAML)
	})
	return swaggerDoc, swaggerErr
}
