package plugin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

type buildPayloadRequest struct {
	QueryType QueryType `json:"queryType"`
	Fields    RawFields `json:"fields"`
}

type switchQueryTypeRequest struct {
	Payload   Payload   `json:"payload"`
	QueryType QueryType `json:"queryType"`
}

type payloadResponseBody struct {
	Payload Payload `json:"payload"`
	State   string  `json:"state"`
}

func (d *Datasource) resourceRouter() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/query-types", handleQueryTypes).Methods(http.MethodGet)
	r.HandleFunc("/query-types/{queryType}", handleQueryType).Methods(http.MethodGet)
	r.HandleFunc("/default-query", handleDefaultQuery).Methods(http.MethodGet)
	r.HandleFunc("/payload", handleBuildPayload).Methods(http.MethodPost)
	r.HandleFunc("/payload/switch", handleSwitchQueryType).Methods(http.MethodPost)
	r.HandleFunc("/annotations/prepare", handlePrepareAnnotation).Methods(http.MethodPost)
	return r
}

func handleQueryTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, QueryTypes())
}

func handleQueryType(w http.ResponseWriter, r *http.Request) {
	d, err := LookupQueryType(QueryType(mux.Vars(r)["queryType"]))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func handleDefaultQuery(w http.ResponseWriter, _ *http.Request) {
	p := DefaultPayload()
	writeJSON(w, http.StatusOK, payloadResponseBody{Payload: p, State: StateOf(p).String()})
}

func handleBuildPayload(w http.ResponseWriter, r *http.Request) {
	var req buildPayloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := BuildPayload(req.QueryType, req.Fields)
	if err != nil {
		writeError(w, statusFromError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, payloadResponseBody{Payload: p, State: StateOf(p).String()})
}

func handleSwitchQueryType(w http.ResponseWriter, r *http.Request) {
	var req switchQueryTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := SwitchQueryType(req.Payload, req.QueryType)
	if err != nil {
		writeError(w, statusFromError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, payloadResponseBody{Payload: p, State: StateOf(p).String()})
}

func handlePrepareAnnotation(w http.ResponseWriter, r *http.Request) {
	var aq AnnotationQuery
	if err := json.NewDecoder(r.Body).Decode(&aq); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	target, ok := PrepareQueryForExecution(PrepareAnnotation(aq))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, ErrUnknownQueryType),
		errors.Is(err, ErrMissingRequiredField),
		errors.Is(err, ErrFieldNotApplicable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.DefaultLogger.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
