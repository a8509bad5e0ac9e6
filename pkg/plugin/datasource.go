package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"runtime/debug"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/instancemgmt"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/grafana/grafana-plugin-sdk-go/backend/resource/httpadapter"
	"github.com/grafana/grafana-plugin-sdk-go/data"
)

const annotationRefID = "Anno"

// Make sure Datasource implements required interfaces. This is important to do
// since otherwise we will only get a not implemented error response from plugin in
// runtime. Plugin should not implement all these interfaces - only those which are
// required for a particular task.
var (
	_ backend.QueryDataHandler      = (*Datasource)(nil)
	_ backend.CheckHealthHandler    = (*Datasource)(nil)
	_ backend.CallResourceHandler   = (*Datasource)(nil)
	_ instancemgmt.InstanceDisposer = (*Datasource)(nil)
)

// NewDatasource creates a new datasource instance from the saved settings.
func NewDatasource(_ context.Context, inst backend.DataSourceInstanceSettings) (instancemgmt.Instance, error) {
	settings, err := LoadSettings(inst)
	if err != nil {
		return nil, err
	}

	d := &Datasource{
		settings:     settings,
		secureFields: SecureFieldsFromInstance(inst),
	}
	d.CallResourceHandler = httpadapter.New(d.resourceRouter())

	log.DefaultLogger.Info("created datasource", "url", settings.URL, "maxBuckets", settings.MaxBuckets,
		"apiKeyConfigured", IsConfigured(d.secureFields))

	return d, nil
}

// Datasource validates Carpool queries and serves the query type registry to
// the query editor. Running the queries against the Carpool API happens
// outside of it.
type Datasource struct {
	backend.CallResourceHandler

	settings     Settings
	secureFields SecureFields
}

// Dispose here tells plugin SDK that plugin wants to clean up resources when a new instance
// created. The datasource holds no resources.
func (d *Datasource) Dispose() {}

// QueryData validates each query in req. The response for a valid query
// carries the normalised payload in the frame metadata.
func (d *Datasource) QueryData(_ context.Context, req *backend.QueryDataRequest) (*backend.QueryDataResponse, error) {
	// when logging at a non-Debug level, make sure you don't include sensitive information in the message
	log.DefaultLogger.Debug("QueryData called", "numQueries", len(req.Queries))

	response := backend.NewQueryDataResponse()

	for _, q := range req.Queries {
		log.DefaultLogger.Debug("query", "refId", q.RefID, "JSON", string(q.JSON))

		var res backend.DataResponse
		switch q.RefID {
		case annotationRefID:
			res = AnnotationsQuery(q, d.settings.MaxBuckets)
		default:
			res = PayloadQuery(q, d.settings.MaxBuckets)
		}

		// save the response in a hashmap based on with RefID as identifier
		response.Responses[q.RefID] = res
	}

	return response, nil
}

// PayloadQuery validates a panel query.
func PayloadQuery(query backend.DataQuery, maxBuckets int32) (response backend.DataResponse) {
	defer recoverResponse(&response)

	var qm QueryModel
	if err := json.Unmarshal(query.JSON, &qm); err != nil {
		return backend.ErrDataResponse(backend.StatusBadRequest, fmt.Sprintf("failed to unmarshal query: %v", err.Error()))
	}

	return payloadResponse(query, qm.Payload, maxBuckets)
}

// AnnotationsQuery validates an annotation query. Grafana sends the target
// query itself; the stored annotation shape with a target is accepted when no
// payload is present. An annotation without either yields an empty response.
func AnnotationsQuery(query backend.DataQuery, maxBuckets int32) (response backend.DataResponse) {
	defer recoverResponse(&response)

	var aq struct {
		Payload *Payload `json:"payload"`
		AnnotationQuery
	}
	if err := json.Unmarshal(query.JSON, &aq); err != nil {
		return backend.ErrDataResponse(backend.StatusBadRequest, fmt.Sprintf("failed to unmarshal annotation: %v", err.Error()))
	}
	if aq.Payload != nil {
		return payloadResponse(query, *aq.Payload, maxBuckets)
	}

	target, ok := PrepareQueryForExecution(PrepareAnnotation(aq.AnnotationQuery))
	if !ok {
		log.DefaultLogger.Debug("annotation has no target", "refId", query.RefID)
		return response
	}

	return payloadResponse(query, target, maxBuckets)
}

// executedQuery is the payload together with the bucket width it runs with.
type executedQuery struct {
	Payload
	BucketSeconds int32 `json:"bucketSeconds"`
}

func payloadResponse(query backend.DataQuery, p Payload, maxBuckets int32) backend.DataResponse {
	qt := LookupQueryTypeOrDefault(p.QueryType).Value
	built, err := BuildPayload(qt, p.Fields())
	if err != nil {
		return errorToResponse(err)
	}

	eq := executedQuery{
		Payload:       built,
		BucketSeconds: clampBucketSeconds(query.TimeRange.From, query.TimeRange.To, int32(query.Interval.Seconds()), maxBuckets),
	}
	b, err := json.Marshal(eq)
	if err != nil {
		return backend.ErrDataResponse(backend.StatusInternal, fmt.Sprintf("failed to marshal payload: %v", err))
	}

	frame := data.NewFrame(query.RefID).SetMeta(&data.FrameMeta{
		Type:                data.FrameTypeTimeSeriesLong,
		TypeVersion:         data.FrameTypeVersion{0, 1},
		ExecutedQueryString: string(b),
	})

	var response backend.DataResponse
	response.Frames = append(response.Frames, frame)
	return response
}

func errorToResponse(err error) backend.DataResponse {
	statusCode := backend.StatusInternal
	switch {
	case errors.Is(err, ErrMissingRequiredField),
		errors.Is(err, ErrUnknownQueryType),
		errors.Is(err, ErrFieldNotApplicable):
		statusCode = backend.StatusBadRequest
	}

	log.DefaultLogger.Debug("query rejected", "error", err.Error())
	return backend.ErrDataResponse(statusCode, err.Error())
}

func recoverResponse(response *backend.DataResponse) {
	if r := recover(); r != nil {
		log.DefaultLogger.Error("recovered from panic", "error", r)
		log.DefaultLogger.Error(string(debug.Stack()))

		response.Error = fmt.Errorf("internal plugin error")
		response.Status = backend.StatusInternal
	}
}

// CheckHealth handles health checks sent from Grafana to the plugin.
// The main use case for these health checks is the test button on the
// datasource configuration page which allows users to verify that
// a datasource is working as expected.
func (d *Datasource) CheckHealth(_ context.Context, _ *backend.CheckHealthRequest) (*backend.CheckHealthResult, error) {
	log.DefaultLogger.Debug("CheckHealth called")

	u, err := url.Parse(d.settings.URL)
	if err != nil {
		return healthError("invalid Carpool URL: %s", err.Error()), nil
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return healthError("invalid Carpool URL %q: expected an absolute http or https URL", d.settings.URL), nil
	}

	if d.settings.MaxBuckets <= 0 {
		return healthError("maxBuckets must be greater than zero, got %d", d.settings.MaxBuckets), nil
	}

	if !IsConfigured(d.secureFields) {
		return healthError("api key is not configured"), nil
	}

	return &backend.CheckHealthResult{
		Status:  backend.HealthStatusOk,
		Message: fmt.Sprintf("Carpool datasource is configured for %s", u.Host),
	}, nil
}

func healthError(msg string, args ...any) *backend.CheckHealthResult {
	var message string
	if len(args) > 0 {
		message = fmt.Sprintf(msg, args...)
	} else {
		message = msg
	}
	return &backend.CheckHealthResult{
		Status:  backend.HealthStatusError,
		Message: message,
	}
}
