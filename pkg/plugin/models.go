package plugin

type DatasourceModel struct {
	Type string `json:"type"`
	UID  string `json:"uid"`
}

type BaseQueryModel struct {
	Datasource    DatasourceModel `json:"datasource"`
	RefID         string          `json:"refId"`
	DatasourceID  int32           `json:"datasourceId"`
	IntervalMs    uint64          `json:"intervalMs"`
	MaxDataPoints int32           `json:"maxDataPoints"`
}

// QueryModel is the panel query as stored in the dashboard.
type QueryModel struct {
	BaseQueryModel
	Payload Payload `json:"payload"`
}

// AnnotationQuery is a stored query reused for annotations. Target is the
// payload to run, the rest belongs to Grafana.
type AnnotationQuery struct {
	Datasource DatasourceModel `json:"datasource"`
	RefID      string          `json:"refId,omitempty"`
	Name       string          `json:"name,omitempty"`
	Enable     bool            `json:"enable"`
	IconColor  string          `json:"iconColor,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	MatchAny   bool            `json:"matchAny,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Type       string          `json:"type,omitempty"`
	Target     *Payload        `json:"target,omitempty"`
}
