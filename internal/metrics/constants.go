package metrics

// Metric names
const (
	MetricNameAPIRequestsTotal     = "artifacts_api_requests_total"
	MetricNameAPIRequestDuration   = "artifacts_api_request_duration_seconds"
	MetricNameAPICacheLookups      = "artifacts_api_cache_lookups_total"
	MetricNameKnowledgeLookups     = "knowledge_base_lookups_total"
	MetricNameAnalysesTotal        = "crafting_analyses_total"
	MetricNameChainNodesTotal      = "crafting_chain_nodes_total"
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Metric help text
const (
	HelpTextAPIRequestsTotal     = "Total number of ArtifactsMMO API requests"
	HelpTextAPIRequestDuration   = "ArtifactsMMO API request latency in seconds"
	HelpTextAPICacheLookups      = "API cache lookups by result"
	HelpTextKnowledgeLookups     = "Knowledge base item lookups by result"
	HelpTextAnalysesTotal        = "Crafting chain analyses by outcome"
	HelpTextChainNodesTotal      = "Resolved chain nodes by kind"
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Label names
const (
	LabelEndpoint = "endpoint"
	LabelStatus   = "status"
	LabelResult   = "result"
	LabelOutcome  = "outcome"
	LabelKind     = "kind"
	LabelMethod   = "method"
	LabelPath     = "path"
)

// Label values
const (
	ResultHit  = "hit"
	ResultMiss = "miss"

	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeUnresolved = "unresolved"
	OutcomeFailed     = "failed"
)

// LatencyBuckets are the histogram buckets for request durations in seconds.
var LatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
