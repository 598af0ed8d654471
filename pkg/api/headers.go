package api

// Advisory response headers. Clients use these to reconcile their local
// state without parsing the body twice; none of them change semantics.
const (
	HeaderCacheHit       = "X-Cache-Hit"
	HeaderCacheVersion   = "X-Cache-Version"
	HeaderEntityType     = "X-Entity-Type"
	HeaderEntityVersion  = "X-Entity-Version"
	HeaderGraphBuildTime = "X-Graph-Build-Time"
	HeaderTotalNodes     = "X-Total-Nodes"
	HeaderTotalEdges     = "X-Total-Edges"
	HeaderRequestID      = "X-Request-ID"
	HeaderCSRFToken      = "X-CSRF-Token"
)
