package telemetry

// Span attribute keys shared by the NDVI code paths.
const (
	AttrVertexCount = "ndvi.vertex_count"
	AttrStartDate   = "ndvi.start_date"
	AttrEndDate     = "ndvi.end_date"
	AttrMeanNDVI    = "ndvi.mean"
	AttrCacheHit    = "ndvi.cache_hit"
)
