// Package observability provides logging and metrics support for the
// citation service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger.Info().Str("source", "pubmed").Msg("search completed")
//
// Request handlers derive a request-scoped logger and store it in the
// context:
//
//	reqLogger := observability.WithRequestContext(logger, requestID, "/buscar")
//	ctx = observability.WithLogger(ctx, reqLogger)
//
// # Metrics
//
// Metrics are registered with the default Prometheus registry:
//
//	metrics := observability.NewMetrics(observability.Namespace)
//	metrics.RecordRequest("/buscar", http.StatusOK, elapsed.Seconds())
//
// *Metrics satisfies citation.Recorder and papersources.RequestRecorder, so
// the same instance is handed to the pipeline and to the source clients.
//
// # Standard Fields
//
//   - request_id: API request identifier
//   - endpoint: route serving the request
//   - component: pipeline component emitting the entry
//   - source: bibliographic source (pubmed, scholar)
//   - pmid: PubMed identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
