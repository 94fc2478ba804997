// Package observable provides wrappers that instrument command and query handlers
// with metrics, tracing and logging while the handlers themselves stay free of it.
//
// The wrappers are applied at wiring time, not hidden inside handler constructors:
//
//	coreHandler := createloan.NewCommandHandler(store, createloan.WithRetrySettings(settings))
//
//	handler, err := observable.NewCommandWrapper[createloan.Command, library.Loan](
//		coreHandler,
//		observable.WithCommandMetrics[createloan.Command, library.Loan](metricsCollector),
//		observable.WithCommandTracing[createloan.Command, library.Loan](tracingCollector),
//		observable.WithCommandContextualLogging[createloan.Command, library.Loan](contextualLogger),
//	)
//
//	loan, result, err := handler.Handle(ctx, command)
//
// Tests of business behavior use the core handlers directly.
package observable
