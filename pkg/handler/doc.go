// Package handler provides typed JSON request handling for the HTTP API.
//
// Handlers are generic functions that receive a bound request value and
// return a Response:
//
//	type VerifyRequest struct {
//		OrderID string `json:"order_id"`
//	}
//
//	func verify(ctx handler.Context, req VerifyRequest) handler.Response {
//		tier, err := ledger.VerifyOrder(ctx, req.OrderID, confirmation)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(map[string]any{"tier": tier})
//	}
//
//	r.Post("/verify", handler.Wrap(verify,
//		handler.WithBinders[handler.Context, VerifyRequest](handler.BindJSON()),
//		handler.WithErrorHandler[handler.Context, VerifyRequest](errorHandler),
//	))
//
// # Errors
//
// HTTPError pairs a status code with a stable machine-readable key. Domain
// errors are translated to HTTPError by ErrorMapper functions passed to
// NewErrorHandler, which logs 4xx at WARN and 5xx at ERROR and renders
//
//	{"error": {"code": "order_not_found", "message": "Not Found"}}
//
// The wrapped cause is only ever logged. ValidationError renders as 422 with
// per-field details.
package handler
