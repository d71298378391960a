// Package logger builds *slog.Logger instances for the service.
//
// New applies functional options and, when context extractors are given,
// wraps the handler so request-scoped values such as the request id are
// pulled out of the context on every log call.
//
// Attribute helpers in attr.go keep key names consistent across packages:
//
//	log.InfoContext(ctx, "order created",
//		logger.OrderID(order.GatewayOrderID),
//		logger.PlanCode(order.PlanCode),
//		logger.UserID(order.UserID),
//	)
//
// Environment presets:
//
//	log := logger.New(logger.WithEnvironment(cfg.Env, "saas-backend"))
//	logger.SetAsDefault(log)
package logger
