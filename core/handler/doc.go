// Package handler defines the function types shared by the router, the
// middleware package and application code.
//
// A handler receives a request context and returns a value plus an error:
//
//	func show(ctx *router.Context) (any, error) {
//		user, err := users.Find(ctx, ctx.Param("id"))
//		if err != nil {
//			return nil, err
//		}
//		return user, nil // encoded as JSON
//	}
//
// Middlewares wrap handlers. The first middleware registered is the outermost
// layer, so code before next runs in registration order and code after next
// runs in reverse order:
//
//	func timing[C handler.Context](next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
//		return func(ctx C) (any, error) {
//			start := time.Now()
//			res, err := next(ctx)
//			log.Println(time.Since(start))
//			return res, err
//		}
//	}
//
// Response is the escape hatch for full control over rendering. Returning a
// Response from a handler bypasses value conversion.
package handler
