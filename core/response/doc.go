// Package response provides ready-made handler.Response values for cases the
// router's automatic conversion does not cover: explicit statuses, redirects,
// caching headers and JSON error bodies.
//
//	r.Get("/old", func(*router.Context) (any, error) {
//		return response.RedirectPermanent("/new"), nil
//	})
//	r.Get("/report", func(ctx *router.Context) (any, error) {
//		return response.WithCache(response.JSON(report), time.Hour), nil
//	})
//
// JSONErrorHandler can replace the router's plain-text error handler:
//
//	r := router.New(router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
package response
