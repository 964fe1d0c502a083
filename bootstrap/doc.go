// Package bootstrap wires the hermes server together: configuration
// resolution, logging, the optional error-reporting integration, storage, the
// request layer, and the listener supervisor, plus signal-driven shutdown.
//
// Usage:
//
//	app, err := bootstrap.NewApp(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = app.Run(ctx) // blocks until interrupt
package bootstrap
