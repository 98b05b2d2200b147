// Package acquire provides the embeddable acquisition controller: it plans
// a multi-dimensional acquisition, drives it against a device gateway, and
// streams the captured frames to chunked storage and a live view.
//
// Example usage:
//
//	gw := sim.NewGateway(sim.DefaultGatewayConfig(), logger)
//	cfg := acquire.DefaultConfig()
//	cfg.OutputDir = "/data/run-001"
//	ctrl, err := acquire.New(gw, cfg, acquire.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	spec := acquire.Spec{
//	    Camera:   "cam0",
//	    Exposure: 50 * time.Millisecond,
//	    Axes: []acquire.Axis{
//	        {Name: "time", Values: acquire.Numbers(0, 1, 2)},
//	        {Name: "channel", Values: acquire.Labels("DAPI", "FITC")},
//	    },
//	}
//	if err := ctrl.Start(context.Background(), spec); err != nil {
//	    log.Fatal(err)
//	}
//	_ = ctrl.Wait(time.Minute)
package acquire
