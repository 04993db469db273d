package storage

import "go.uber.org/fx"

// Module provides the ConnectionResolver and closes all storage connections on stop.
var Module = fx.Options(
	fx.Provide(NewConnectionResolver),
	fx.Invoke(func(lc fx.Lifecycle, r *ConnectionResolver) {
		lc.Append(fx.StopHook(r.CloseAll))
	}),
)
