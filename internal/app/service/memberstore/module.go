package memberstore

import "go.uber.org/fx"

// Module exposes the member store via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
