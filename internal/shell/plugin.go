package shell

import "context"

// Plugin is a capability handed to the front-end as-is. The shell binds the
// plugin's exported methods and passes it the host context at startup; it
// adds nothing to the plugin's own semantics.
type Plugin interface {
	Name() string
	Startup(ctx context.Context)
}
