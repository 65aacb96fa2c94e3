package usercontext

// Locals keys used across controllers and middlewares
const (
	localsContext = "USER_CONTEXT"
	localsUser    = "USER"
)
