package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Worker is a background loop the application stops on shutdown.
type Worker interface {
	Stop()
}
